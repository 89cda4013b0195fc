package util

//nolint:gochecknoglobals
var (
	// Version current version number, set by the build
	Version = "undefined"
	// BuildTime build time of the binary, set by the build
	BuildTime = "undefined"
)
