package web

import (
	"embed"
	"io/fs"
)

//go:embed all:sites
var sites embed.FS

// IndexTmpl is the template of the start page
//
//go:embed index.html
var IndexTmpl string

// RealSite returns the pages of the legitimate site
func RealSite() (fs.FS, error) {
	return fs.Sub(sites, "sites/real")
}

// FakeSite returns the pages of the attacker's look-alike site
func FakeSite() (fs.FS, error) {
	return fs.Sub(sites, "sites/fake")
}
