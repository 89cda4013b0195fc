package experiment

//go:generate go run github.com/abice/go-enum -f=$GOFILE --marshal --names

// Mode protection of the zone during an experiment ENUM(
// unsigned // zone unsigned, validation off
// dnssec // zone signed, validation on
// )
type Mode int
