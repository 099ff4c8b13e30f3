// Package version carries the build metadata shown by the CLI and API.
package version

var Version = "0.1.0"
var BuildDate = "2026-08-27"

func GetVersion() string {
	return Version
}

func GetBuildDate() string {
	return BuildDate
}
