// ABOUTME: Build identification constants
// ABOUTME: Reported by the -version flag and startup log
package version

const (
	Version      = "0.2.0"
	Product      = "wledfeed"
	Manufacturer = "wledfeed project"
)
