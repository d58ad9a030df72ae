package args

import (
	"path/filepath"

	"gamelaunch/internal/rules"
)

// Context is the immutable per-launch input to the builder: identity,
// layout and platform. Directories are derived from Root, Isolated and
// VersionID.
type Context struct {
	PlayerName  string
	PlayerUUID  string
	AccessToken string
	UserType    string
	ClientID    string
	XUID        string

	VersionID    string
	VersionLabel string
	Root         string
	// Isolated gives each version its own game directory.
	Isolated bool

	Width, Height int
	MaxHeapMB     int
	Features      map[string]bool
	Platform      rules.Platform

	LauncherName    string
	LauncherVersion string
}

// VersionsDir is <root>/versions.
func (c Context) VersionsDir() string { return filepath.Join(c.Root, "versions") }

// LibrariesDir is <root>/libraries.
func (c Context) LibrariesDir() string { return filepath.Join(c.Root, "libraries") }

// AssetsDir is <root>/assets.
func (c Context) AssetsDir() string { return filepath.Join(c.Root, "assets") }

// NativesDir is <root>/versions/<id>/natives.
func (c Context) NativesDir() string { return filepath.Join(c.VersionsDir(), c.VersionID, "natives") }

// GameDir is <root>/versions/<id> when isolated, else <root>.
func (c Context) GameDir() string {
	if c.Isolated {
		return filepath.Join(c.VersionsDir(), c.VersionID)
	}
	return c.Root
}
