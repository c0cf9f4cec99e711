// Package config holds forestutil's on-disk defaults, grounded on the
// teacher's own config package (config/defaults.go): a Config struct
// plus a package-level DefaultConfig literal, with an OS-aware default
// data directory.
package config

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
)

// Config is forestutil's persistent configuration.
type Config struct {
	DataDir  string
	LogDir   string
	MaxNodes int
}

const (
	snapshotFilename = "forest.dat"
	defaultMaxNodes  = 4096
)

// DefaultConfig is used when no flags override it; no config file is
// read.
var DefaultConfig = &Config{
	DataDir:  defaultDataDir(),
	LogDir:   filepath.Join(defaultDataDir(), "logs"),
	MaxNodes: defaultMaxNodes,
}

// SnapshotPath is the default snapshot file within DataDir.
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.DataDir, snapshotFilename)
}

func defaultDataDir() string {
	home := homeDir()
	if home == "" {
		return ""
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "forestutil")
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "forestutil")
	default:
		return filepath.Join(home, ".forestutil")
	}
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}
