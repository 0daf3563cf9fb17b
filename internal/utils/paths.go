package utils

import (
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
)

const (
	defaultSnapshotDir = "followscope_data"
	defaultDBName      = "followscope.sqlite"
)

// StoragePath resolves where snapshots live for the given storage kind.
// An empty path selects a default under $HOME/.config/followscope.
func StoragePath(kind, path string) (string, error) {
	if path != "" {
		return filepath.Abs(path)
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	base := filepath.Join(home, ".config", "followscope")
	if kind == "sqlite" {
		return filepath.Join(base, defaultDBName), nil
	}
	return filepath.Join(base, defaultSnapshotDir), nil
}
