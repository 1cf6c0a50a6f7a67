package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DataDir is the hidden directory holding a project's checklist data.
	DataDir = ".tenken"
	// ConfigFile is the optional per-project configuration file.
	ConfigFile = "tenken.yaml"
)

// FindRoot recursively looks upwards for a project root indicator.
// Indicators are: .tenken directory or tenken.yaml file.
// If found, returns the absolute path to the root.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if hasFile(dir, DataDir) || hasFile(dir, ConfigFile) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("root not found")
}

func hasFile(dir, name string) bool {
	path := filepath.Join(dir, name)
	_, err := os.Stat(path)
	return err == nil
}
