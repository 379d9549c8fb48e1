package platform

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/akavel/dodo/pkg/adapters/fs"
)

// FindRoot looks upwards from startDir for a storage root: a directory holding
// the system dir or a .git directory. It returns the absolute root path.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if hasFile(dir, fs.DefaultSystemDir) || hasFile(dir, ".git") {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("root not found")
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
