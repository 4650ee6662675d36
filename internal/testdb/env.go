package testdb

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// DefaultEnvFile holds local overrides for the test database variables.
const DefaultEnvFile = ".env.test"

// LoadEnvFiles loads variables from each existing file without overriding
// values already present in the environment. Missing files are skipped.
func LoadEnvFiles(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// EnvFiles returns name in the working directory followed by name in the
// module root. go test runs inside each package directory, so a file kept at
// the repository root is only found through the second entry. Earlier files
// win when both exist.
func EnvFiles(name string) []string {
	files := []string{name}
	root, err := ModuleRoot()
	if err != nil {
		return files
	}
	abs, err := filepath.Abs(name)
	if rootFile := filepath.Join(root, name); err != nil || abs != rootFile {
		files = append(files, rootFile)
	}
	return files
}

// ModuleRoot walks up from the working directory to the nearest go.mod.
func ModuleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("go.mod not found")
		}
		dir = parent
	}
}
