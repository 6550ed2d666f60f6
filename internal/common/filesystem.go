package common

import (
	"os"
	"path/filepath"
)

// MkdirForFile ensures the parent directory of fileName exists.
func MkdirForFile(fileName string) error {
	if err := os.MkdirAll(filepath.Dir(fileName), os.ModePerm); err != nil {
		return err
	}
	return nil
}
