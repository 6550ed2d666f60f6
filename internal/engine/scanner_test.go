package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), os.ModePerm))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestScanDependenciesResolvesFromConfiguredRoot(t *testing.T) {
	root := t.TempDir()
	includeDir := filepath.Join(root, "include")
	sourceDir := filepath.Join(root, "src")

	writeFile(t, filepath.Join(includeDir, "lib.hpp"), "#pragma once\n")
	writeFile(t, filepath.Join(sourceDir, "main.cpp"), "#include \"lib.hpp\"\nint main(){}\n")

	deps, err := ScanDependencies(filepath.Join(sourceDir, "main.cpp"), []string{includeDir})
	require.NoError(t, err)
	require.Len(t, deps, 1)
	assert.Equal(t, filepath.Join(includeDir, "lib.hpp"), deps[0].Path())
}

func TestScanDependenciesFallsBackToLocalDirectory(t *testing.T) {
	sourceDir := t.TempDir()
	writeFile(t, filepath.Join(sourceDir, "local.hpp"), "#pragma once\n")
	writeFile(t, filepath.Join(sourceDir, "main.cpp"), "#include \"local.hpp\"\nint main(){}\n")

	// No configured include dirs contain local.hpp; it's only resolved via
	// the file's own directory, which is appended last to the search list.
	deps, err := ScanDependencies(filepath.Join(sourceDir, "main.cpp"), nil)
	require.NoError(t, err)
	require.Len(t, deps, 1)
	assert.Equal(t, filepath.Join(sourceDir, "local.hpp"), deps[0].Path())
}

func TestScanDependenciesUnresolvedIncludeErrors(t *testing.T) {
	sourceDir := t.TempDir()
	writeFile(t, filepath.Join(sourceDir, "main.cpp"), "#include <missing.hpp>\nint main(){}\n")

	_, err := ScanDependencies(filepath.Join(sourceDir, "main.cpp"), nil)
	require.Error(t, err)
	var depErr *DependencyResolutionError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, "missing.hpp", depErr.IncludedName)
}

func TestScanDependenciesIgnoresNonIncludeLines(t *testing.T) {
	sourceDir := t.TempDir()
	writeFile(t, filepath.Join(sourceDir, "main.cpp"), "// #include <nope.hpp> is a comment, not a directive\nint main(){}\n")

	deps, err := ScanDependencies(filepath.Join(sourceDir, "main.cpp"), nil)
	require.NoError(t, err)
	assert.Empty(t, deps)
}
