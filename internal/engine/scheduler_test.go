package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFakeCompiler produces a shell script standing in for g++: it creates
// its "-o" target and exits non-zero only when the named source contains the
// sentinel "FAIL_ME". It handles both "-c ... -o x.o" and "... -o executable"
// (link) invocations the same way, since the scheduler never mixes them in
// a single process.
func writeFakeCompiler(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fake-cxx.sh")
	script := `#!/bin/sh
out=""
fail=0
prev=""
for arg in "$@"; do
  if [ "$prev" = "-o" ]; then
    out="$arg"
  fi
  case "$arg" in
    *.cpp|*.c)
      if grep -q FAIL_ME "$arg" 2>/dev/null; then
        fail=1
      fi
      ;;
  esac
  prev="$arg"
done
if [ "$fail" = "1" ]; then
  echo "simulated compile error" >&2
  exit 1
fi
if [ -n "$out" ]; then
  mkdir -p "$(dirname "$out")"
  echo "fake artifact" > "$out"
  chmod +x "$out" 2>/dev/null || true
fi
exit 0
`
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

func testProfile(compiler string) *Profile {
	return &Profile{
		Name:         "debug",
		Compiler:     compiler,
		StandardFlag: "-std=c++17",
	}
}

func TestBuildCompilesLinksAndFreezes(t *testing.T) {
	withTempWorkdir(t)

	sourceDir := t.TempDir()
	writeFile(t, filepath.Join(sourceDir, "main.cpp"), "int main(){}\n")

	section, err := NewSection("mytank", OutletExecutable, sourceDir, "", nil)
	require.NoError(t, err)

	profile := testProfile(writeFakeCompiler(t))

	err = Build(section, "debug", profile)
	require.NoError(t, err)

	outputPath := OutputPath("mytank", "debug", OutletExecutable)
	assert.FileExists(t, outputPath)

	mainFile := section.byPath[filepath.Join(sourceDir, "main.cpp")]
	_, ok := FrozenTime("mytank", "debug", mainFile)
	assert.True(t, ok, "successful compile should leave a freeze record")
}

func TestBuildSecondRunWithNothingDirtySkipsCompiling(t *testing.T) {
	withTempWorkdir(t)

	sourceDir := t.TempDir()
	writeFile(t, filepath.Join(sourceDir, "main.cpp"), "int main(){}\n")

	section, err := NewSection("mytank", OutletExecutable, sourceDir, "", nil)
	require.NoError(t, err)
	profile := testProfile(writeFakeCompiler(t))

	require.NoError(t, Build(section, "debug", profile))

	outputPath := OutputPath("mytank", "debug", OutletExecutable)
	info1, err := os.Stat(outputPath)
	require.NoError(t, err)

	require.NoError(t, Build(section, "debug", profile))
	info2, err := os.Stat(outputPath)
	require.NoError(t, err)

	assert.Equal(t, info1.ModTime(), info2.ModTime(), "second build must not re-link when nothing is dirty")
}

func TestBuildFailureSkipsLinkAndReportsCompileError(t *testing.T) {
	withTempWorkdir(t)

	sourceDir := t.TempDir()
	writeFile(t, filepath.Join(sourceDir, "bad.cpp"), "int bad(){} // FAIL_ME\n")

	section, err := NewSection("mytank", OutletExecutable, sourceDir, "", nil)
	require.NoError(t, err)
	profile := testProfile(writeFakeCompiler(t))

	err = Build(section, "debug", profile)
	require.Error(t, err)
	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, 1, compileErr.FailedCount)

	outputPath := OutputPath("mytank", "debug", OutletExecutable)
	assert.NoFileExists(t, outputPath)
}

func TestBuildHeaderChangeRecompilesEveryDependent(t *testing.T) {
	withTempWorkdir(t)

	root := t.TempDir()
	sourceDir := filepath.Join(root, "src")
	includeDir := filepath.Join(root, "include")
	writeFile(t, filepath.Join(includeDir, "shared.hpp"), "#pragma once\n")
	writeFile(t, filepath.Join(sourceDir, "a.cpp"), "#include \"shared.hpp\"\nvoid a(){}\n")
	writeFile(t, filepath.Join(sourceDir, "b.cpp"), "#include \"shared.hpp\"\nvoid b(){}\n")

	section, err := NewSection("mytank", OutletStaticLibrary, sourceDir, includeDir, nil)
	require.NoError(t, err)
	profile := testProfile(writeFakeCompiler(t))

	require.NoError(t, Build(section, "debug", profile))

	aObj, err := ObjectPath("mytank", "debug", filepath.Join(sourceDir, "a.cpp"))
	require.NoError(t, err)
	bObj, err := ObjectPath("mytank", "debug", filepath.Join(sourceDir, "b.cpp"))
	require.NoError(t, err)
	require.FileExists(t, aObj)
	require.FileExists(t, bObj)

	infoA1, _ := os.Stat(aObj)
	infoB1, _ := os.Stat(bObj)

	headerFile := section.byPath[filepath.Join(includeDir, "shared.hpp")]
	newer := infoA1.ModTime().Add(5e9)
	require.NoError(t, os.Chtimes(headerFile.Path(), newer, newer))

	section, err = NewSection("mytank", OutletStaticLibrary, sourceDir, includeDir, nil)
	require.NoError(t, err)
	require.NoError(t, Build(section, "debug", profile))

	infoA2, _ := os.Stat(aObj)
	infoB2, _ := os.Stat(bObj)
	assert.NotEqual(t, infoA1.ModTime(), infoA2.ModTime(), "a.cpp must be recompiled after shared header changes")
	assert.NotEqual(t, infoB1.ModTime(), infoB2.ModTime(), "b.cpp must be recompiled after shared header changes")
}

func TestCheckDoesNotWriteFreezeRecords(t *testing.T) {
	withTempWorkdir(t)

	sourceDir := t.TempDir()
	writeFile(t, filepath.Join(sourceDir, "main.cpp"), "int main(){}\n")

	section, err := NewSection("mytank", OutletExecutable, sourceDir, "", nil)
	require.NoError(t, err)
	profile := testProfile(writeFakeCompiler(t))

	require.NoError(t, Check(section, "debug", profile))

	mainFile := section.byPath[filepath.Join(sourceDir, "main.cpp")]
	_, ok := FrozenTime("mytank", "debug", mainFile)
	assert.False(t, ok, "check must not freeze files")

	outputPath := OutputPath("mytank", "debug", OutletExecutable)
	assert.NoFileExists(t, outputPath, "check must not link")
}

func TestRunRejectsNonExecutableOutlet(t *testing.T) {
	withTempWorkdir(t)

	sourceDir := t.TempDir()
	writeFile(t, filepath.Join(sourceDir, "main.cpp"), "int main(){}\n")

	section, err := NewSection("mytank", OutletStaticLibrary, sourceDir, "", nil)
	require.NoError(t, err)
	profile := testProfile(writeFakeCompiler(t))

	err = Run(section, "debug", profile)
	require.Error(t, err)
	var usageErr *OutletUsageError
	require.ErrorAs(t, err, &usageErr)
}
