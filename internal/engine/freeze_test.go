package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withTempWorkdir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })
}

func TestFreezeRoundTrip(t *testing.T) {
	withTempWorkdir(t)

	path := filepath.Join(t.TempDir(), "main.cpp")
	require.NoError(t, os.WriteFile(path, []byte("int main(){}"), 0644))
	file, err := NewFile(path)
	require.NoError(t, err)

	_, ok := FrozenTime("mytank", "debug", file)
	assert.False(t, ok, "no freeze record should exist yet")
	assert.True(t, IsModified("mytank", "debug", file))

	require.NoError(t, Freeze("mytank", "debug", file))

	frozenTime, ok := FrozenTime("mytank", "debug", file)
	require.True(t, ok)
	assert.False(t, file.IsModified(frozenTime))
	assert.False(t, IsModified("mytank", "debug", file))
}

func TestIsModifiedAfterFileEditedPastFreeze(t *testing.T) {
	withTempWorkdir(t)

	path := filepath.Join(t.TempDir(), "main.cpp")
	require.NoError(t, os.WriteFile(path, []byte("int main(){}"), 0644))
	file, err := NewFile(path)
	require.NoError(t, err)
	require.NoError(t, Freeze("mytank", "debug", file))

	future := time.Now().Add(5 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))
	edited, err := NewFile(path)
	require.NoError(t, err)

	assert.True(t, IsModified("mytank", "debug", edited))
}

func TestHasMissingObjectHeadersAlwaysFalse(t *testing.T) {
	withTempWorkdir(t)

	path := filepath.Join(t.TempDir(), "lib.hpp")
	require.NoError(t, os.WriteFile(path, []byte("#pragma once"), 0644))
	file, err := NewFile(path)
	require.NoError(t, err)

	assert.False(t, HasMissingObject("mytank", "debug", file))
}

func TestHasMissingObjectSourceWithoutObject(t *testing.T) {
	withTempWorkdir(t)

	path := filepath.Join(t.TempDir(), "main.cpp")
	require.NoError(t, os.WriteFile(path, []byte("int main(){}"), 0644))
	file, err := NewFile(path)
	require.NoError(t, err)

	assert.True(t, HasMissingObject("mytank", "debug", file))

	objPath, err := ObjectPath("mytank", "debug", file.Path())
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(objPath), os.ModePerm))
	require.NoError(t, os.WriteFile(objPath, []byte("fake object"), 0644))

	assert.False(t, HasMissingObject("mytank", "debug", file))
}
