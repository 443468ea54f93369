package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInitCommand(t *testing.T) {
	cmd := newInitCommand()
	assert.NotNil(t, cmd)
	assert.Equal(t, "init", cmd.Use)
}

func TestInitCommand_CreatesStore(t *testing.T) {
	root := filepath.Join(t.TempDir(), "mystore")
	storeRootFlag = root
	defer func() { storeRootFlag = "" }()

	var out bytes.Buffer
	cmd := newInitCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Initialized empty castor store")
	assert.FileExists(t, filepath.Join(root, "config"))
	assert.DirExists(t, filepath.Join(root, "refs"))
}

func TestInitCommand_AlreadyInitialized(t *testing.T) {
	root := filepath.Join(t.TempDir(), "mystore")
	storeRootFlag = root
	defer func() { storeRootFlag = "" }()

	first := newInitCommand()
	first.SetArgs([]string{})
	require.NoError(t, first.Execute())

	second := newInitCommand()
	second.SetArgs([]string{})
	err := second.Execute()
	assert.Error(t, err)
}
