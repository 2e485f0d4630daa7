package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	for _, name := range []string{"serve", "migrate"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestRootCmd_RejectsArguments(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"migrate", "extra"})

	err := root.Execute()

	assert.Error(t, err)
}
