package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootCmd_JSONFlagExists(t *testing.T) {
	jsonOutput = false

	flag := rootCmd.PersistentFlags().Lookup("json")

	assert.NotNil(t, flag, "--json flag should exist")
	assert.Equal(t, "false", flag.DefValue)
	assert.Equal(t, "Output in JSON format", flag.Usage)
}

func TestRootCmd_JSONFlagShorthand(t *testing.T) {
	flag := rootCmd.PersistentFlags().ShorthandLookup("j")

	assert.NotNil(t, flag, "-j shorthand should exist")
	assert.Equal(t, "json", flag.Name)
}

func TestRootCmd_VerboseFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().ShorthandLookup("v")

	assert.NotNil(t, flag, "-v shorthand should exist")
	assert.Equal(t, "verbose", flag.Name)
	assert.Equal(t, "false", flag.DefValue)
}

func TestRootCmd_GetJSONMode(t *testing.T) {
	jsonOutput = false
	assert.False(t, GetJSONMode())

	jsonOutput = true
	assert.True(t, GetJSONMode())

	jsonOutput = false
}

func TestRootCmd_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"configure", "expirations", "chain", "range", "analyze", "explore", "ui", "quote", "history"} {
		assert.True(t, names[want], "missing %s command", want)
	}
}

func TestRootCmd_Version(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--version"})

	_ = rootCmd.Execute()

	assert.Contains(t, out.String(), "payoff version")
}
