package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xhad/siteqa/pkg/config"
	"github.com/xhad/siteqa/pkg/store"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"index", "ask", "teach", "chat", "serve", "profile"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "siteqa", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}

func TestCommandFlags(t *testing.T) {
	require.NotNil(t, indexCmd.Flags().Lookup("pages"))
	require.NotNil(t, teachCmd.Flags().Lookup("question"))
	require.NotNil(t, teachCmd.Flags().Lookup("answer"))
	require.NotNil(t, profileCmd.Flags().Lookup("refresh"))

	flag := chatCmd.Flags().Lookup("stream")
	require.NotNil(t, flag)
	assert.Equal(t, "true", flag.DefValue)
}

func TestBuildAppUsesMemoryStoreWithoutDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SITEQA_DATABASE_URL", "")
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	c, err := config.LoadConfig("")
	require.NoError(t, err)

	a, err := buildApp(context.Background(), c, appOptions{})
	require.NoError(t, err)
	defer a.Close()

	_, ok := a.store.(*store.Memory)
	assert.True(t, ok)
	assert.NotNil(t, a.pipeline)
	assert.NotNil(t, a.orchestrator)
}

func TestNewCompleterRequiresAnthropicKey(t *testing.T) {
	_, err := newCompleter(config.LLMConfig{Provider: "anthropic", MaxTokens: 100, TimeoutSecs: 5})
	assert.Error(t, err)
}
