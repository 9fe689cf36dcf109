package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonandersen/payoff/internal/auth"
	"github.com/jonandersen/payoff/internal/config"
	"github.com/jonandersen/payoff/internal/keyring"
	"github.com/jonandersen/payoff/pkg/tradier"
)

// mockPasswordReader is a test double for password input.
type mockPasswordReader struct {
	password   string
	err        error
	isTerminal bool
	readCalled bool
}

func newMockPasswordReader(password string, isTerminal bool) *mockPasswordReader {
	return &mockPasswordReader{
		password:   password,
		isTerminal: isTerminal,
	}
}

func (m *mockPasswordReader) WithError(err error) *mockPasswordReader {
	m.err = err
	return m
}

func (m *mockPasswordReader) ReadPassword() (string, error) {
	m.readCalled = true
	if m.err != nil {
		return "", m.err
	}
	return m.password, nil
}

func (m *mockPasswordReader) IsTerminal() bool {
	return m.isTerminal
}

// mockPrompt is a test double for interactive menu prompts.
type mockPrompt struct {
	selections []int
	callIndex  int
	lines      []string
	lineIndex  int
}

func newMockPrompt(selections ...int) *mockPrompt {
	return &mockPrompt{selections: selections}
}

func (m *mockPrompt) WithLines(lines ...string) *mockPrompt {
	m.lines = lines
	return m
}

func (m *mockPrompt) SelectOption(options []string) (int, error) {
	if m.callIndex >= len(m.selections) {
		return 0, errors.New("no more mock selections")
	}
	idx := m.selections[m.callIndex]
	m.callIndex++
	return idx, nil
}

func (m *mockPrompt) ReadLine(prompt string) (string, error) {
	if m.lineIndex >= len(m.lines) {
		return "", nil
	}
	line := m.lines[m.lineIndex]
	m.lineIndex++
	return line, nil
}

// recordingVerifier accepts one token and records what it was asked.
type recordingVerifier struct {
	valid   string
	baseURL string
	calls   int
}

func (v *recordingVerifier) verify(_ context.Context, baseURL, token string) error {
	v.calls++
	v.baseURL = baseURL
	if token != v.valid {
		return auth.ErrInvalidToken
	}
	return nil
}

func TestConfigureCmd_Success(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	store := keyring.NewMockStore()
	pwReader := newMockPasswordReader("test-token", true)
	verifier := &recordingVerifier{valid: "test-token"}

	cmd := newConfigureCmd(configureOptions{
		configPath:     configPath,
		store:          store,
		passwordReader: pwReader,
		prompt:         newMockPrompt(),
		verify:         verifier.verify,
	})

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	err := cmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, out.String(), "Enter your Tradier API token:")
	assert.Contains(t, out.String(), "Configuration saved")
	assert.True(t, pwReader.readCalled)
	assert.Equal(t, config.DefaultAPIBaseURL, verifier.baseURL)

	token, err := store.Get(keyring.ServiceName, keyring.TokenKey(config.DefaultAPIBaseURL))
	require.NoError(t, err)
	assert.Equal(t, "test-token", token)

	_, err = os.Stat(configPath)
	assert.NoError(t, err)
}

func TestConfigureCmd_Defaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	plotDir := t.TempDir()
	verifier := &recordingVerifier{valid: "tok"}

	store := keyring.NewMockStore()

	cmd := newConfigureCmd(configureOptions{
		configPath:     configPath,
		store:          store,
		passwordReader: newMockPasswordReader("tok", true),
		prompt:         newMockPrompt().WithLines("0.05", plotDir),
		verify:         verifier.verify,
	})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--sandbox"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, tradier.SandboxBaseURL, verifier.baseURL)

	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, 0.05, cfg.RiskFreeRate)
	assert.Equal(t, plotDir, cfg.PlotDir)
	assert.Equal(t, tradier.SandboxBaseURL, cfg.APIBaseURL)
	assert.Equal(t, []string{keyring.TokenKey(tradier.SandboxBaseURL)}, store.Keys(keyring.ServiceName))
}

func TestConfigureCmd_SandboxTokenIsSeparate(t *testing.T) {
	store := keyring.NewMockStore().WithToken(config.DefaultAPIBaseURL, "live")

	cmd := newConfigureCmd(configureOptions{
		configPath:     filepath.Join(t.TempDir(), "config.yaml"),
		store:          store,
		passwordReader: newMockPasswordReader("paper", true),
		prompt:         newMockPrompt().WithLines("", ""),
		verify:         (&recordingVerifier{valid: "paper"}).verify,
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--sandbox"})

	require.NoError(t, cmd.Execute())
	assert.NotContains(t, out.String(), "already configured")

	live, err := store.Get(keyring.ServiceName, keyring.TokenKey(config.DefaultAPIBaseURL))
	require.NoError(t, err)
	assert.Equal(t, "live", live)
	paper, err := store.Get(keyring.ServiceName, keyring.TokenKey(tradier.SandboxBaseURL))
	require.NoError(t, err)
	assert.Equal(t, "paper", paper)
}

func TestConfigureCmd_InvalidRate(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	verifier := &recordingVerifier{valid: "tok"}

	cmd := newConfigureCmd(configureOptions{
		configPath:     configPath,
		store:          keyring.NewMockStore(),
		passwordReader: newMockPasswordReader("tok", true),
		prompt:         newMockPrompt().WithLines("four percent"),
		verify:         verifier.verify,
	})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid risk-free rate")

	_, statErr := os.Stat(configPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestConfigureCmd_InvalidToken(t *testing.T) {
	store := keyring.NewMockStore()
	verifier := &recordingVerifier{valid: "good"}

	cmd := newConfigureCmd(configureOptions{
		configPath:     filepath.Join(t.TempDir(), "config.yaml"),
		store:          store,
		passwordReader: newMockPasswordReader("bad", true),
		prompt:         newMockPrompt(),
		verify:         verifier.verify,
	})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = store.Get(keyring.ServiceName, keyring.TokenKey(config.DefaultAPIBaseURL))
	assert.ErrorIs(t, err, keyring.ErrNotFound)
}

func TestConfigureCmd_EmptyToken(t *testing.T) {
	verifier := &recordingVerifier{valid: "x"}
	cmd := newConfigureCmd(configureOptions{
		configPath:     filepath.Join(t.TempDir(), "config.yaml"),
		store:          keyring.NewMockStore(),
		passwordReader: newMockPasswordReader("   ", true),
		prompt:         newMockPrompt(),
		verify:         verifier.verify,
	})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token cannot be empty")
	assert.Zero(t, verifier.calls)
}

func TestConfigureCmd_KeyringError(t *testing.T) {
	verifier := &recordingVerifier{valid: "tok"}
	cmd := newConfigureCmd(configureOptions{
		configPath:     filepath.Join(t.TempDir(), "config.yaml"),
		store:          keyring.NewMockStore().WithSetError(errors.New("keyring locked")),
		passwordReader: newMockPasswordReader("tok", true),
		prompt:         newMockPrompt(),
		verify:         verifier.verify,
	})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to store token in keyring")
}

func TestConfigureCmd_NotATerminal(t *testing.T) {
	pwReader := newMockPasswordReader("tok", false)
	cmd := newConfigureCmd(configureOptions{
		configPath:     filepath.Join(t.TempDir(), "config.yaml"),
		store:          keyring.NewMockStore(),
		passwordReader: pwReader,
		prompt:         newMockPrompt(),
	})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interactive terminal")
	assert.Contains(t, err.Error(), keyring.EnvAPIToken)
	assert.False(t, pwReader.readCalled)
}

func TestConfigureCmd_ReadPasswordError(t *testing.T) {
	cmd := newConfigureCmd(configureOptions{
		configPath:     filepath.Join(t.TempDir(), "config.yaml"),
		store:          keyring.NewMockStore(),
		passwordReader: newMockPasswordReader("", true).WithError(errors.New("tty closed")),
		prompt:         newMockPrompt(),
	})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read token")
}

func TestConfigureCmd_ReconfigureNewToken(t *testing.T) {
	store := keyring.NewMockStore().WithToken(config.DefaultAPIBaseURL, "old")
	verifier := &recordingVerifier{valid: "new"}

	cmd := newConfigureCmd(configureOptions{
		configPath:     filepath.Join(t.TempDir(), "config.yaml"),
		store:          store,
		passwordReader: newMockPasswordReader("new", true),
		prompt:         newMockPrompt(0),
		verify:         verifier.verify,
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "already configured")

	token, err := store.Get(keyring.ServiceName, keyring.TokenKey(config.DefaultAPIBaseURL))
	require.NoError(t, err)
	assert.Equal(t, "new", token)
}

func TestConfigureCmd_ViewConfiguration(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	cfg := config.DefaultConfig()
	cfg.RiskFreeRate = 0.0375
	require.NoError(t, config.Save(configPath, cfg))

	cmd := newConfigureCmd(configureOptions{
		configPath:     configPath,
		store:          keyring.NewMockStore().WithToken(config.DefaultAPIBaseURL, "tok"),
		passwordReader: newMockPasswordReader("", true),
		prompt:         newMockPrompt(1),
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "API token: Configured")
	assert.Contains(t, out.String(), "Risk-free rate: 0.0375")
	assert.Contains(t, out.String(), "Forest trees: 100")
}

func TestConfigureCmd_ClearToken(t *testing.T) {
	store := keyring.NewMockStore().WithToken(config.DefaultAPIBaseURL, "tok")

	cmd := newConfigureCmd(configureOptions{
		configPath:     filepath.Join(t.TempDir(), "config.yaml"),
		store:          store,
		passwordReader: newMockPasswordReader("", true),
		prompt:         newMockPrompt(2),
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "API token cleared")

	_, err := store.Get(keyring.ServiceName, keyring.TokenKey(config.DefaultAPIBaseURL))
	assert.ErrorIs(t, err, keyring.ErrNotFound)
}

func TestTerminalPrompter(t *testing.T) {
	var out bytes.Buffer
	p := newTerminalPrompter(bytes.NewBufferString("9\n2\n  0.04 \n"), &out)

	idx, err := p.SelectOption([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Contains(t, out.String(), "between 1 and 2")

	line, err := p.ReadLine("rate: ")
	require.NoError(t, err)
	assert.Equal(t, "0.04", line)

	line, err = p.ReadLine("dir: ")
	require.NoError(t, err)
	assert.Empty(t, line)
}
