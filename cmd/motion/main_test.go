package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dm/motion-go/internal/config"
)

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		args     []string
		wantCmd  string
		wantRest []string
	}{
		{nil, "serve", nil},
		{[]string{"--no-tls"}, "serve", []string{"--no-tls"}},
		{[]string{"serve", "--headless"}, "serve", []string{"--headless"}},
		{[]string{"simulate", "--rate", "10"}, "simulate", []string{"--rate", "10"}},
		{[]string{"bogus"}, "bogus", []string{}},
	}
	for _, tt := range tests {
		cmd, rest := splitCommand(tt.args)
		assert.Equal(t, tt.wantCmd, cmd, "args %v", tt.args)
		assert.Equal(t, len(tt.wantRest), len(rest), "args %v", tt.args)
		for i := range tt.wantRest {
			assert.Equal(t, tt.wantRest[i], rest[i])
		}
	}
}

func TestEndpointURL(t *testing.T) {
	tests := []struct {
		listen string
		tls    bool
		want   string
	}{
		{":3000", true, "https://0.0.0.0:3000"},
		{":3000", false, "http://0.0.0.0:3000"},
		{"127.0.0.1:8080", false, "http://127.0.0.1:8080"},
		{"[::1]:3000", true, "https://[::1]:3000"},
		{"localhost", false, "http://localhost"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, endpointURL(tt.listen, tt.tls), "listen %q tls %v", tt.listen, tt.tls)
	}
}

func TestParseServeFlags_Defaults(t *testing.T) {
	cfg, err := parseServeFlags(nil, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.True(t, cfg.TLS.On())
}

func TestParseServeFlags_Overrides(t *testing.T) {
	cfg, err := parseServeFlags([]string{
		"--listen", ":8080",
		"--no-tls",
		"--history", "250",
		"--tick", "50ms",
		"--headless",
		"--log-level", "debug",
	}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Listen)
	assert.False(t, cfg.TLS.On())
	assert.Equal(t, 250, cfg.History)
	assert.Equal(t, 50*time.Millisecond, cfg.Tick)
	assert.True(t, cfg.Headless)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "motion.log", cfg.Log.File)
}

func TestParseServeFlags_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "motion.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: \":9000\"\nhistory: 50\ntls:\n  enabled: false\n"), 0o600))

	cfg, err := parseServeFlags([]string{"--config", path, "--history", "75"}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Listen, "file value kept when the flag is not set")
	assert.Equal(t, 75, cfg.History, "explicit flag wins over the file")
	assert.False(t, cfg.TLS.On())
}

func TestParseServeFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"--bogus"}},
		{"positional argument", []string{"extra"}},
		{"zero history", []string{"--history", "0"}},
		{"negative tick", []string{"--tick", "-1s"}},
		{"bad log level", []string{"--log-level", "loud"}},
		{"missing config file", []string{"--config", "/nonexistent/motion.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseServeFlags(tt.args, io.Discard)
			assert.Error(t, err)
		})
	}
}

func TestParseServeFlags_InvalidValuesAreConfigErrors(t *testing.T) {
	_, err := parseServeFlags([]string{"--history", "-5"}, io.Discard)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestParseServeFlags_Help(t *testing.T) {
	_, err := parseServeFlags([]string{"-h"}, io.Discard)
	assert.True(t, errors.Is(err, flag.ErrHelp))
}

func TestNewLogger(t *testing.T) {
	cfg := config.Default()
	cfg.Log.File = filepath.Join(t.TempDir(), "motion.log")
	cfg.Log.Level = "debug"

	logger, closer, err := newLogger(cfg)
	require.NoError(t, err)
	logger.Debug("hello", "k", "v")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(cfg.Log.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=hello")
	assert.Contains(t, string(data), "k=v")
}

func TestNewLogger_Headless(t *testing.T) {
	cfg := config.Default()
	cfg.Headless = true
	cfg.Log.File = filepath.Join(t.TempDir(), "unused.log")

	_, closer, err := newLogger(cfg)
	require.NoError(t, err)
	require.NoError(t, closer.Close())
	_, err = os.Stat(cfg.Log.File)
	assert.True(t, os.IsNotExist(err), "headless runs log to stderr")
}

func TestSimulateCommand_RejectsRate(t *testing.T) {
	for _, rate := range []string{"0", "-1", "2e9"} {
		err := simulateCommand([]string{"--url", "http://127.0.0.1:1", "--rate", rate})
		require.Error(t, err, "rate %s", rate)
		assert.Contains(t, err.Error(), "--rate", "rate %s", rate)
	}
}

// lockedBuffer is a bytes.Buffer safe to write from the serve goroutine.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestServe_QuitKeepsIngestionRunning(t *testing.T) {
	cfg := config.Default()
	off := false
	cfg.TLS.Enabled = &off

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	cfg.Listen = ln.Addr().String()
	base := "http://" + ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stderr lockedBuffer
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, cfg, ln, slog.New(slog.NewTextHandler(io.Discard, nil)), &stderr,
			tea.WithInput(strings.NewReader("q")),
			tea.WithOutput(io.Discard),
		)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(stderr.String(), "dashboard closed")
	}, 5*time.Second, 10*time.Millisecond)

	// The dashboard is gone; samples are still accepted.
	resp, err := http.Post(base+"/motion", "application/json", strings.NewReader(`{"x":1,"y":2,"z":3}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "motion_samples_undelivered_total 1")

	select {
	case err := <-done:
		t.Fatalf("serve returned before cancel: %v", err)
	default:
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}
