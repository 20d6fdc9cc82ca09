// Package common provides shared test infrastructure
package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bobmcallan/chitty/internal/app"
	icommon "github.com/bobmcallan/chitty/internal/common"
	"github.com/bobmcallan/chitty/internal/server"
)

// EnvOptions configures the in-process test environment.
type EnvOptions struct {
	// ExtraEnv sets process environment variables for the lifetime of the
	// test (e.g. CHITTY_BREAKGLASS). Applied via t.Setenv before the app
	// boots, so startup code that reads the environment sees them.
	ExtraEnv map[string]string

	// Storage overrides the storage configuration. Leave nil for the
	// default embedded badger store under a temp directory. When set with
	// an empty DataPath, a temp directory is filled in.
	Storage *icommon.StorageConfig

	// LogLevel sets the captured server log level. Defaults to "info".
	LogLevel string
}

// Env is an isolated in-process test environment: a full chitty app (storage,
// services, MCP server) behind an httptest HTTP server running the real
// middleware chain. Server logs are captured and written to ResultsDir on
// cleanup.
type Env struct {
	t          *testing.T
	app        *app.App
	httpServer *httptest.Server
	logBuf     *logBuffer
	ResultsDir string
}

// logBuffer is a goroutine-safe log sink. Handlers log from request
// goroutines, so plain bytes.Buffer would race.
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// NewEnv creates a new isolated test environment with default options.
func NewEnv(t *testing.T) *Env {
	return NewEnvWithOptions(t, EnvOptions{})
}

// NewEnvWithOptions creates a new isolated test environment with custom options.
func NewEnvWithOptions(t *testing.T, opts EnvOptions) *Env {
	t.Helper()

	for k, v := range opts.ExtraEnv {
		t.Setenv(k, v)
	}

	cfg := icommon.NewDefaultConfig()
	cfg.Storage.DataPath = t.TempDir()
	if opts.Storage != nil {
		cfg.Storage = *opts.Storage
		if cfg.Storage.DataPath == "" {
			cfg.Storage.DataPath = t.TempDir()
		}
	}

	level := opts.LogLevel
	if level == "" {
		level = "info"
	}
	logBuf := &logBuffer{}
	logger := icommon.NewLoggerWithOutput(level, logBuf)

	a, err := app.NewAppWithConfig(cfg, logger)
	if err != nil {
		t.Fatalf("Failed to initialize app: %v", err)
	}

	srv := server.NewServer(a)
	httpServer := httptest.NewServer(srv.Handler())

	// Results directory with datetime prefix: {datetime}-{test-name}
	datetime := time.Now().Format("20060102-150405")
	resultsDir := filepath.Join(FindProjectRoot(), "tests", "results", datetime+"-"+sanitizeName(t.Name()))
	if err := os.MkdirAll(resultsDir, 0755); err != nil {
		httpServer.Close()
		a.Close()
		t.Fatalf("Failed to create results dir: %v", err)
	}

	return &Env{
		t:          t,
		app:        a,
		httpServer: httpServer,
		logBuf:     logBuf,
		ResultsDir: resultsDir,
	}
}

// Cleanup tears down the HTTP server and app, and saves captured logs.
func (e *Env) Cleanup() {
	if e == nil {
		return
	}

	e.collectLogs()

	if e.httpServer != nil {
		e.httpServer.Close()
	}
	if e.app != nil {
		e.app.Close()
	}
}

// App exposes the underlying app for tests that need direct access to
// storage or the MCP server.
func (e *Env) App() *app.App {
	return e.app
}

// BaseURL returns the HTTP server's base URL.
func (e *Env) BaseURL() string {
	return e.httpServer.URL
}

// HTTPGet sends a GET request to the given path.
func (e *Env) HTTPGet(path string) (*http.Response, error) {
	return e.HTTPRequest(http.MethodGet, path, nil, nil)
}

// HTTPPost sends a POST request with a JSON-encoded payload.
func (e *Env) HTTPPost(path string, payload interface{}) (*http.Response, error) {
	return e.HTTPRequest(http.MethodPost, path, payload, nil)
}

// HTTPPut sends a PUT request with a JSON-encoded payload.
func (e *Env) HTTPPut(path string, payload interface{}) (*http.Response, error) {
	return e.HTTPRequest(http.MethodPut, path, payload, nil)
}

// HTTPDelete sends a DELETE request to the given path.
func (e *Env) HTTPDelete(path string) (*http.Response, error) {
	return e.HTTPRequest(http.MethodDelete, path, nil, nil)
}

// HTTPRequest sends a request with an optional JSON payload and extra
// headers. A nil payload sends an empty body.
func (e *Env) HTTPRequest(method, path string, payload interface{}, headers map[string]string) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.httpServer.URL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return e.httpServer.Client().Do(req)
}

// ReadLogs returns everything the server has logged so far.
func (e *Env) ReadLogs() string {
	return e.logBuf.String()
}

// SaveResult saves test output to the results directory.
func (e *Env) SaveResult(name string, data []byte) error {
	return os.WriteFile(filepath.Join(e.ResultsDir, name), data, 0644)
}

// OutputGuard returns a TestOutputGuard that uses the same results directory
// as this Env.
func (e *Env) OutputGuard() *TestOutputGuard {
	return NewTestOutputGuardWithDir(e.t, e.ResultsDir)
}

// collectLogs saves captured server logs to the results directory.
func (e *Env) collectLogs() {
	logs := e.logBuf.String()
	if logs == "" {
		return
	}
	logPath := filepath.Join(e.ResultsDir, "server.log")
	if err := os.WriteFile(logPath, []byte(logs), 0644); err != nil {
		e.t.Logf("Warning: failed to save logs: %v", err)
	}
}

// sanitizeName makes a test name safe for use as a directory name.
// Subtests produce names like "Test/subtest".
func sanitizeName(name string) string {
	return strings.NewReplacer("/", "_", " ", "_").Replace(name)
}

// FindProjectRoot walks up directories to find go.mod.
func FindProjectRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "."
		}
		dir = parent
	}
}

// TestOutputGuard validates test outputs and saves artifacts.
type TestOutputGuard struct {
	t          *testing.T
	outputs    map[string]string
	resultsDir string
}

// NewTestOutputGuard creates a new output guard with a datetime-prefixed
// results directory.
func NewTestOutputGuard(t *testing.T) *TestOutputGuard {
	datetime := time.Now().Format("20060102-150405")
	resultsDir := filepath.Join(FindProjectRoot(), "tests", "results", datetime+"-"+sanitizeName(t.Name()))
	return &TestOutputGuard{
		t:          t,
		outputs:    make(map[string]string),
		resultsDir: resultsDir,
	}
}

// NewTestOutputGuardWithDir creates a new output guard with a specific
// results directory.
func NewTestOutputGuardWithDir(t *testing.T, resultsDir string) *TestOutputGuard {
	return &TestOutputGuard{
		t:          t,
		outputs:    make(map[string]string),
		resultsDir: resultsDir,
	}
}

// ResultsDir returns the results directory path.
func (g *TestOutputGuard) ResultsDir() string {
	return g.resultsDir
}

// AssertContains checks if output contains expected text.
func (g *TestOutputGuard) AssertContains(output, expected string) {
	g.t.Helper()
	if !strings.Contains(output, expected) {
		g.t.Errorf("Expected output to contain %q, but it didn't.\nOutput: %s", expected, truncate(output, 500))
	}
}

// AssertNotContains checks if output does not contain text.
func (g *TestOutputGuard) AssertNotContains(output, unexpected string) {
	g.t.Helper()
	if strings.Contains(output, unexpected) {
		g.t.Errorf("Expected output NOT to contain %q, but it did.\nOutput: %s", unexpected, truncate(output, 500))
	}
}

// SaveResult saves output to the results directory.
func (g *TestOutputGuard) SaveResult(name, output string) error {
	g.outputs[name] = output

	if err := os.MkdirAll(g.resultsDir, 0755); err != nil {
		return err
	}

	outputPath := filepath.Join(g.resultsDir, name+".md")
	return os.WriteFile(outputPath, []byte(output), 0644)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// FormatJSON pretty-prints a JSON body for readable saved artifacts. Returns
// the input unchanged when it is not valid JSON.
func FormatJSON(data []byte) string {
	var parsed interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return string(data)
	}
	formatted, err := json.MarshalIndent(parsed, "", "  ")
	if err != nil {
		return string(data)
	}
	return string(formatted)
}
