// Package integration provides end-to-end tests for weft: CLI tests against
// a built binary and Go API tests against the public packages.
package integration

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

var (
	// weftBin is the path to the built weft binary.
	weftBin string
	// buildErr captures any build error.
	buildErr error
)

// BuildError wraps a build error with output.
type BuildError struct {
	Err    error
	Output string
}

func (e *BuildError) Error() string {
	return e.Err.Error() + ": " + e.Output
}

// FindProjectRoot finds the project root by walking up and looking for go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		goModPath := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(goModPath); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// SetWeftBin sets the path to the weft binary (called from TestMain).
func SetWeftBin(path string) {
	weftBin = path
}

// SetBuildErr sets the build error (called from TestMain).
func SetBuildErr(err error) {
	buildErr = err
}

// trackerYAML is the weft.yaml catalog used by the CLI tests: a small issue
// tracker with owned to-one assignment, join-table tags, and required
// comments.
const trackerYAML = `driver: sqlite

resources:
  - name: work_items
    attributes:
      - name: title
      - name: points
        type: int
      - name: done
        type: bool
    relationships:
      - name: assignee
        kind: to_one
        target: users
        foreign_key: assignee_id
        owns_key: true
        inverse: assigned_items
      - name: tags
        kind: to_many_through
        target: tags
        through: work_item_tags
        local_key: work_item_id
        target_key: tag_id
      - name: comments
        kind: to_many
        target: comments
        foreign_key: work_item_id
        required: true
        inverse: item
  - name: users
    attributes:
      - name: name
    relationships:
      - name: assigned_items
        kind: to_many
        target: work_items
        foreign_key: assignee_id
        inverse: assignee
  - name: comments
    attributes:
      - name: body
    relationships:
      - name: item
        kind: to_one
        target: work_items
        foreign_key: work_item_id
        owns_key: true
        required: true
        inverse: comments
  - name: tags
    attributes:
      - name: label
`

// TestEnv provides an isolated test environment with its own config and data
// directory.
type TestEnv struct {
	t       *testing.T
	TempDir string
	Config  string
	DataDir string
}

// NewTestEnv creates a new isolated test environment with the tracker
// catalog declared in weft.yaml.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	return newTestEnv(t, trackerYAML)
}

// NewEmptyTestEnv creates a test environment without a weft.yaml, as a fresh
// install would see it.
func NewEmptyTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	return newTestEnv(t, "")
}

func newTestEnv(t *testing.T, configYAML string) *TestEnv {
	t.Helper()

	if buildErr != nil {
		t.Fatalf("failed to build weft: %v", buildErr)
	}
	if weftBin == "" {
		t.Fatal("weft binary not built (weftBin is empty)")
	}

	tempDir := t.TempDir()
	dataDir := filepath.Join(tempDir, "data")
	configDir := filepath.Join(tempDir, "config")

	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if configYAML != "" {
		if err := os.WriteFile(filepath.Join(configDir, "weft.yaml"), []byte(configYAML), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
	}

	return &TestEnv{
		t:       t,
		TempDir: tempDir,
		Config:  configDir,
		DataDir: dataDir,
	}
}

// CmdResult holds the result of a weft command execution.
type CmdResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// RunWeft executes the weft CLI with the given arguments.
func (e *TestEnv) RunWeft(args ...string) CmdResult {
	e.t.Helper()

	allArgs := append([]string{"--config-dir", e.Config, "--data-dir", e.DataDir}, args...)
	cmd := exec.Command(weftBin, allArgs...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			e.t.Fatalf("failed to run weft: %v", err)
		}
	}

	return CmdResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
	}
}

// MustRunWeft executes the weft CLI and fails the test if it returns
// non-zero.
func (e *TestEnv) MustRunWeft(args ...string) CmdResult {
	e.t.Helper()
	result := e.RunWeft(args...)
	if result.ExitCode != 0 {
		e.t.Fatalf("weft %v failed with exit code %d:\nstdout: %s\nstderr: %s",
			args, result.ExitCode, result.Stdout, result.Stderr)
	}
	return result
}

// ParseJSON parses JSON output into the target type.
func ParseJSON[T any](t *testing.T, jsonStr string) T {
	t.Helper()
	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		t.Fatalf("failed to parse JSON %q: %v", jsonStr, err)
	}
	return result
}

// ResourceDoc is the JSON shape the CLI emits for one resource.
type ResourceDoc struct {
	Type       string         `json:"type"`
	ID         string         `json:"id"`
	Attributes map[string]any `json:"attributes"`
}

// CreatedDoc is the JSON shape the CLI emits after a create.
type CreatedDoc struct {
	ID string `json:"id"`
}

// CountDoc is the JSON shape the CLI emits for a count.
type CountDoc struct {
	Count int `json:"count"`
}
