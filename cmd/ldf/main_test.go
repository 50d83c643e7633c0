package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureSpecs = "../../internal/lint/testdata/specs"

// newProject copies the named fixture specs into <tmp>/.ldf/specs and returns
// the project root.
func newProject(t *testing.T, specs ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, name := range specs {
		dst := filepath.Join(root, ".ldf", "specs", name)
		require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0o755))
		require.NoError(t, os.CopyFS(dst, os.DirFS(filepath.Join(fixtureSpecs, name))))
	}
	return root
}

// execute runs the CLI against root and returns stdout, stderr and the
// process exit code.
func execute(t *testing.T, root string, args ...string) (string, string, int) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(append([]string{"--project-root", root}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), exitCode(err)
}

func TestLint_CleanSpecPasses(t *testing.T) {
	root := newProject(t, "user-login")

	out, _, code := execute(t, root, "lint", "--strict")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "user-login")
	assert.Contains(t, out, "PASSED")
}

func TestLint_FailingSpecExitsOne(t *testing.T) {
	root := newProject(t, "user-login", "checkout")

	out, _, code := execute(t, root, "lint", "--format", "ci")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "✅ Pass: user-login")
	assert.Contains(t, out, "LINT SUMMARY")
	assert.Contains(t, out, "❌ checkout:")
}

func TestLint_NamedSpec(t *testing.T) {
	root := newProject(t, "user-login", "checkout")

	out, _, code := execute(t, root, "lint", "user-login", "--format", "json")
	assert.Equal(t, 0, code)

	var decoded struct {
		Findings   []map[string]any `json:"findings"`
		ErrorCount int              `json:"errorCount"`
		Passed     bool             `json:"passed"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.True(t, decoded.Passed)
	assert.Zero(t, decoded.ErrorCount)
}

func TestLint_IgnoreSpec(t *testing.T) {
	root := newProject(t, "user-login", "checkout")

	_, _, code := execute(t, root, "lint", "--ignore", "checkout")
	assert.Equal(t, 0, code)
}

func TestLint_InvalidInvocation(t *testing.T) {
	root := newProject(t, "user-login")

	tests := []struct {
		name string
		args []string
	}{
		{"unknown format", []string{"lint", "--format", "xml"}},
		{"unknown rule", []string{"lint", "--only", "spelling"}},
		{"invalid spec name", []string{"lint", "User Login"}},
		{"all with names", []string{"lint", "--all", "user-login"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, code := execute(t, root, tt.args...)
			assert.Equal(t, 2, code)
		})
	}
}

func TestLint_StrayDirectoryIsReported(t *testing.T) {
	root := newProject(t, "user-login")
	stray := filepath.Join(root, ".ldf", "specs", "Old_Drafts")
	require.NoError(t, os.CopyFS(stray, os.DirFS(filepath.Join(fixtureSpecs, "user-login"))))

	out, _, code := execute(t, root, "lint", "--format", "json")
	assert.Equal(t, 1, code)

	var decoded struct {
		Findings []struct {
			Spec string `json:"spec"`
			Kind string `json:"kind"`
		} `json:"findings"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded.Findings, 1)
	assert.Equal(t, "Old_Drafts", decoded.Findings[0].Spec)
	assert.Equal(t, "invalid_spec_name", decoded.Findings[0].Kind)
}

func TestLint_MissingSpec(t *testing.T) {
	root := newProject(t, "user-login")

	_, _, code := execute(t, root, "lint", "payments")
	assert.Equal(t, 1, code)
}

func TestLint_EmptyProject(t *testing.T) {
	_, errOut, code := execute(t, t.TempDir(), "lint")
	assert.Equal(t, 0, code)
	assert.Contains(t, errOut, "No specs found")
}

func TestStatus_JSON(t *testing.T) {
	root := newProject(t, "user-login", "checkout")

	out, _, code := execute(t, root, "status", "--json")
	require.Equal(t, 0, code)

	var decoded []struct {
		Name  string `json:"name"`
		Stage string `json:"stage"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "checkout", decoded[0].Name)
	assert.Equal(t, "requirements_draft", decoded[1].Stage)
}

func TestStatus_Text(t *testing.T) {
	root := newProject(t, "user-login")

	out, _, code := execute(t, root, "status", "user-login")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Spec: user-login")
	assert.Contains(t, out, "requirements.md")
	assert.Contains(t, out, "Tasks: 1/2 complete")
}

func TestTasks(t *testing.T) {
	root := newProject(t, "user-login", "checkout")

	out, _, code := execute(t, root, "tasks", "user-login")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Phase 1: Backend")
	assert.Contains(t, out, "1.2 Login endpoint")
	assert.Contains(t, out, "1/2 complete")

	out, _, code = execute(t, root, "tasks", "user-login", "--ready")
	require.Equal(t, 0, code)
	assert.NotContains(t, out, "Credential check")
	assert.Contains(t, out, "Login endpoint")

	out, _, code = execute(t, root, "tasks", "user-login", "--format", "mermaid")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "graph TD\n")
	assert.Contains(t, out, "N0 --> N1")

	_, _, code = execute(t, root, "tasks", "user-login", "--format", "dot")
	assert.Equal(t, 2, code)
}

func TestDeps(t *testing.T) {
	root := newProject(t, "user-login")

	out, _, code := execute(t, root, "deps", "user-login", "1.2")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Login endpoint")
	assert.Contains(t, out, "1.2 -> 1.1")

	out, _, code = execute(t, root, "deps", "user-login", "1.1", "--direction", "downstream")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Needed by:")
	assert.Contains(t, out, "Affected by a change: 1.2")

	_, _, code = execute(t, root, "deps", "user-login", "4.4")
	assert.Equal(t, 1, code)

	_, _, code = execute(t, root, "deps", "user-login", "1.1", "--direction", "sideways")
	assert.Equal(t, 2, code)
}

func TestCoverage(t *testing.T) {
	root := newProject(t, "checkout")

	out, _, code := execute(t, root, "coverage", "checkout")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "0 covered, 0 not applicable, 8 not covered")
}

func TestGuardrails(t *testing.T) {
	out, _, code := execute(t, t.TempDir(), "guardrails")
	require.Equal(t, 0, code)
	assert.Contains(t, out, " 1. ")
	assert.Contains(t, out, " 8. ")
}

func TestExport(t *testing.T) {
	root := newProject(t, "user-login")

	out, _, code := execute(t, root, "export", "user-login")
	require.Equal(t, 0, code)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "user-login", decoded["name"])
	assert.Len(t, decoded["tasks"], 2)
}

func TestVersion(t *testing.T) {
	out, _, code := execute(t, t.TempDir(), "version")
	assert.Equal(t, 0, code)
	assert.Equal(t, "ldf dev\n", out)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
	assert.Equal(t, 1, exitCode(&exitError{code: 1}))
	assert.Equal(t, 2, exitCode(usageError("bad flag %s", "--x")))
}

func TestWatchSpecs_RerunsOnChange(t *testing.T) {
	root := newProject(t, "user-login")
	specsDir := filepath.Join(root, ".ldf", "specs")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	started := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- watchSpecs(ctx, specsDir, newApp(nil, nil).logger, func() {
			runs.Add(1)
			started <- struct{}{}
		})
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("initial run did not happen")
	}

	path := filepath.Join(specsDir, "user-login", "tasks.md")
	require.NoError(t, os.WriteFile(path, []byte("# Tasks\n"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("# Tasks\n\n### Task 1.1: A\n"), 0o644))

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("change did not trigger a re-run")
	}
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, int32(2), runs.Load(), "a burst of writes triggers one run")
}
