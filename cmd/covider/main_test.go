// Package main provides tests for the COVIDer CLI.
package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/dgrafuwsp/COVIDer/internal/cli"
	"github.com/dgrafuwsp/COVIDer/internal/cli/config"
	"github.com/dgrafuwsp/COVIDer/internal/cli/output"
	clitest "github.com/dgrafuwsp/COVIDer/internal/cli/testutil"
	"github.com/dgrafuwsp/COVIDer/internal/refresh"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(config.ResetConfig)
	cmd := cli.NewRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	got, err := run(t, "version")
	if err != nil {
		t.Errorf("version command error = %v", err)
	}
	if !strings.Contains(got, "covider v") {
		t.Errorf("version output should contain 'covider v', got: %s", got)
	}
}

func TestHelpCommand(t *testing.T) {
	got, err := run(t, "--help")
	if err != nil {
		t.Errorf("help command error = %v", err)
	}

	expectedCommands := []string{"fetch", "build", "history", "show", "datasets", "init", "completion"}
	for _, expected := range expectedCommands {
		if !strings.Contains(got, expected) {
			t.Errorf("help output should contain '%s', got: %s", expected, got)
		}
	}
}

func TestCompletionCommand(t *testing.T) {
	got, err := run(t, "completion", "bash")
	if err != nil {
		t.Fatalf("completion command error = %v", err)
	}
	if !strings.Contains(got, "covider") {
		t.Errorf("bash completion should mention covider")
	}
}

func TestInvalidOutputFormat(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	cfgPath := clitest.SetupProject(t, srv.URL, output.ModeMarkdown)

	_, err := run(t, "--config", cfgPath, "-o", "yaml", "fetch")
	if err == nil || !strings.Contains(err.Error(), "output must be one of") {
		t.Errorf("expected output format error, got %v", err)
	}
}

func TestFetchFlagsOverrideConfig(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		http.Error(w, "unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()
	cfgPath := clitest.SetupProject(t, srv.URL, output.ModeMarkdown)

	out, err := run(t, "--config", cfgPath, "-o", "json", "fetch", "atl_historic_us", "--max-attempts", "3")
	if err == nil {
		t.Fatal("expected fetch to fail without a local copy")
	}

	var report refresh.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("fetch output is not JSON: %v\n%s", err, out)
	}
	if len(report.Outcomes) != 1 || report.Outcomes[0].Attempts != 3 {
		t.Errorf("expected one outcome with 3 attempts, got %+v", report.Outcomes)
	}
	if n := hits.Load(); n != 3 {
		t.Errorf("expected 3 requests, got %d", n)
	}
}
