// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/dgrafuwsp/COVIDer/internal/cli/output"
)

// projectConfig is a covider.yaml pointing every dataset at sourceURL.
const projectConfig = `data_dir: covid_data
csv_dir: csv_data
output_dir: out
state_path: .covider/state.db
output: %s
fetch:
  max_attempts: 2
  timeout: 5s
sources:
  test: %s
datasets:
  - name: nyt_us_counties
    source: test
    path: us-counties.csv
  - name: usc_counties_2019
    source: test
    path: census.csv
    encoding: latin1
  - name: atl_historic_us
    source: test
    path: us-daily.csv
  - name: atl_historic_states
    source: test
    path: states-daily.csv
criteria:
  - state: California
    county: Los Angeles
`

// SetupProject creates a temporary project whose covider.yaml fetches every
// dataset from sourceURL and renders in the given output mode. It returns
// the path of the config file.
func SetupProject(t *testing.T, sourceURL string, mode output.OutputMode) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "covider.yaml")
	body := fmt.Sprintf(projectConfig, mode, sourceURL)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("failed to write covider.yaml: %v", err)
	}
	return path
}

// SourceFiles maps the paths served by a test source to their CSV bodies.
// They match the datasets written by SetupProject.
var SourceFiles = map[string]string{
	"/us-counties.csv": "date,county,state,fips,cases,deaths\n" +
		"2020-03-01,Los Angeles,California,06037,1,0\n" +
		"2020-03-02,Los Angeles,California,06037,4,1\n",
	"/census.csv": "SUMLEV,STATE,COUNTY,STNAME,CTYNAME,POPESTIMATE2019\n" +
		"050,06,037,California,Los Angeles County,10039107\n",
	"/us-daily.csv": "date,states,positive,hospitalizedCumulative,inIcuCumulative,onVentilatorCumulative,death\n" +
		"20200301,56,10,4,,,1\n",
	"/states-daily.csv": "date,state,positive,hospitalizedCumulative,inIcuCumulative,onVentilatorCumulative,death\n" +
		"20200301,CA,7,2,1,1,1\n",
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// NewTestRendererMarkdown creates a new test renderer in markdown mode.
func NewTestRendererMarkdown() *TestRenderer {
	return NewTestRenderer(output.ModeMarkdown, false)
}

// NewTestRendererJSON creates a new test renderer in JSON mode.
func NewTestRendererJSON() *TestRenderer {
	return NewTestRenderer(output.ModeJSON, false)
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation.
// It checks for unclosed code fences and empty headers.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	if n := strings.Count(md, "```"); n%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", n)
	}

	for i, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
