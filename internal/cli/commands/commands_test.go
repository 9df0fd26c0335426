package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgrafuwsp/COVIDer/internal/build"
	"github.com/dgrafuwsp/COVIDer/internal/cli/config"
	"github.com/dgrafuwsp/COVIDer/internal/cli/output"
	clitest "github.com/dgrafuwsp/COVIDer/internal/cli/testutil"
	"github.com/dgrafuwsp/COVIDer/internal/refresh"
	"github.com/dgrafuwsp/COVIDer/internal/state"
	"github.com/dgrafuwsp/COVIDer/internal/testutil"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewFetchCommand(), "fetch [dataset...]", []string{"max-attempts", "timeout", "user-agent"}},
		{NewBuildCommand(), "build", []string{"watch"}},
		{NewHistoryCommand(), "history [dataset]", []string{"limit"}},
		{NewShowCommand(), "show <file|dataset>", []string{"rows"}},
		{NewDatasetsCommand(), "datasets", nil},
		{NewInitCommand(), "init [directory]", []string{"force"}},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			assert.NotEmpty(t, tt.cmd.Long, "Long should not be empty")
			for _, flag := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}
}

// sourceServer serves clitest.SourceFiles, failing every path in down.
func sourceServer(t *testing.T, down ...string) *httptest.Server {
	t.Helper()
	failing := map[string]bool{}
	for _, p := range down {
		failing[p] = true
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := clitest.SourceFiles[r.URL.Path]
		if !ok || failing[r.URL.Path] {
			http.Error(w, "unavailable", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// execute loads cfgPath and runs cmd with args, returning stdout.
func execute(t *testing.T, cfgPath string, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
	_, err := config.LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	ctx := context.WithValue(context.Background(), config.LoggerKey(), testutil.NewTestLogger(t))
	err = cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestFetchCommand(t *testing.T) {
	srv := sourceServer(t)
	cfgPath := clitest.SetupProject(t, srv.URL, output.ModeMarkdown)
	root := filepath.Dir(cfgPath)

	out, err := execute(t, cfgPath, NewFetchCommand())
	require.NoError(t, err)

	assert.Contains(t, out, "# Fetch")
	assert.Contains(t, out, "- **nyt_us_counties**: updated (3 lines, 1 attempts)")
	assert.Contains(t, out, "4 updated, 0 local, 0 failed")
	clitest.AssertNoANSI(t, out)
	clitest.AssertValidMarkdown(t, out)

	assert.Equal(t,
		"date\tcounty\tstate\tfips\tcases\tdeaths\n"+
			"2020-03-01\tLos Angeles\tCalifornia\t06037\t1\t0\n"+
			"2020-03-02\tLos Angeles\tCalifornia\t06037\t4\t1\n",
		testutil.ReadFile(t, filepath.Join(root, "covid_data", "nyt_us_counties.txt")))
	assert.FileExists(t, filepath.Join(root, "csv_data", "nyt_us_counties.csv"))
	assert.FileExists(t, filepath.Join(root, ".covider", "state.db"))
}

func TestFetchCommand_SelectedDatasets(t *testing.T) {
	srv := sourceServer(t)
	cfgPath := clitest.SetupProject(t, srv.URL, output.ModeJSON)

	out, err := execute(t, cfgPath, NewFetchCommand(), "atl_historic_us")
	require.NoError(t, err)

	var report refresh.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, "atl_historic_us", report.Outcomes[0].Dataset)
	assert.Equal(t, refresh.StatusUpdated, report.Outcomes[0].Status)
	assert.NotEmpty(t, report.RunID)
}

func TestFetchCommand_UnknownDataset(t *testing.T) {
	srv := sourceServer(t)
	cfgPath := clitest.SetupProject(t, srv.URL, output.ModeMarkdown)

	_, err := execute(t, cfgPath, NewFetchCommand(), "nyt_mask_use")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown dataset "nyt_mask_use"`)
	assert.Contains(t, err.Error(), "atl_historic_states")
}

func TestFetchCommand_FailedDataset(t *testing.T) {
	srv := sourceServer(t, "/census.csv")
	cfgPath := clitest.SetupProject(t, srv.URL, output.ModeMarkdown)

	out, err := execute(t, cfgPath, NewFetchCommand())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 4 datasets failed")
	assert.Contains(t, out, "- **usc_counties_2019**: failed (2 attempts")
	assert.Contains(t, out, "3 updated, 0 local, 1 failed")
}

func TestFetchCommand_LocalFallback(t *testing.T) {
	srv := sourceServer(t, "/us-daily.csv")
	cfgPath := clitest.SetupProject(t, srv.URL, output.ModeMarkdown)
	root := filepath.Dir(cfgPath)
	testutil.WriteFile(t, filepath.Join(root, "csv_data"), "atl_historic_us.csv",
		"date,states,positive", "20200301,56,10")

	out, err := execute(t, cfgPath, NewFetchCommand(), "atl_historic_us")
	require.NoError(t, err)
	assert.Contains(t, out, "- **atl_historic_us**: local")
	assert.Equal(t, "date\tstates\tpositive\n20200301\t56\t10\n",
		testutil.ReadFile(t, filepath.Join(root, "covid_data", "atl_historic_us.txt")))
}

func TestBuildCommand(t *testing.T) {
	srv := sourceServer(t)
	cfgPath := clitest.SetupProject(t, srv.URL, output.ModeMarkdown)
	root := filepath.Dir(cfgPath)

	_, err := execute(t, cfgPath, NewFetchCommand())
	require.NoError(t, err)

	out, err := execute(t, cfgPath, NewBuildCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "# Build")
	assert.Contains(t, out, "- **"+build.CountyCasesFile+"**: success (10 lines)")

	assert.Equal(t,
		"state\tcounty\tpopulation\nCalifornia\tLos Angeles\t10039107\n",
		testutil.ReadFile(t, filepath.Join(root, "out", build.CountyPopulationFile)))
	assert.FileExists(t, filepath.Join(root, "out", build.StateMetricsFile))
}

func TestBuildCommand_MissingDataDir(t *testing.T) {
	srv := sourceServer(t)
	cfgPath := clitest.SetupProject(t, srv.URL, output.ModeMarkdown)

	_, err := execute(t, cfgPath, NewBuildCommand())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "covider fetch")
}

func TestHistoryCommand(t *testing.T) {
	srv := sourceServer(t)
	cfgPath := clitest.SetupProject(t, srv.URL, output.ModeMarkdown)

	out, err := execute(t, cfgPath, NewHistoryCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "No fetches recorded yet")

	_, err = execute(t, cfgPath, NewFetchCommand())
	require.NoError(t, err)
	_, err = execute(t, cfgPath, NewFetchCommand(), "nyt_us_counties")
	require.NoError(t, err)

	body := strings.Replace(testutil.ReadFile(t, cfgPath), "output: markdown", "output: json", 1)
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o600))

	out, err = execute(t, cfgPath, NewHistoryCommand(), "nyt_us_counties")
	require.NoError(t, err)

	var fetches []*state.Fetch
	require.NoError(t, json.Unmarshal([]byte(out), &fetches))
	require.Len(t, fetches, 2)
	for _, f := range fetches {
		assert.Equal(t, "nyt_us_counties", f.Dataset)
		assert.Equal(t, "updated", f.Status)
	}

	out, err = execute(t, cfgPath, NewHistoryCommand(), "--limit", "1")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &fetches))
	assert.Len(t, fetches, 1)
}

func TestShowCommand(t *testing.T) {
	srv := sourceServer(t)
	cfgPath := clitest.SetupProject(t, srv.URL, output.ModeMarkdown)
	_, err := execute(t, cfgPath, NewFetchCommand())
	require.NoError(t, err)

	out, err := execute(t, cfgPath, NewShowCommand(), "nyt_us_counties", "--rows", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "# nyt_us_counties.txt")
	assert.Contains(t, out, "| date | county | state | fips | cases | deaths |")
	assert.Contains(t, out, "| 2020-03-01 | Los Angeles |")
	assert.NotContains(t, out, "2020-03-02")
	assert.Contains(t, out, "1 of 2 rows")

	_, err = execute(t, cfgPath, NewShowCommand(), "no_such_table")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDatasetsCommand(t *testing.T) {
	srv := sourceServer(t)
	cfgPath := clitest.SetupProject(t, srv.URL, output.ModeJSON)

	_, err := execute(t, cfgPath, NewFetchCommand(), "nyt_us_counties")
	require.NoError(t, err)

	out, err := execute(t, cfgPath, NewDatasetsCommand())
	require.NoError(t, err)

	var infos []DatasetInfo
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	require.Len(t, infos, 4)
	assert.Equal(t, "nyt_us_counties", infos[0].Name)
	assert.Equal(t, srv.URL+"/us-counties.csv", infos[0].URL)
	assert.Equal(t, "updated", infos[0].LastStatus)
	assert.NotEmpty(t, infos[0].LastFetched)
	assert.Equal(t, "latin1", infos[1].Encoding)
	assert.Empty(t, infos[1].LastStatus)
}

func TestInitCommand(t *testing.T) {
	tests := []struct {
		name     string
		existing bool
		args     []string
		wantErr  bool
	}{
		{name: "init empty directory"},
		{name: "init existing config without force", existing: true, wantErr: true},
		{name: "init existing config with force", existing: true, args: []string{"--force"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "covider.yaml")
			if tt.existing {
				require.NoError(t, os.WriteFile(path, []byte("existing"), 0o600))
			}

			cmd := NewInitCommand()
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)
			cmd.SetArgs(append([]string{dir}, tt.args...))

			err := cmd.Execute()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "--force")
				return
			}
			require.NoError(t, err)

			config.ResetConfig()
			t.Cleanup(config.ResetConfig)
			cfg, err := config.LoadConfig(path, nil)
			require.NoError(t, err)
			require.NoError(t, cfg.Validate())
			assert.Equal(t, filepath.Join(dir, config.DefaultDataDir), cfg.DataDir)
			assert.Equal(t, config.Default().Fetch, cfg.Fetch)
			assert.Equal(t, config.DefaultDatasets(), cfg.Datasets)
			assert.Equal(t, config.DefaultCriteria(), cfg.Criteria)
		})
	}
}

func TestRenderBuild(t *testing.T) {
	report := &build.Report{
		RunID: "run-1",
		Outputs: []build.Output{
			{Name: build.CountyCasesFile, Path: "/tmp/" + build.CountyCasesFile, Lines: 10},
		},
	}

	md := clitest.NewTestRendererMarkdown()
	require.NoError(t, renderBuild(md.Renderer, report))
	assert.Contains(t, md.Output(), "- **county_cases_and_deaths.txt**: success (10 lines)")
	assert.Empty(t, md.ErrorOutput())
	clitest.AssertNoANSI(t, md.Output())

	js := clitest.NewTestRendererJSON()
	require.NoError(t, renderBuild(js.Renderer, report))
	var decoded build.Report
	require.NoError(t, json.Unmarshal(js.Out.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.Equal(t, 10, decoded.Outputs[0].Lines)
}

func TestOutcomeDetail(t *testing.T) {
	tests := []struct {
		name    string
		outcome refresh.Outcome
		want    string
	}{
		{"updated", refresh.Outcome{Status: refresh.StatusUpdated, Lines: 3, Attempts: 1}, "3 lines, 1 attempts"},
		{"local", refresh.Outcome{Status: refresh.StatusLocal, Lines: 2, Attempts: 10, Error: "status 502"}, "2 lines, 10 attempts, status 502"},
		{"failed", refresh.Outcome{Status: refresh.StatusFailed, Attempts: 10, Error: "no local copy"}, "10 attempts, no local copy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, outcomeDetail(&tt.outcome))
		})
	}
}
