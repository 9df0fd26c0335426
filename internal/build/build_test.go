package build

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgrafuwsp/COVIDer/internal/dataset"
	"github.com/dgrafuwsp/COVIDer/internal/state"
	"github.com/dgrafuwsp/COVIDer/internal/table"
	"github.com/dgrafuwsp/COVIDer/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInputs(t *testing.T, dir string) {
	t.Helper()
	testutil.WriteFile(t, dir, "nyt_us_counties.txt",
		"date\tcounty\tstate\tfips\tcases\tdeaths",
		"2020-03-01\tLos Angeles\tCalifornia\t06037\t1\t0",
		"2020-03-01\tDane\tWisconsin\t55025\t3\t0",
		"2020-03-02\tLos Angeles\tCalifornia\t06037\t4\t1",
	)
	testutil.WriteFile(t, dir, "usc_counties_2019.txt",
		"SUMLEV\tSTATE\tCOUNTY\tSTNAME\tCTYNAME\tPOPESTIMATE2019",
		"050\t06\t037\tCalifornia\tLos Angeles County\t10039107",
		"050\t55\t025\tWisconsin\tDane County\t546695",
	)
	testutil.WriteFile(t, dir, "atl_historic_us.txt",
		"date\tstates\tpositive\thospitalizedCumulative\tinIcuCumulative\tonVentilatorCumulative\tdeath",
		"20200301\t56\t10\t4\t\t\t1",
	)
	testutil.WriteFile(t, dir, "atl_historic_states.txt",
		"date\tstate\tpositive\thospitalizedCumulative\tinIcuCumulative\tonVentilatorCumulative\tdeath",
		"20200301\tCA\t7\t2\t1\t1\t1",
		"20200301\tNY\t9\t9\t9\t9\t9",
	)
}

func newRunner(t *testing.T, store state.Store) (*Runner, string, string) {
	t.Helper()
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "covid_data")
	outDir := filepath.Join(dir, "out")
	r := New(Config{
		DataDir:   dataDir,
		OutputDir: outDir,
		Criteria:  []table.Criterion{{Category: "California", Subcategory: "Los Angeles"}},
	}, store, testutil.NewTestLogger(t))
	return r, dataDir, outDir
}

func TestRun(t *testing.T) {
	r, dataDir, outDir := newRunner(t, nil)
	writeInputs(t, dataDir)

	report, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Outputs, 3)
	assert.Equal(t, CountyCasesFile, report.Outputs[0].Name)
	assert.Equal(t, 10, report.Outputs[0].Lines)

	assert.Equal(t,
		"CASES\tCalifornia\ndate\tLos Angeles\n2020-03-01\t1\n2020-03-02\t4\n\n"+
			"DEATHS\tCalifornia\ndate\tLos Angeles\n2020-03-01\t0\n2020-03-02\t1\n\n",
		testutil.ReadFile(t, filepath.Join(outDir, CountyCasesFile)))

	assert.Equal(t,
		"state\tcounty\tpopulation\nCalifornia\tLos Angeles\t10039107\n",
		testutil.ReadFile(t, filepath.Join(outDir, CountyPopulationFile)))

	metrics := strings.Split(testutil.ReadFile(t, filepath.Join(outDir, StateMetricsFile)), "\n")
	require.Len(t, metrics, 4)
	assert.Equal(t, "\tUSA\tUSA\tUSA\tUSA\tUSA\t\tCalifornia\tCalifornia\tCalifornia\tCalifornia\tCalifornia\t", metrics[0])
	assert.Equal(t, "2020-03-01\t10\t4\t\t\t1\t\t7\t2\t1\t1\t1\t", metrics[2])
	assert.NotContains(t, metrics[0], "New York")
}

func TestRunMissingInput(t *testing.T) {
	r, dataDir, _ := newRunner(t, nil)
	testutil.WriteFile(t, dataDir, "nyt_us_counties.txt", "date\tcounty\tstate\tfips\tcases\tdeaths")

	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input usc_counties_2019")
}

func TestRunMalformedInput(t *testing.T) {
	r, dataDir, _ := newRunner(t, nil)
	writeInputs(t, dataDir)
	testutil.WriteFile(t, dataDir, "usc_counties_2019.txt", "STNAME\tCTYNAME", "Wisconsin\tDane County")

	_, err := r.Run(context.Background())
	assert.ErrorIs(t, err, dataset.ErrMissingColumn)
}

func TestRunRecordsState(t *testing.T) {
	store := state.NewSQLiteStore(nil)
	require.NoError(t, store.Open(state.MemoryPath))
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate())
	ctx := context.Background()

	r, dataDir, _ := newRunner(t, store)

	_, err := r.Run(ctx)
	require.Error(t, err)

	writeInputs(t, dataDir)
	report, err := r.Run(ctx)
	require.NoError(t, err)

	run, err := store.GetRun(ctx, report.RunID)
	require.NoError(t, err)
	assert.Equal(t, "build", run.Command)
	assert.Equal(t, state.RunStatusCompleted, run.Status)
}

func TestIsInput(t *testing.T) {
	assert.True(t, isInput("/data/nyt_us_counties.txt"))
	assert.True(t, isInput("atl_historic_states.txt"))
	assert.False(t, isInput("/data/nyt_us_counties.csv"))
	assert.False(t, isInput("/data/.nyt_us_counties.txt.12345"))
	assert.False(t, isInput("/data/county_cases_and_deaths.txt"))
}

func TestWatchRebuildsOnInputChange(t *testing.T) {
	r, dataDir, outDir := newRunner(t, nil)
	writeInputs(t, dataDir)

	ctx, cancel := context.WithCancel(context.Background())
	builds := make(chan *Report, 16)
	done := make(chan error, 1)
	go func() {
		done <- r.Watch(ctx, dataDir, func(rep *Report, err error) {
			if err == nil {
				builds <- rep
			}
		})
	}()

	require.Eventually(t, func() bool {
		writeInputs(t, dataDir)
		select {
		case rep := <-builds:
			return len(rep.Outputs) == 3
		default:
			return false
		}
	}, 10*time.Second, 400*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}

	assert.FileExists(t, filepath.Join(outDir, StateMetricsFile))
}

func TestWatchMissingDir(t *testing.T) {
	r, _, _ := newRunner(t, nil)
	err := r.Watch(context.Background(), filepath.Join(t.TempDir(), "nope"), nil)
	assert.Error(t, err)
}
