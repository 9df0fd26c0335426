// Package summary builds the three COVIDer summary tables from the
// tab-delimited source datasets.
package summary

import (
	"log/slog"

	"github.com/dgrafuwsp/COVIDer/internal/dataset"
	"github.com/dgrafuwsp/COVIDer/internal/pivot"
	"github.com/dgrafuwsp/COVIDer/internal/table"
	"github.com/dgrafuwsp/COVIDer/internal/usstate"
)

// Missing-value defaults. Case and death counts read as zero when a county
// has no row for a date; COVID Tracking metrics stay blank.
const (
	CountDefault  = "0"
	MetricDefault = ""
)

// National is the column group for the country-wide COVID Tracking series.
var National = pivot.Entity{Category: "USA"}

// PopulationHeader is the first line of the population table.
const PopulationHeader = "state\tcounty\tpopulation"

// Builder renders summary tables. Rows whose date cannot be read are skipped
// and reported through the logger.
type Builder struct {
	logger *slog.Logger
}

// NewBuilder creates a Builder. A nil logger discards log output.
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Builder{logger: logger}
}

// StateCriteria keeps only the state of each county criterion, in order.
func StateCriteria(counties []table.Criterion) []table.Criterion {
	states := make([]table.Criterion, len(counties))
	for i, c := range counties {
		states[i] = table.Criterion{Category: c.Category}
	}
	return states
}

// CountyCasesAndDeaths renders the NY Times county series as a CASES block
// and a DEATHS block, one column per (state, county), each block followed by
// an empty line.
func (b *Builder) CountyCasesAndDeaths(ds *table.Dataset, criteria []table.Criterion) ([]string, error) {
	counties, err := dataset.BindCounties(ds.Header)
	if err != nil {
		return nil, err
	}

	rows := table.Filter(ds.Rows, criteria, counties.Fields())
	obs := make([]pivot.Observation, 0, len(rows))
	skipped := 0
	for _, r := range rows {
		c := counties.Decode(r)
		date, err := dataset.CanonicalDate(c.Date)
		if err != nil {
			skipped++
			continue
		}
		obs = append(obs, pivot.Observation{
			Date:    date,
			Entity:  pivot.Entity{Category: c.State, Subcategory: c.County},
			Metrics: map[string]string{"cases": c.Cases, "deaths": c.Deaths},
		})
	}
	b.reportSkipped(dataset.NYTCountiesSchema.Name, skipped)

	grid := pivot.Build(obs, pivot.Options{
		Metrics: []string{"cases", "deaths"},
		Default: CountDefault,
	})

	var lines []string
	lines = append(lines, joinRows(grid.MetricBlock("CASES", "cases"))...)
	lines = append(lines, "")
	lines = append(lines, joinRows(grid.MetricBlock("DEATHS", "deaths"))...)
	lines = append(lines, "")
	return lines, nil
}

// CountyPopulation lists the 2019 population estimate of every Census row
// matched by criteria. A row matched by two criteria is listed twice.
func (b *Builder) CountyPopulation(ds *table.Dataset, criteria []table.Criterion) ([]string, error) {
	census, err := dataset.BindCensusCounties(ds.Header)
	if err != nil {
		return nil, err
	}

	rows := table.FilterFunc(ds.Rows, criteria, census.Key)
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, PopulationHeader)
	for _, r := range rows {
		c := census.Decode(r)
		lines = append(lines, table.Record{c.State, c.County, c.Population}.Join(table.Tab))
	}
	return lines, nil
}

// StateMetrics renders the COVID Tracking national series followed by one
// column group per selected state. State postal codes are expanded to full
// names before filtering, so criteria use names such as "Wisconsin".
func (b *Builder) StateMetrics(national, states *table.Dataset, criteria []table.Criterion) ([]string, error) {
	nat, err := dataset.BindNational(national.Header)
	if err != nil {
		return nil, err
	}
	st, err := dataset.BindStates(states.Header)
	if err != nil {
		return nil, err
	}

	statePos := st.StatePos()
	named := make([]table.Record, len(states.Rows))
	for i, r := range states.Rows {
		n := append(table.Record(nil), r...)
		if statePos < len(n) {
			n[statePos] = usstate.Name(n[statePos])
			if usstate.IsUnknown(n[statePos]) {
				b.logger.Debug("unknown state code", slog.String("value", n[statePos]))
			}
		}
		named[i] = n
	}
	selected := table.Filter(named, criteria, table.Fields{Category: statePos, Subcategory: -1})

	obs := make([]pivot.Observation, 0, len(national.Rows)+len(selected))
	skipped := 0
	for _, r := range national.Rows {
		d := nat.Decode(r)
		date, err := dataset.CanonicalDate(d.Date)
		if err != nil {
			skipped++
			continue
		}
		obs = append(obs, pivot.Observation{Date: date, Entity: National, Metrics: d.Map()})
	}
	b.reportSkipped(dataset.TrackingNationalSchema.Name, skipped)

	skipped = 0
	for _, r := range selected {
		d := st.Decode(r)
		date, err := dataset.CanonicalDate(d.Date)
		if err != nil {
			skipped++
			continue
		}
		obs = append(obs, pivot.Observation{
			Date:    date,
			Entity:  pivot.Entity{Category: d.State},
			Metrics: d.Map(),
		})
	}
	b.reportSkipped(dataset.TrackingStatesSchema.Name, skipped)

	grid := pivot.Build(obs, pivot.Options{
		Metrics: dataset.DailyMetricNames,
		Default: MetricDefault,
		Leading: []pivot.Entity{National},
	})
	return joinRows(grid.GroupedRows("")), nil
}

func (b *Builder) reportSkipped(source string, n int) {
	if n == 0 {
		return
	}
	b.logger.Warn("skipped rows with unreadable dates",
		slog.String("dataset", source),
		slog.Int("rows", n))
}

func joinRows(rows [][]string) []string {
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = table.Record(r).Join(table.Tab)
	}
	return lines
}
