package dataset

import (
	"strings"

	"github.com/dgrafuwsp/COVIDer/internal/table"
)

// Schemas of the sources the summary tables are built from.
var (
	NYTCountiesSchema = Schema{
		Name:    "nyt_us_counties",
		Columns: []string{"date", "county", "state", "fips", "cases", "deaths"},
	}
	CensusCountiesSchema = Schema{
		Name:    "usc_counties_2019",
		Columns: []string{"STNAME", "CTYNAME", "POPESTIMATE2019"},
	}
	TrackingStatesSchema = Schema{
		Name: "atl_historic_states",
		Columns: []string{
			"date", "state", "positive", "hospitalizedCumulative",
			"inIcuCumulative", "onVentilatorCumulative", "death",
		},
	}
	TrackingNationalSchema = Schema{
		Name: "atl_historic_us",
		Columns: []string{
			"date", "positive", "hospitalizedCumulative",
			"inIcuCumulative", "onVentilatorCumulative", "death",
		},
	}
)

// Schema returns the schema the binding was built from.
func (b *Binding) Schema() Schema { return b.schema }

// CountyObservation is one NY Times county row.
type CountyObservation struct {
	Date   string
	County string
	State  string
	FIPS   string
	Cases  string
	Deaths string
}

// Counties reads NY Times county rows.
type Counties struct{ b *Binding }

// BindCounties binds the NY Times county schema to header.
func BindCounties(header table.Record) (*Counties, error) {
	b, err := NYTCountiesSchema.Bind(header)
	if err != nil {
		return nil, err
	}
	return &Counties{b: b}, nil
}

// Fields returns the (state, county) filter positions.
func (c *Counties) Fields() table.Fields {
	return table.Fields{Category: c.b.Pos("state"), Subcategory: c.b.Pos("county")}
}

// Decode names the fields of r.
func (c *Counties) Decode(r table.Record) CountyObservation {
	return CountyObservation{
		Date:   c.b.Get(r, "date"),
		County: c.b.Get(r, "county"),
		State:  c.b.Get(r, "state"),
		FIPS:   c.b.Get(r, "fips"),
		Cases:  c.b.Get(r, "cases"),
		Deaths: c.b.Get(r, "deaths"),
	}
}

// CensusCounty is one Census county population estimate.
type CensusCounty struct {
	State      string
	County     string
	Population string
}

// CensusCounties reads Census county estimate rows.
type CensusCounties struct{ b *Binding }

// BindCensusCounties binds the Census estimates schema to header.
func BindCensusCounties(header table.Record) (*CensusCounties, error) {
	b, err := CensusCountiesSchema.Bind(header)
	if err != nil {
		return nil, err
	}
	return &CensusCounties{b: b}, nil
}

// CountyName strips the " County" suffix the Census uses so names join with
// the NY Times spelling.
func CountyName(name string) string {
	return strings.ReplaceAll(name, " County", "")
}

// Key returns the (state, county) pair compared against filter criteria.
func (c *CensusCounties) Key(r table.Record) (string, string) {
	return c.b.Get(r, "STNAME"), CountyName(c.b.Get(r, "CTYNAME"))
}

// Decode names the fields of r.
func (c *CensusCounties) Decode(r table.Record) CensusCounty {
	state, county := c.Key(r)
	return CensusCounty{
		State:      state,
		County:     county,
		Population: c.b.Get(r, "POPESTIMATE2019"),
	}
}

// DailyMetrics are the cumulative COVID Tracking counters reported per day.
type DailyMetrics struct {
	Positive     string
	Hospitalized string
	ICU          string
	Ventilator   string
	Deaths       string
}

// Map returns the metrics keyed by their summary-table names.
func (m DailyMetrics) Map() map[string]string {
	return map[string]string{
		"positives":    m.Positive,
		"hospitalized": m.Hospitalized,
		"icu":          m.ICU,
		"ventilator":   m.Ventilator,
		"deaths":       m.Deaths,
	}
}

// DailyMetricNames is the column order of the state summary table.
var DailyMetricNames = []string{"positives", "hospitalized", "icu", "ventilator", "deaths"}

func decodeMetrics(b *Binding, r table.Record) DailyMetrics {
	return DailyMetrics{
		Positive:     b.Get(r, "positive"),
		Hospitalized: b.Get(r, "hospitalizedCumulative"),
		ICU:          b.Get(r, "inIcuCumulative"),
		Ventilator:   b.Get(r, "onVentilatorCumulative"),
		Deaths:       b.Get(r, "death"),
	}
}

// StateDaily is one COVID Tracking state row.
type StateDaily struct {
	Date  string
	State string
	DailyMetrics
}

// States reads COVID Tracking state rows.
type States struct{ b *Binding }

// BindStates binds the COVID Tracking states schema to header.
func BindStates(header table.Record) (*States, error) {
	b, err := TrackingStatesSchema.Bind(header)
	if err != nil {
		return nil, err
	}
	return &States{b: b}, nil
}

// DatePos and StatePos are the positions of the date and postal code.
func (s *States) DatePos() int  { return s.b.Pos("date") }
func (s *States) StatePos() int { return s.b.Pos("state") }

// Decode names the fields of r.
func (s *States) Decode(r table.Record) StateDaily {
	return StateDaily{
		Date:         s.b.Get(r, "date"),
		State:        s.b.Get(r, "state"),
		DailyMetrics: decodeMetrics(s.b, r),
	}
}

// NationalDaily is one COVID Tracking national row.
type NationalDaily struct {
	Date string
	DailyMetrics
}

// National reads COVID Tracking national rows.
type National struct{ b *Binding }

// BindNational binds the COVID Tracking national schema to header.
func BindNational(header table.Record) (*National, error) {
	b, err := TrackingNationalSchema.Bind(header)
	if err != nil {
		return nil, err
	}
	return &National{b: b}, nil
}

// Decode names the fields of r.
func (n *National) Decode(r table.Record) NationalDaily {
	return NationalDaily{
		Date:         n.b.Get(r, "date"),
		DailyMetrics: decodeMetrics(n.b, r),
	}
}
