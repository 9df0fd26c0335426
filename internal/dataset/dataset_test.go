package dataset

import (
	"errors"
	"testing"

	"github.com/dgrafuwsp/COVIDer/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaBind(t *testing.T) {
	s := Schema{Name: "demo", Columns: []string{"b", "a"}}

	b, err := s.Bind(table.Record{"\ufeffa", " b ", "c"})
	require.NoError(t, err)
	assert.Equal(t, 0, b.Pos("a"))
	assert.Equal(t, 1, b.Pos("b"))
	assert.Equal(t, -1, b.Pos("c"), "columns outside the schema are not bound")
	assert.Equal(t, "demo", b.Schema().Name)

	assert.Equal(t, "x", b.Get(table.Record{"x", "y"}, "a"))
	assert.Equal(t, "", b.Get(table.Record{"x"}, "b"), "short record defaults to empty")
}

func TestSchemaBindMissingColumn(t *testing.T) {
	_, err := NYTCountiesSchema.Bind(table.Record{"date", "county", "state"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingColumn)

	var mce *MissingColumnError
	require.True(t, errors.As(err, &mce))
	assert.Equal(t, "fips", mce.Column)
	assert.Contains(t, err.Error(), "nyt_us_counties")
}

func TestSchemaBindNoHeader(t *testing.T) {
	_, err := CensusCountiesSchema.Bind(nil)
	assert.Error(t, err)
}

func TestCountiesReordered(t *testing.T) {
	c, err := BindCounties(table.Record{"state", "county", "date", "deaths", "cases", "fips"})
	require.NoError(t, err)

	assert.Equal(t, table.Fields{Category: 0, Subcategory: 1}, c.Fields())
	assert.Equal(t, CountyObservation{
		Date: "2020-03-01", County: "Dane", State: "Wisconsin", FIPS: "55025", Cases: "7", Deaths: "1",
	}, c.Decode(table.Record{"Wisconsin", "Dane", "2020-03-01", "1", "7", "55025"}))
}

func TestCensusCounties(t *testing.T) {
	c, err := BindCensusCounties(table.Record{"SUMLEV", "STNAME", "CTYNAME", "POPESTIMATE2019"})
	require.NoError(t, err)

	r := table.Record{"050", "California", "Los Angeles County", "10039107"}
	state, county := c.Key(r)
	assert.Equal(t, "California", state)
	assert.Equal(t, "Los Angeles", county)
	assert.Equal(t, CensusCounty{State: "California", County: "Los Angeles", Population: "10039107"}, c.Decode(r))
}

func TestCountyName(t *testing.T) {
	assert.Equal(t, "Dane", CountyName("Dane County"))
	assert.Equal(t, "Wisconsin", CountyName("Wisconsin"))
	assert.Equal(t, "Anchorage Municipality", CountyName("Anchorage Municipality"))
}

func TestStatesAndNational(t *testing.T) {
	states, err := BindStates(table.Record{
		"date", "state", "positive", "negative", "hospitalizedCumulative",
		"inIcuCumulative", "onVentilatorCumulative", "death",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, states.DatePos())
	assert.Equal(t, 1, states.StatePos())

	sd := states.Decode(table.Record{"20200301", "WI", "5", "100", "2", "1", "0", "1"})
	assert.Equal(t, "WI", sd.State)
	assert.Equal(t, map[string]string{
		"positives": "5", "hospitalized": "2", "icu": "1", "ventilator": "0", "deaths": "1",
	}, sd.Map())

	national, err := BindNational(table.Record{
		"date", "states", "positive", "hospitalizedCumulative",
		"inIcuCumulative", "onVentilatorCumulative", "death",
	})
	require.NoError(t, err)
	nd := national.Decode(table.Record{"20200301", "56", "90", "", "", "", "3"})
	assert.Equal(t, "20200301", nd.Date)
	assert.Equal(t, "90", nd.Positive)
	assert.Equal(t, "", nd.ICU)
	assert.Equal(t, "3", nd.Deaths)
}

func TestCanonicalDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "2020-03-01", want: "2020-03-01"},
		{in: "20200301", want: "2020-03-01"},
		{in: "2020-3-1", want: "2020-03-01"},
		{in: "3/1/2020", want: "2020-03-01"},
		{in: " 2020-12-31 ", want: "2020-12-31"},
		{in: "date", wantErr: true},
		{in: "", wantErr: true},
		{in: "2020-13-01", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := CanonicalDate(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
