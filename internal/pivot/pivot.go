// Package pivot reshapes one-row-per-(date, entity) observations into a grid
// with one row per date and one column group per entity.
package pivot

import "sort"

// Entity is the column-group key, for example (state, county) or (state, "").
type Entity struct {
	Category    string
	Subcategory string
}

// Label is the text shown for the entity in a grouped header.
func (e Entity) Label() string {
	if e.Subcategory == "" {
		return e.Category
	}
	return e.Category + ", " + e.Subcategory
}

func (e Entity) less(o Entity) bool {
	if e.Category != o.Category {
		return e.Category < o.Category
	}
	return e.Subcategory < o.Subcategory
}

// Key joins an observation to its grid cell.
type Key struct {
	Date   string
	Entity Entity
}

// Observation is one source row after its date and entity have been
// normalised. Metrics absent from the map render as the grid default.
type Observation struct {
	Date    string
	Entity  Entity
	Metrics map[string]string
}

// Options controls how a grid is built.
type Options struct {
	// Metrics lists the metric names emitted per entity, in order.
	Metrics []string
	// Default is rendered for a (date, entity, metric) with no value.
	Default string
	// Leading entities are emitted before the sorted ones, in the given order.
	Leading []Entity
}

// Grid is a date by entity matrix of metric values.
type Grid struct {
	dates    []string
	entities []Entity
	metrics  []string
	def      string
	cells    map[Key]map[string]string
}

// Build collects the distinct dates and entities of obs, sorts them, and
// indexes the metric values by (date, entity). A later observation for the
// same key replaces the earlier one. Dates must already be canonical
// (YYYY-MM-DD) so that lexicographic order is chronological.
func Build(obs []Observation, opts Options) *Grid {
	g := &Grid{
		metrics: opts.Metrics,
		def:     opts.Default,
		cells:   make(map[Key]map[string]string, len(obs)),
	}

	leading := make(map[Entity]bool, len(opts.Leading))
	for _, e := range opts.Leading {
		leading[e] = true
	}

	dateSet := make(map[string]struct{})
	entitySet := make(map[Entity]struct{})
	for _, o := range obs {
		dateSet[o.Date] = struct{}{}
		if !leading[o.Entity] {
			entitySet[o.Entity] = struct{}{}
		}
		g.cells[Key{Date: o.Date, Entity: o.Entity}] = o.Metrics
	}

	g.dates = make([]string, 0, len(dateSet))
	for d := range dateSet {
		g.dates = append(g.dates, d)
	}
	sort.Strings(g.dates)

	sorted := make([]Entity, 0, len(entitySet))
	for e := range entitySet {
		sorted = append(sorted, e)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].less(sorted[j]) })

	g.entities = append(append([]Entity{}, opts.Leading...), sorted...)
	return g
}

// Dates returns the sorted row keys.
func (g *Grid) Dates() []string { return g.dates }

// Entities returns the column groups in output order.
func (g *Grid) Entities() []Entity { return g.entities }

// Value returns the metric for a cell, or the grid default when absent.
func (g *Grid) Value(date string, e Entity, metric string) string {
	if m, ok := g.cells[Key{Date: date, Entity: e}]; ok {
		if v, ok := m[metric]; ok {
			return v
		}
	}
	return g.def
}

// GroupedRows renders the grid with every metric per entity. The first two
// rows are the header block: entity labels repeated once per metric, then the
// metric names. corner is the top-left cell; the second row starts with
// "date". A blank spacer column follows every entity group.
func (g *Grid) GroupedRows(corner string) [][]string {
	width := 1 + len(g.entities)*(len(g.metrics)+1)

	labels := make([]string, 0, width)
	names := make([]string, 0, width)
	labels = append(labels, corner)
	names = append(names, "date")
	for _, e := range g.entities {
		for _, m := range g.metrics {
			labels = append(labels, e.Label())
			names = append(names, m)
		}
		labels = append(labels, "")
		names = append(names, "")
	}

	rows := make([][]string, 0, len(g.dates)+2)
	rows = append(rows, labels, names)
	for _, d := range g.dates {
		row := make([]string, 0, width)
		row = append(row, d)
		for _, e := range g.entities {
			for _, m := range g.metrics {
				row = append(row, g.Value(d, e, m))
			}
			row = append(row, "")
		}
		rows = append(rows, row)
	}
	return rows
}

// MetricBlock renders a single metric with one column per entity and no
// spacer columns. The header block is the title followed by the entity
// categories, then "date" followed by the entity subcategories.
func (g *Grid) MetricBlock(title, metric string) [][]string {
	top := make([]string, 0, len(g.entities)+1)
	sub := make([]string, 0, len(g.entities)+1)
	top = append(top, title)
	sub = append(sub, "date")
	for _, e := range g.entities {
		top = append(top, e.Category)
		sub = append(sub, e.Subcategory)
	}

	rows := make([][]string, 0, len(g.dates)+2)
	rows = append(rows, top, sub)
	for _, d := range g.dates {
		row := make([]string, 0, len(g.entities)+1)
		row = append(row, d)
		for _, e := range g.entities {
			row = append(row, g.Value(d, e, metric))
		}
		rows = append(rows, row)
	}
	return rows
}
