package table

// Wildcard matches any value in a criterion field. The empty string is also
// treated as a wildcard so that an omitted config key means "any".
const Wildcard = "*"

// Criterion selects rows by a (category, subcategory) pair, for example
// (state, county).
type Criterion struct {
	Category    string `koanf:"state" yaml:"state" json:"state"`
	Subcategory string `koanf:"county" yaml:"county,omitempty" json:"county,omitempty"`
}

// IsWildcard reports whether v matches any value.
func IsWildcard(v string) bool {
	return v == "" || v == Wildcard
}

// Matches reports whether the criterion accepts the given pair.
func (c Criterion) Matches(category, subcategory string) bool {
	return (IsWildcard(c.Category) || c.Category == category) &&
		(IsWildcard(c.Subcategory) || c.Subcategory == subcategory)
}

// Fields names the positions compared against a criterion. A negative
// Subcategory position means the criterion's subcategory is ignored.
type Fields struct {
	Category    int
	Subcategory int
}

// Filter returns the rows selected by each criterion, concatenated in criteria
// order and then source order. A row matched by two criteria appears twice.
func Filter(rows []Record, criteria []Criterion, f Fields) []Record {
	if f.Subcategory < 0 {
		byCategory := make([]Criterion, len(criteria))
		for i, c := range criteria {
			byCategory[i] = Criterion{Category: c.Category}
		}
		return FilterFunc(rows, byCategory, func(r Record) (string, string) {
			return r.Field(f.Category), ""
		})
	}
	return FilterFunc(rows, criteria, func(r Record) (string, string) {
		return r.Field(f.Category), r.Field(f.Subcategory)
	})
}

// FilterFunc is Filter with a caller-supplied key extractor, for sources whose
// values need cleaning before comparison.
func FilterFunc(rows []Record, criteria []Criterion, key func(Record) (string, string)) []Record {
	var out []Record
	for _, c := range criteria {
		for _, r := range rows {
			cat, sub := key(r)
			if c.Matches(cat, sub) {
				out = append(out, r)
			}
		}
	}
	return out
}
