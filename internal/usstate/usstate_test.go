package usstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{name: "upper case", code: "WI", want: "Wisconsin"},
		{name: "lower case", code: "wi", want: "Wisconsin"},
		{name: "mixed case with space", code: " Ca ", want: "California"},
		{name: "district", code: "DC", want: "District of Columbia"},
		{name: "territory", code: "mp", want: "Northern Mariana Islands"},
		{name: "unknown", code: "zz", want: "ZZ**"},
		{name: "empty", code: "", want: "**"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Name(tt.code))
		})
	}
}

func TestLookup(t *testing.T) {
	name, ok := Lookup("ny")
	assert.True(t, ok)
	assert.Equal(t, "New York", name)

	_, ok = Lookup("XX")
	assert.False(t, ok)
}

func TestIsUnknown(t *testing.T) {
	assert.True(t, IsUnknown(Name("zz")))
	assert.False(t, IsUnknown(Name("WI")))
}

func TestCodes(t *testing.T) {
	codes := Codes()
	assert.Len(t, codes, 56)
	assert.IsNonDecreasing(t, codes)
	assert.Contains(t, codes, "PR")
}
