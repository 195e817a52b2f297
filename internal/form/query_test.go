package form

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLegacyQuery(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   string
	}{
		{"empty", Filter{}, ""},
		{"name only", Filter{Name: "fido"}, "name=fido"},
		{"category only", Filter{Category: "dog"}, "category=dog"},
		{"available only", Filter{Available: true}, "available=true"},
		{"name and available", Filter{Name: "fido", Available: true}, "name=fido&available=true"},
		{"all three", Filter{Name: "fido", Category: "dog", Available: true}, "name=fido&category=dog&available=true"},
		{"whitespace treated as absent", Filter{Name: "  ", Category: "cat"}, "category=cat"},
		{"values are encoded", Filter{Name: "a&b=c", Category: "big dog"}, "name=a%26b%3Dc&category=big+dog"},
		{"status ignored by legacy form", Filter{Status: "CREATED"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LegacyQuery(tt.filter)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, LegacyQuery(tt.filter))
		})
	}
}

func TestLegacyQuery_SegmentCount(t *testing.T) {
	for mask := 0; mask < 8; mask++ {
		f := Filter{}
		k := 0
		if mask&1 != 0 {
			f.Name = "n"
			k++
		}
		if mask&2 != 0 {
			f.Category = "c"
			k++
		}
		if mask&4 != 0 {
			f.Available = true
			k++
		}

		got := LegacyQuery(f)
		assert.False(t, strings.HasPrefix(got, "&"), got)
		assert.False(t, strings.HasSuffix(got, "&"), got)
		assert.NotContains(t, got, "&&")
		if k == 0 {
			assert.Empty(t, got)
			continue
		}

		segments := strings.Split(got, "&")
		assert.Len(t, segments, k)
		last := -1
		for _, seg := range segments {
			idx := indexOfKey(strings.SplitN(seg, "=", 2)[0])
			assert.Greater(t, idx, last, "keys out of order in %q", got)
			last = idx
		}
	}
}

func indexOfKey(key string) int {
	for i, k := range []string{QueryName, QueryCategory, QueryAvailable} {
		if k == key {
			return i
		}
	}
	return -1
}

func TestSingleKeyQueries(t *testing.T) {
	assert.Equal(t, "status_name=CREATED", StatusQuery("CREATED"))
	assert.Equal(t, "", StatusQuery(""))
	assert.Equal(t, "customer_id=7", CustomerQuery("7"))
	assert.Equal(t, "", CustomerQuery(" "))
}

func TestOrdersQuery(t *testing.T) {
	assert.Equal(t, "", OrdersQuery(Filter{}))
	assert.Equal(t, "status_name=PROCESSING", OrdersQuery(Filter{Status: "PROCESSING"}))
	assert.Equal(t, "customer_id=12", OrdersQuery(Filter{CustomerID: "12"}))
	assert.Equal(t, "status_name=COMPLETED&customer_id=12", OrdersQuery(Filter{Status: "COMPLETED", CustomerID: "12"}))
}
