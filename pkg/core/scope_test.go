package core

import (
	"sort"
	"testing"

	"github.com/go-test/deep"
	"github.com/stretchr/testify/assert"
)

func TestResolveTargets(t *testing.T) {
	tests := []struct {
		name     string
		catalog  []string
		scope    Scope
		targets  []Target
		warnings []string
	}{
		{"explicit all exist", []string{"a", "b", "c"}, Explicit("c", "a"), []Target{{Name: "c"}, {Name: "a"}}, nil},
		{"explicit some missing", []string{"orders", "users"}, Explicit("orders", "ghost", "users"), []Target{{Name: "orders"}, {Name: "users"}}, []string{"Database(ghost) does not exist."}},
		{"explicit none exist", []string{"a"}, Explicit("x", "y"), nil, []string{"Database(x) does not exist.", "Database(y) does not exist."}},
		{"explicit duplicates", []string{"a", "b"}, Explicit("a", "a", "z", "z"), []Target{{Name: "a"}}, []string{"Database(z) does not exist."}},
		{"explicit empty", []string{"a"}, Explicit(), nil, nil},
		{"all", []string{"a", "b", "c"}, AllDatabases(), []Target{{Name: "a"}, {Name: "b"}, {Name: "c"}}, nil},
		{"all empty catalog", nil, AllDatabases(), nil, nil},
		{"combined", []string{"a", "b"}, Combined(), []Target{{Combined: true}}, nil},
		{"combined ignores catalog", nil, Combined(), []Target{{Combined: true}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			targets, warnings := ResolveTargets(tt.catalog, tt.scope)
			if diff := deep.Equal(targets, tt.targets); diff != nil {
				t.Errorf("targets: %v", diff)
			}
			if diff := deep.Equal(warnings, tt.warnings); diff != nil {
				t.Errorf("warnings: %v", diff)
			}
		})
	}
}

// The result is the intersection of the request and catalog, with one warning per
// missing name, whatever the order of either input.
func TestResolveTargetsIntersection(t *testing.T) {
	catalog := []string{"orders", "users", "billing", "audit"}
	requests := [][]string{
		{"users", "orders"},
		{"orders", "users"},
		{"nope", "audit", "billing", "gone"},
		{"gone", "billing", "nope", "audit"},
		{"x"},
	}
	inCatalog := map[string]bool{}
	for _, c := range catalog {
		inCatalog[c] = true
	}
	for _, names := range requests {
		for _, cat := range [][]string{catalog, {"audit", "billing", "users", "orders"}} {
			targets, warnings := ResolveTargets(cat, Explicit(names...))
			var got, want []string
			missing := 0
			for _, tg := range targets {
				got = append(got, tg.Name)
			}
			for _, n := range names {
				if inCatalog[n] {
					want = append(want, n)
				} else {
					missing++
				}
			}
			sort.Strings(got)
			sort.Strings(want)
			assert.Equal(t, want, got, "request %v", names)
			assert.Len(t, warnings, missing, "request %v", names)
		}
	}
}

func TestTargetString(t *testing.T) {
	assert.Equal(t, "sales", Target{Name: "sales"}.String())
	assert.Equal(t, "all databases", Target{Combined: true}.String())
	assert.Equal(t, "combined", ScopeCombined.String())
}
