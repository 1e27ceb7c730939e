package core

import "fmt"

// ScopeKind selects which databases a run dumps and how they are grouped into files.
type ScopeKind int

const (
	// ScopeExplicit dumps the named databases, one file each.
	ScopeExplicit ScopeKind = iota
	// ScopeAllDatabases dumps every database on the server, one file each.
	ScopeAllDatabases
	// ScopeCombined dumps every database into a single file.
	ScopeCombined
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeExplicit:
		return "explicit"
	case ScopeAllDatabases:
		return "all"
	case ScopeCombined:
		return "combined"
	}
	return fmt.Sprintf("ScopeKind(%d)", int(k))
}

type Scope struct {
	Kind  ScopeKind
	Names []string
}

func Explicit(names ...string) Scope {
	return Scope{Kind: ScopeExplicit, Names: names}
}

func AllDatabases() Scope {
	return Scope{Kind: ScopeAllDatabases}
}

func Combined() Scope {
	return Scope{Kind: ScopeCombined}
}

// Target is one unit of dump work: a single named database, or the combined
// pseudo-target covering all databases in one file.
type Target struct {
	Name     string
	Combined bool
}

func (t Target) String() string {
	if t.Combined {
		return "all databases"
	}
	return t.Name
}

// ResolveTargets turns a scope into the list of targets to dump, given the server's
// database catalog. Requested databases missing from the catalog are skipped, with
// one warning each. It never fails; an empty result is valid.
func ResolveTargets(catalog []string, scope Scope) ([]Target, []string) {
	var (
		targets  []Target
		warnings []string
	)
	switch scope.Kind {
	case ScopeCombined:
		return []Target{{Combined: true}}, nil
	case ScopeAllDatabases:
		for _, name := range catalog {
			targets = append(targets, Target{Name: name})
		}
	default:
		known := make(map[string]bool, len(catalog))
		for _, name := range catalog {
			known[name] = true
		}
		seen := make(map[string]bool, len(scope.Names))
		for _, name := range scope.Names {
			if seen[name] {
				continue
			}
			seen[name] = true
			if !known[name] {
				warnings = append(warnings, fmt.Sprintf("Database(%s) does not exist.", name))
				continue
			}
			targets = append(targets, Target{Name: name})
		}
	}
	return targets, warnings
}
