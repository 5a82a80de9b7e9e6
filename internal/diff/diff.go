// Package diff compares freshly generated text against the previous
// generation: structural changes via marker scanning, suspected hand edits
// via comment/import/export heuristics, and the incremental-run manifest.
//
// The detector never merges. Every suspected customization is reported so a
// maintainer can reapply it by hand after regeneration.
package diff

import (
	"regexp"
	"sort"
	"strings"
)

var (
	tableMarker    = regexp.MustCompile(`(?m)^export const (\w+) = defineTable\(`)
	relationsStart = regexp.MustCompile(`^export const (\w+Relations) = \{`)
	accessorLine   = regexp.MustCompile(`^  (\w+): (?:belongsTo|hasMany|hasOne|polyRef)\(`)
)

// Changes summarizes the structural difference between two generations of
// the schema artifact.
type Changes struct {
	AddedTables      []string
	RemovedTables    []string
	AddedAccessors   []string
	RemovedAccessors []string
}

// Empty reports whether no structural change was detected.
func (c Changes) Empty() bool {
	return len(c.AddedTables) == 0 && len(c.RemovedTables) == 0 &&
		len(c.AddedAccessors) == 0 && len(c.RemovedAccessors) == 0
}

// Compare scans prior and fresh schema artifact text and reports added and
// removed tables and relationship accessors. prev == "" means first run:
// everything fresh counts as added.
func Compare(prev, fresh string) Changes {
	prevTables := scanTables(prev)
	freshTables := scanTables(fresh)
	prevAccessors := scanAccessors(prev)
	freshAccessors := scanAccessors(fresh)

	return Changes{
		AddedTables:      missingFrom(prevTables, freshTables),
		RemovedTables:    missingFrom(freshTables, prevTables),
		AddedAccessors:   missingFrom(prevAccessors, freshAccessors),
		RemovedAccessors: missingFrom(freshAccessors, prevAccessors),
	}
}

func scanTables(text string) map[string]bool {
	tables := make(map[string]bool)
	for _, match := range tableMarker.FindAllStringSubmatch(text, -1) {
		tables[match[1]] = true
	}
	return tables
}

// scanAccessors returns "exportName.accessor" keys for every accessor entry
// inside a relationship map.
func scanAccessors(text string) map[string]bool {
	accessors := make(map[string]bool)
	current := ""
	for _, line := range strings.Split(text, "\n") {
		if m := relationsStart.FindStringSubmatch(line); m != nil {
			current = m[1]
			continue
		}
		if current == "" {
			continue
		}
		if strings.HasPrefix(line, "}") {
			current = ""
			continue
		}
		if m := accessorLine.FindStringSubmatch(line); m != nil {
			accessors[current+"."+m[1]] = true
		}
	}
	return accessors
}

// missingFrom returns the keys of b that are absent from a, sorted.
func missingFrom(a, b map[string]bool) []string {
	var out []string
	for key := range b {
		if !a[key] {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}
