// Package poly resolves the concrete target tables a polymorphic association
// may reference, reconciling declared, inferred and observed sources.
package poly

import (
	"sort"
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/syncfold/syncgen/internal/config"
	"github.com/syncfold/syncgen/internal/registry"
	"github.com/syncfold/syncgen/internal/schema"
)

// Well-known association-name fallbacks, used only when neither a declared
// nor an inferred target list exists.
var wellKnownTargets = map[string][]string{
	"attachable":  {"documents"},
	"commentable": {"tasks", "projects"},
	"taggable":    {"tasks", "projects"},
}

// Resolver resolves polymorphic associations. Declared targets recovered from
// the previous generation outrank registry inference, which outranks the
// fixed fallback table. Observed live data is recorded for statistics only
// and never drives code generation.
type Resolver struct {
	reg      *registry.Registry
	cfg      *config.Config
	declared map[string][]string
}

// NewResolver creates a resolver. prevSchemaText is the previous schema
// artifact ("" on first run); its polyRef declarations are the highest
// confidence source since they are hand-verified.
func NewResolver(reg *registry.Registry, cfg *config.Config, prevSchemaText string) *Resolver {
	return &Resolver{
		reg:      reg,
		cfg:      cfg,
		declared: ParseDeclared(prevSchemaText),
	}
}

// Resolve builds the polymorphic association for one detected
// <base>_type/<base>_id pair on a table.
func (r *Resolver) Resolve(table *schema.Table, p *schema.Pattern) schema.PolymorphicAssociation {
	name := strings.TrimSuffix(p.TypeColumn, "_type")

	assoc := schema.PolymorphicAssociation{
		OwnerTable: table.Name,
		Name:       name,
		TypeColumn: p.TypeColumn,
		IDColumn:   p.IDColumn,
	}

	assoc.Observed = table.Stats.TypeValues[p.TypeColumn]
	assoc.STIGroups = r.stiGroups(assoc.Observed)

	switch {
	case len(r.declared[name]) > 0:
		assoc.Targets = append([]string(nil), r.declared[name]...)
		assoc.Source = schema.SourceDeclared
	case r.reg != nil && len(r.reg.ReverseTargets(name)) > 0:
		assoc.Targets = r.reg.ReverseTargets(name)
		assoc.Source = schema.SourceInferred
	default:
		assoc.Targets = r.fallbackTargets(name)
		assoc.Source = schema.SourceFallback
	}

	sort.Strings(assoc.Targets)
	return assoc
}

func (r *Resolver) fallbackTargets(name string) []string {
	if targets, ok := r.cfg.PolymorphicFallbacks[name]; ok {
		return append([]string(nil), targets...)
	}
	if targets, ok := wellKnownTargets[name]; ok {
		return append([]string(nil), targets...)
	}
	return nil
}

// stiGroups groups observed namespaced type values by base class. A value
// like "Billing::Invoice" resolves to the billing invoices base table with
// "Billing::Invoice" recorded as a subclass, rather than a separate target.
func (r *Resolver) stiGroups(observed []string) []schema.STIGroup {
	sep := r.cfg.STISeparator
	byBase := make(map[string]*schema.STIGroup)

	for _, value := range observed {
		base, _, found := strings.Cut(value, sep)
		if !found || base == "" {
			continue
		}
		group, ok := byBase[base]
		if !ok {
			group = &schema.STIGroup{
				BaseClass: base,
				Table:     r.tableForClass(base),
			}
			byBase[base] = group
		}
		group.Subclasses = append(group.Subclasses, value)
	}

	bases := make([]string, 0, len(byBase))
	for base := range byBase {
		bases = append(bases, base)
	}
	sort.Strings(bases)

	groups := make([]schema.STIGroup, 0, len(bases))
	for _, base := range bases {
		sort.Strings(byBase[base].Subclasses)
		groups = append(groups, *byBase[base])
	}
	return groups
}

func (r *Resolver) tableForClass(class string) string {
	if r.reg != nil {
		if e := r.reg.ByName(class, r.cfg.STISeparator); e != nil {
			return e.Table
		}
	}
	return inflect.Tableize(class)
}
