// Package registry holds the statically declared entity descriptors that
// stand in for ORM reflection metadata. The registry is loaded from a YAML
// export and injected into the introspector; nothing here touches a class
// loader or global model cache.
package registry

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-openapi/inflect"
	"gopkg.in/yaml.v3"
)

// RelationshipDecl is one declared association on an entity.
type RelationshipDecl struct {
	Kind        string `yaml:"kind"` // belongs_to, has_many, has_one
	Name        string `yaml:"name"`
	ForeignKey  string `yaml:"foreign_key"`
	Target      string `yaml:"target"`
	Through     string `yaml:"through"`
	Polymorphic bool   `yaml:"polymorphic"`

	// As marks a reverse polymorphic declaration: has_many :notes, as: :notable
	// makes this entity's table an allowed target of the "notable" association.
	As string `yaml:"as"`
}

// Entity is one declared entity descriptor.
type Entity struct {
	Name          string              `yaml:"name"`
	Table         string              `yaml:"table"`
	Enums         map[string][]string `yaml:"enums"`
	Relationships []RelationshipDecl  `yaml:"relationships"`
}

// Registry is the full set of entity descriptors for one application.
type Registry struct {
	Entities []Entity `yaml:"entities"`

	byTable map[string]*Entity
	byName  map[string]*Entity
}

// Load reads a registry export from path.
func Load(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}
	var reg Registry
	if err := yaml.Unmarshal(raw, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse registry: %w", err)
	}
	if err := reg.index(); err != nil {
		return nil, err
	}
	return &reg, nil
}

// New builds a registry from in-memory descriptors. Used by tests and by
// callers that assemble descriptors programmatically.
func New(entities []Entity) (*Registry, error) {
	reg := &Registry{Entities: entities}
	if err := reg.index(); err != nil {
		return nil, err
	}
	return reg, nil
}

func (r *Registry) index() error {
	r.byTable = make(map[string]*Entity, len(r.Entities))
	r.byName = make(map[string]*Entity, len(r.Entities))
	for i := range r.Entities {
		e := &r.Entities[i]
		if e.Name == "" {
			return fmt.Errorf("registry entity %d has no name", i)
		}
		if e.Table == "" {
			e.Table = inflect.Tableize(e.Name)
		}
		if _, dup := r.byTable[e.Table]; dup {
			return fmt.Errorf("registry declares table %q twice", e.Table)
		}
		r.byTable[e.Table] = e
		r.byName[e.Name] = e
	}
	return nil
}

// ByTable returns the entity declared for table, or nil.
func (r *Registry) ByTable(table string) *Entity {
	return r.byTable[table]
}

// ByName returns the entity with the given class name, or nil. Namespaced
// names fall back to a lookup on the segment before the separator, which is
// how single-table-inheritance subclasses resolve to their base table.
func (r *Registry) ByName(name, separator string) *Entity {
	if e, ok := r.byName[name]; ok {
		return e
	}
	if base, _, ok := strings.Cut(name, separator); ok {
		return r.byName[base]
	}
	return nil
}

// DeclaredEnum returns the declared string value set for table.column, or nil
// when the column is not a declared enum.
func (r *Registry) DeclaredEnum(table, column string) []string {
	e := r.byTable[table]
	if e == nil {
		return nil
	}
	return e.Enums[column]
}

// ReverseTargets scans every entity for reverse declarations naming the given
// polymorphic association and returns the target tables, sorted.
func (r *Registry) ReverseTargets(assoc string) []string {
	seen := make(map[string]bool)
	for i := range r.Entities {
		e := &r.Entities[i]
		for _, rel := range e.Relationships {
			if rel.As == assoc {
				seen[e.Table] = true
			}
		}
	}
	targets := make([]string, 0, len(seen))
	for table := range seen {
		targets = append(targets, table)
	}
	sort.Strings(targets)
	return targets
}

// ForeignKeyColumn returns the declared or conventional foreign key column
// for a relationship. An explicit foreign_key wins. A belongs_to keys on
// <name>_id on the owner; a has_many or has_one keys the target table by the
// singularized owner table name.
func (d *RelationshipDecl) ForeignKeyColumn(ownerTable string) string {
	if d.ForeignKey != "" {
		return d.ForeignKey
	}
	if d.Kind == "has_many" || d.Kind == "has_one" {
		return inflect.Singularize(ownerTable) + "_id"
	}
	return d.Name + "_id"
}

// TargetTable returns the declared or conventional target table for a
// relationship: an explicit target wins, otherwise the tableized name.
func (d *RelationshipDecl) TargetTable() string {
	if d.Target != "" {
		return d.Target
	}
	return inflect.Tableize(d.Name)
}
