// Package typemap maps introspected columns to sync-platform type
// expressions.
package typemap

import (
	"fmt"
	"strings"

	"github.com/syncfold/syncgen/internal/config"
	"github.com/syncfold/syncgen/internal/logger"
	"github.com/syncfold/syncgen/internal/schema"
)

// Mapper resolves type expressions for columns. Resolution order: explicit
// per-table-and-column override, global column-name override, primitive kind
// default, string fallback with a warning.
type Mapper struct {
	cfg      *config.Config
	warnings []string
}

// New creates a mapper over the configured overrides.
func New(cfg *config.Config) *Mapper {
	return &Mapper{cfg: cfg}
}

// Warnings returns fallback warnings accumulated across Map calls.
func (m *Mapper) Warnings() []string {
	return m.warnings
}

// Map returns the type expression for a column. Primary key columns are
// always non-optional, even when the database marks them nullable; other
// nullable columns get their base expression wrapped in v.optional(...).
func (m *Mapper) Map(table string, col *schema.Column, isPrimary bool) string {
	base := m.baseExpr(table, col)
	if isPrimary || !col.Nullable {
		return base
	}
	return fmt.Sprintf("v.optional(%s)", base)
}

func (m *Mapper) baseExpr(table string, col *schema.Column) string {
	if expr, ok := m.cfg.TypeOverrides[table+"."+col.Name]; ok {
		return expr
	}
	if expr, ok := m.nameOverride(col.Name); ok {
		return expr
	}
	if col.IsEnum && len(col.EnumValues) > 0 {
		return unionExpr(col.EnumValues)
	}
	return m.kindExpr(table, col)
}

// nameOverride resolves global column-name rules. The target platform stores
// time and order as numbers, so timestamp-named and ordering columns always
// map numeric regardless of declared storage type.
func (m *Mapper) nameOverride(name string) (string, bool) {
	if expr, ok := m.cfg.NameOverrides[name]; ok {
		return expr, true
	}
	if name == "position" {
		return "v.number()", true
	}
	if strings.HasSuffix(name, "_at") || name == "created_at" || name == "updated_at" {
		return "v.number()", true
	}
	return "", false
}

func (m *Mapper) kindExpr(table string, col *schema.Column) string {
	switch col.Kind {
	case schema.KindString, schema.KindText, schema.KindUUID, schema.KindDate:
		return "v.string()"
	case schema.KindInteger, schema.KindFloat, schema.KindDecimal, schema.KindTimestamp:
		return "v.number()"
	case schema.KindBigInt:
		return "v.int64()"
	case schema.KindBoolean:
		return "v.boolean()"
	case schema.KindJSON:
		return "v.any()"
	default:
		msg := fmt.Sprintf("unknown column kind for %s.%s (%s), falling back to v.string()", table, col.Name, col.RawType)
		logger.Warn("%s", msg)
		m.warnings = append(m.warnings, msg)
		return "v.string()"
	}
}

func unionExpr(values []string) string {
	literals := make([]string, len(values))
	for i, v := range values {
		literals[i] = fmt.Sprintf("v.literal(%q)", v)
	}
	return fmt.Sprintf("v.union(%s)", strings.Join(literals, ", "))
}
