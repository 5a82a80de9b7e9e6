package gen

import (
	"github.com/go-openapi/inflect"
)

// Header stamped on every generated artifact. The customization detector
// treats files without it as fully hand-written.
const Header = "// Code generated by syncgen. DO NOT EDIT."

// relationsExport is the name of a table's relationship-accessor map in the
// schema artifact.
func relationsExport(table string) string {
	return inflect.CamelizeDownFirst(table) + "Relations"
}

// belongsToAccessor names a belongs-to accessor: singular, lower camel.
func belongsToAccessor(name string) string {
	return inflect.CamelizeDownFirst(inflect.Singularize(name))
}

// hasManyAccessor names a has-many accessor: plural, lower camel.
func hasManyAccessor(name string) string {
	return inflect.CamelizeDownFirst(inflect.Pluralize(name))
}

// polyAccessor names one expanded polymorphic accessor: association name plus
// the singularized, camelized target table (notable + tasks -> notableTask).
func polyAccessor(assoc, target string) string {
	return inflect.CamelizeDownFirst(assoc) + inflect.Camelize(inflect.Singularize(target))
}
