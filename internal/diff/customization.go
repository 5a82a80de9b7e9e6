package diff

import (
	"fmt"
	"regexp"
	"strings"
)

// ArtifactKind selects the customization rules for a generated file.
type ArtifactKind int

const (
	SchemaArtifact ArtifactKind = iota
	ModuleArtifact
)

// Comment prefixes the generator itself produces. Anything else that looks
// like a line comment is a suspected hand edit.
var generatedCommentPrefixes = []string{
	"// Code generated by syncgen.",
	"// skipped ",
	"// through: ",
	"// Hand-written extensions",
	"// This file is scaffolded once",
}

// The fixed export set a mutation/query module may contain. Exports beyond
// this set are suspected hand edits.
var moduleExports = map[string]bool{
	"createInput": true, "updateInput": true,
	"create": true, "update": true, "destroy": true, "upsert": true,
	"discard": true, "undiscard": true, "softDelete": true, "restore": true,
	"moveBefore": true, "moveAfter": true, "moveToTop": true, "moveToBottom": true,
	"setStatus": true,
	"find":      true, "list": true, "where": true,
	"kept": true, "discarded": true, "active": true,
}

var (
	importLine = regexp.MustCompile(`^import .* from "(.+)";?$`)
	exportLine = regexp.MustCompile(`^export (?:const|function|async function) (\w+)`)
)

// Allowed import sources in generated files.
var generatedImports = map[string]bool{
	"./sync":       true,
	"./schema.gen": true,
}

// DetectCustomizations flags likely hand edits in previously generated text:
// comments the generator does not produce, imports from unexpected modules,
// and exports beyond the fixed generated set. The heuristics are name-based;
// false positives are accepted and only ever produce warnings.
func DetectCustomizations(text string, kind ArtifactKind) []string {
	var found []string

	for n, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "//") && !isGeneratedComment(trimmed) {
			found = append(found, fmt.Sprintf("line %d: non-generated comment: %s", n+1, truncate(trimmed)))
			continue
		}

		if m := importLine.FindStringSubmatch(trimmed); m != nil {
			if !generatedImports[m[1]] {
				found = append(found, fmt.Sprintf("line %d: non-standard import from %q", n+1, m[1]))
			}
			continue
		}

		if m := exportLine.FindStringSubmatch(line); m != nil {
			if !allowedExport(m[1], kind) {
				found = append(found, fmt.Sprintf("line %d: export %q outside the generated set", n+1, m[1]))
			}
		}
	}

	return found
}

func isGeneratedComment(line string) bool {
	for _, prefix := range generatedCommentPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

func allowedExport(name string, kind ArtifactKind) bool {
	switch kind {
	case SchemaArtifact:
		// Table exports are snake_case; relation maps end in Relations.
		return strings.HasSuffix(name, "Relations") || name == strings.ToLower(name)
	case ModuleArtifact:
		return moduleExports[name]
	default:
		return false
	}
}

func truncate(s string) string {
	const max = 80
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
