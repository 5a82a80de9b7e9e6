package poly

import "strings"

// polyRef call shape emitted into the schema artifact:
//
//	notableTask: polyRef("notable", "tasks", "notable_id"),
//
// ParseDeclared recovers association name -> target tables from previously
// generated text with a bracket-balanced scan, so hand-verified target lists
// survive regeneration. The scan tolerates arbitrary surrounding text and
// quoted strings containing parentheses.
func ParseDeclared(text string) map[string][]string {
	declared := make(map[string][]string)

	const marker = "polyRef("
	for offset := 0; ; {
		i := strings.Index(text[offset:], marker)
		if i < 0 {
			break
		}
		start := offset + i + len(marker)
		args, end, ok := scanCall(text, start)
		offset = end
		if !ok || len(args) < 2 {
			continue
		}
		assoc, target := args[0], args[1]
		if assoc == "" || target == "" {
			continue
		}
		if !contains(declared[assoc], target) {
			declared[assoc] = append(declared[assoc], target)
		}
	}

	return declared
}

// scanCall consumes a balanced argument list starting just after the opening
// parenthesis and returns the unquoted top-level string arguments, the scan
// resume offset, and whether the call was well formed.
func scanCall(text string, start int) (args []string, end int, ok bool) {
	depth := 1
	inString := false
	var quote byte
	var current strings.Builder

	flush := func() {
		arg := strings.TrimSpace(current.String())
		arg = strings.Trim(arg, `"'`)
		args = append(args, arg)
		current.Reset()
	}

	for i := start; i < len(text); i++ {
		ch := text[i]

		if inString {
			current.WriteByte(ch)
			if ch == quote {
				inString = false
			}
			continue
		}

		switch ch {
		case '"', '\'':
			inString = true
			quote = ch
			current.WriteByte(ch)
		case '(', '[', '{':
			depth++
			current.WriteByte(ch)
		case ')', ']', '}':
			depth--
			if depth == 0 {
				flush()
				return args, i + 1, true
			}
			current.WriteByte(ch)
		case ',':
			if depth == 1 {
				flush()
			} else {
				current.WriteByte(ch)
			}
		default:
			current.WriteByte(ch)
		}
	}

	return nil, len(text), false
}

func contains(list []string, item string) bool {
	for _, v := range list {
		if v == item {
			return true
		}
	}
	return false
}
