package postgres

import "strings"

// parseTextArray decodes the text representation of a one-dimensional
// PostgreSQL text[] value, e.g. `{readonly,"some role"}`. The stdlib driver
// hands arrays back in this wire form when no array codec is registered.
func parseTextArray(s string) []string {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return nil
	}
	s = s[1 : len(s)-1]
	if s == "" {
		return nil
	}

	var (
		elems   []string
		current strings.Builder
		quoted  bool
		escaped bool
	)
	for _, r := range s {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			quoted = !quoted
		case r == ',' && !quoted:
			elems = append(elems, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	elems = append(elems, current.String())

	return elems
}

// formatTextArray encodes a slice as a PostgreSQL text[] literal suitable
// for binding against an ANY($n::text[]) parameter.
func formatTextArray(elems []string) string {
	quoted := make([]string, len(elems))
	for i, e := range elems {
		e = strings.ReplaceAll(e, `\`, `\\`)
		e = strings.ReplaceAll(e, `"`, `\"`)
		quoted[i] = `"` + e + `"`
	}
	return "{" + strings.Join(quoted, ",") + "}"
}
