package manifest

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
)

var (
	tableBoundary = regexp.MustCompile(`(?m)^[ \t]*\[`)
	tableHeader   = regexp.MustCompile(`^[ \t]*\[[ \t]*([^\[\]]+?)[ \t]*\][ \t]*(?:#.*)?$`)
	featuresKey   = regexp.MustCompile(`(?m)^[ \t]*features[ \t]*=[ \t]*`)

	// Forms of optional-dependencies written inside [project] or at the root.
	dottedFeatures  = regexp.MustCompile(`(?m)^[ \t]*optional-dependencies[ \t]*\.[ \t]*features[ \t]*=[ \t]*`)
	rootFeatures    = regexp.MustCompile(`(?m)^[ \t]*project[ \t]*\.[ \t]*optional-dependencies[ \t]*\.[ \t]*features[ \t]*=[ \t]*`)
	dottedOptional  = regexp.MustCompile(`(?m)^[ \t]*optional-dependencies[ \t]*\.`)
	inlineOptional  = regexp.MustCompile(`(?m)^[ \t]*optional-dependencies[ \t]*=[ \t]*\{`)
	inlineFeatureKV = regexp.MustCompile(`(?:^|,)[ \t\r\n]*features[ \t]*=[ \t]*`)
)

const optionalDeps = "project.optional-dependencies"

// SetFeatures rewrites the features array of project.optional-dependencies.
// The [project.optional-dependencies] table, the inline-table and the dotted
// key forms are edited in place; the table is created when none is present.
func SetFeatures(data []byte, features []string) ([]byte, error) {
	rendered := renderArray(features)

	if _, body, end, ok := tableSpan(data, optionalDeps); ok {
		loc := featuresKey.FindIndex(data[body:end])
		if loc == nil {
			return splice(data, body, body, []byte("features = "+rendered+"\n")), nil
		}
		return replaceArray(data, body+loc[1], rendered)
	}

	if _, body, end, ok := tableSpan(data, "project"); ok {
		seg := data[body:end]
		if loc := dottedFeatures.FindIndex(seg); loc != nil {
			return replaceArray(data, body+loc[1], rendered)
		}
		if loc := inlineOptional.FindIndex(seg); loc != nil {
			return setInlineFeatures(data, body+loc[1]-1, features)
		}
		if dottedOptional.Match(seg) {
			return splice(data, body, body, []byte("optional-dependencies.features = "+rendered+"\n")), nil
		}
	}

	if loc := rootFeatures.FindIndex(data[:rootEnd(data)]); loc != nil {
		return replaceArray(data, loc[1], rendered)
	}

	out := ensureTrailingNewline(data)
	if len(out) > 0 {
		out = append(out, '\n')
	}
	out = append(out, "["+optionalDeps+"]\n"...)
	out = append(out, "features = "+rendered+"\n"...)
	return out, nil
}

// replaceArray swaps the array value starting at data[at] for rendered.
func replaceArray(data []byte, at int, rendered string) ([]byte, error) {
	if at >= len(data) || data[at] != '[' {
		return nil, fmt.Errorf("features in %s is not an array", optionalDeps)
	}
	end, err := closingBracket(data, at)
	if err != nil {
		return nil, err
	}
	return splice(data, at, end, []byte(rendered)), nil
}

// setInlineFeatures edits the features key of the inline table opened at
// data[open].
func setInlineFeatures(data []byte, open int, features []string) ([]byte, error) {
	closeAt, err := closingBracket(data, open)
	if err != nil {
		return nil, err
	}
	inner := data[open+1 : closeAt-1]
	rendered := renderInlineArray(features)
	if loc := inlineFeatureKV.FindIndex(inner); loc != nil {
		return replaceArray(data, open+1+loc[1], rendered)
	}
	if len(bytes.TrimSpace(inner)) == 0 {
		return splice(data, open+1, closeAt-1, []byte(" features = "+rendered+" ")), nil
	}
	return splice(data, open+1, open+1, []byte(" features = "+rendered+",")), nil
}

// rootEnd is the offset of the first table header, or EOF.
func rootEnd(data []byte) int {
	if loc := tableBoundary.FindIndex(data); loc != nil {
		return loc[0]
	}
	return len(data)
}

// SetVersion rewrites project.version.
func SetVersion(data []byte, version string) ([]byte, error) {
	return setProjectString(data, "version", version)
}

// SetName rewrites project.name.
func SetName(data []byte, name string) ([]byte, error) {
	return setProjectString(data, "name", name)
}

func setProjectString(data []byte, key, value string) ([]byte, error) {
	_, body, end, ok := tableSpan(data, "project")
	if !ok {
		return nil, fmt.Errorf("pyproject has no [project] table")
	}
	re := regexp.MustCompile(`(?m)^([ \t]*` + regexp.QuoteMeta(key) + `[ \t]*=[ \t]*)("[^"\n]*"|'[^'\n]*')`)
	line := []byte(key + " = " + quote(value))
	if loc := re.FindSubmatchIndex(data[body:end]); loc != nil {
		return splice(data, body+loc[4], body+loc[5], []byte(quote(value))), nil
	}
	return splice(data, body, body, append(line, '\n')), nil
}

// tableSpan locates [name]: start of the header line, start of its body and
// the start of the next table (or EOF).
func tableSpan(data []byte, name string) (start, body, end int, ok bool) {
	bounds := tableBoundary.FindAllIndex(data, -1)
	for i, b := range bounds {
		lineEnd := bytes.IndexByte(data[b[0]:], '\n')
		next := len(data)
		if lineEnd >= 0 {
			next = b[0] + lineEnd + 1
		}
		header := strings.TrimRight(string(data[b[0]:next]), "\r\n")
		m := tableHeader.FindStringSubmatch(header)
		if m == nil || m[1] != name {
			continue
		}
		end = len(data)
		for _, nb := range bounds[i+1:] {
			if nb[0] >= next {
				end = nb[0]
				break
			}
		}
		return b[0], next, end, true
	}
	return 0, 0, 0, false
}

// closingBracket returns the offset just past the bracket or brace closing
// the one at data[open]. Strings and comments are skipped.
func closingBracket(data []byte, open int) (int, error) {
	depth := 0
	for i := open; i < len(data); i++ {
		switch c := data[i]; c {
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				return i + 1, nil
			}
		case '#':
			for i < len(data) && data[i] != '\n' {
				i++
			}
		case '"', '\'':
			j := i + 1
			for j < len(data) && data[j] != c && data[j] != '\n' {
				if c == '"' && data[j] == '\\' {
					j++
				}
				j++
			}
			i = j
		}
	}
	return 0, fmt.Errorf("unterminated %c in pyproject", data[open])
}

func renderArray(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	var b strings.Builder
	b.WriteString("[\n")
	for _, it := range items {
		b.WriteString("    " + quote(it) + ",\n")
	}
	b.WriteString("]")
	return b.String()
}

func renderInlineArray(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = quote(it)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

func splice(data []byte, from, to int, repl []byte) []byte {
	out := make([]byte, 0, len(data)-(to-from)+len(repl))
	out = append(out, data[:from]...)
	out = append(out, repl...)
	return append(out, data[to:]...)
}

func ensureTrailingNewline(data []byte) []byte {
	out := append([]byte(nil), data...)
	if len(out) > 0 && out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	return out
}
