// sanitize.go - safe concatenation of human-readable labels into
// generated shader text
package shader

import "github.com/dlclark/regexp2"

// breakoutPattern matches a name that could terminate a `// name: ...`
// comment line early or open a block comment inside it: a newline, a
// `*/` sequence, or a `//` sequence anywhere except at the very end.
// regexp2 gives us the lookahead dlclark/regexp2 is pulled in for; the
// stdlib regexp engine cannot express it.
var breakoutPattern = regexp2.MustCompile(`[\r\n]|\*/|//(?!\z)`, regexp2.None)

// SanitizeName returns name if it is safe to splice into a generated
// comment line, or a fixed placeholder if not. unique_id, not this label,
// is what the emitter uses for correctness-sensitive identifiers, so a
// rejected name only degrades a diagnostic, never shader semantics.
func SanitizeName(name string) string {
	if name == "" {
		return "anonymous"
	}
	matched, err := breakoutPattern.MatchString(name)
	if err != nil || matched {
		return "unnamed"
	}
	return name
}
