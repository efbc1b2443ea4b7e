// Package latex converts an uploaded LaTeX document into a PDF and a zipped
// HTML rendition through an external toolchain.
package latex

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"
)

// ErrStructure marks a source that is not a well-formed LaTeX document.
var ErrStructure = errors.New("malformed latex document")

var (
	versionPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)
	envPattern     = regexp.MustCompile(`\\(begin|end)\s*\{([^{}]*)\}`)
	classPattern   = regexp.MustCompile(`\\documentclass\s*(\[[^\]]*\])?\s*\{`)
	verbPattern    = regexp.MustCompile(`^\\verb\*?([^A-Za-z\s])`)
	beginPattern   = regexp.MustCompile(`^\\begin\s*\{([^{}]*)\}`)
)

// verbatimEnvs are environments whose bodies are taken literally.
var verbatimEnvs = map[string]bool{
	"verbatim":   true,
	"verbatim*":  true,
	"Verbatim":   true,
	"lstlisting": true,
	"minted":     true,
	"comment":    true,
}

// ValidVersion reports whether v is usable as a version label. Labels end up
// in download file names, so only a filename-safe alphabet is allowed.
func ValidVersion(v string) bool {
	return versionPattern.MatchString(v)
}

func structureErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStructure, fmt.Sprintf(format, args...))
}

// Validate performs the structural checks that must pass before the
// toolchain is invoked.
func Validate(src []byte) error {
	if len(bytes.TrimSpace(src)) == 0 {
		return structureErr("empty source")
	}
	if !utf8.Valid(src) {
		return structureErr("source is not valid UTF-8")
	}
	text, err := stripSource(src)
	if err != nil {
		return err
	}

	classAt := classPattern.FindIndex(text)
	if classAt == nil {
		return structureErr(`missing \documentclass`)
	}

	var (
		stack      []string
		begins     int
		ends       int
		beginDocAt = -1
	)
	for _, m := range envPattern.FindAllSubmatchIndex(text, -1) {
		kind := string(text[m[2]:m[3]])
		name := string(bytes.TrimSpace(text[m[4]:m[5]]))
		if name == "" {
			return structureErr(`\%s with empty environment name`, kind)
		}
		if kind == "begin" {
			if name == "document" {
				begins++
				beginDocAt = m[0]
			}
			stack = append(stack, name)
			continue
		}
		if name == "document" {
			ends++
		}
		if len(stack) == 0 {
			return structureErr(`\end{%s} without matching \begin`, name)
		}
		if top := stack[len(stack)-1]; top != name {
			return structureErr(`\end{%s} closes \begin{%s}`, name, top)
		}
		stack = stack[:len(stack)-1]
	}
	if len(stack) > 0 {
		return structureErr(`\begin{%s} is never closed`, stack[len(stack)-1])
	}
	if begins != 1 || ends != 1 {
		return structureErr("expected exactly one document environment, found %d begin and %d end", begins, ends)
	}
	if classAt[0] > beginDocAt {
		return structureErr(`\documentclass must precede \begin{document}`)
	}
	return nil
}

// stripSource blanks comments, escaped characters and verbatim text, then
// checks that the remaining braces balance. Offsets in the returned text
// match src.
func stripSource(src []byte) ([]byte, error) {
	out := make([]byte, len(src))
	copy(out, src)
	depth := 0
	line := 1
	for i := 0; i < len(out); i++ {
		switch out[i] {
		case '\n':
			line++
		case '\\':
			if i+1 < len(out) && bytes.IndexByte([]byte(`\{}%$&#_^~ `), out[i+1]) >= 0 {
				out[i], out[i+1] = ' ', ' '
				i++
				break
			}
			rest := out[i:]
			if bytes.HasPrefix(rest, []byte(`\verb`)) {
				m := verbPattern.FindSubmatchIndex(rest)
				if m == nil {
					break
				}
				body := i + m[1]
				delim := out[i+m[2]]
				closeAt := bytes.IndexByte(out[body:], delim)
				if nl := bytes.IndexByte(out[body:], '\n'); closeAt < 0 || (nl >= 0 && nl < closeAt) {
					return nil, structureErr(`\verb on line %d is not terminated`, line)
				}
				end := body + closeAt + 1
				blank(out[i:end])
				i = end - 1
				break
			}
			if !bytes.HasPrefix(rest, []byte(`\begin`)) {
				break
			}
			m := beginPattern.FindSubmatchIndex(rest)
			if m == nil {
				break
			}
			name := string(bytes.TrimSpace(rest[m[2]:m[3]]))
			if !verbatimEnvs[name] {
				break
			}
			body := i + m[1]
			endAt := bytes.Index(out[body:], []byte(`\end{`+name+`}`))
			if endAt < 0 {
				return nil, structureErr(`\begin{%s} on line %d is never closed`, name, line)
			}
			line += blank(out[body : body+endAt])
			// resume on the \end token so its braces are counted
			i = body + endAt - 1
		case '%':
			for ; i < len(out) && out[i] != '\n'; i++ {
				out[i] = ' '
			}
			i--
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return nil, structureErr("unbalanced '}' on line %d", line)
			}
		}
	}
	if depth != 0 {
		return nil, structureErr("%d unclosed '{'", depth)
	}
	return out, nil
}

// blank overwrites b with spaces, keeping newlines, and returns how many
// newlines it kept.
func blank(b []byte) int {
	lines := 0
	for k := range b {
		if b[k] == '\n' {
			lines++
			continue
		}
		b[k] = ' '
	}
	return lines
}
