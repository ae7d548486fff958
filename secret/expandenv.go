package secret

import (
	"os"
	"slices"
	"strings"
)

// EnvRef is a ${NAME} reference with no value. Path locates the value it
// appeared in and is empty outside configuration documents.
type EnvRef struct {
	Path string
	Name string
}

func (r EnvRef) String() string {
	if r.Path == "" {
		return r.Name
	}
	return r.Path + ": " + r.Name
}

// MissingEnvError lists every unset braced reference found while expanding
// one value or one document. It matches ErrMissingEnv with errors.Is.
type MissingEnvError struct {
	Refs []EnvRef
}

// Add records name as missing at path. Repeats are dropped.
func (e *MissingEnvError) Add(path string, names ...string) {
	for _, name := range names {
		ref := EnvRef{Path: path, Name: name}
		if !slices.Contains(e.Refs, ref) {
			e.Refs = append(e.Refs, ref)
		}
	}
}

// Err returns e, or nil when nothing is missing.
func (e *MissingEnvError) Err() error {
	if e == nil || len(e.Refs) == 0 {
		return nil
	}
	return e
}

func (e *MissingEnvError) Error() string {
	parts := make([]string, len(e.Refs))
	for i, r := range e.Refs {
		parts[i] = r.String()
	}
	return ErrMissingEnv.Error() + ": " + strings.Join(parts, ", ")
}

func (e *MissingEnvError) Unwrap() error {
	return ErrMissingEnv
}

// Expander substitutes environment references in configuration values.
//
// ${NAME} must be set. $NAME becomes the empty string when unset. $$ is a
// literal $, and a $ not followed by a name is kept as written, so values
// such as "pa$5word" survive untouched.
type Expander struct {
	// Lookup reads one variable. Default: os.LookupEnv
	Lookup func(name string) (string, bool)
}

// Expand returns s with references substituted, plus the braced names that
// had no value in order of first appearance.
func (x Expander) Expand(s string) (string, []string) {
	if !strings.Contains(s, "$") {
		return s, nil
	}
	lookup := x.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	var (
		b       strings.Builder
		missing []string
	)
	b.Grow(len(s))
	for i := 0; i < len(s); {
		j := strings.IndexByte(s[i:], '$')
		if j < 0 {
			b.WriteString(s[i:])
			break
		}
		b.WriteString(s[i : i+j])
		i += j
		rest := s[i+1:]

		switch {
		case strings.HasPrefix(rest, "$"):
			b.WriteByte('$')
			i += 2
		case strings.HasPrefix(rest, "{"):
			end := strings.IndexByte(rest, '}')
			if end < 0 || nameLen(rest[1:end]) != end-1 || end == 1 {
				b.WriteByte('$')
				i++
				continue
			}
			name := rest[1:end]
			if v, ok := lookup(name); ok {
				b.WriteString(v)
			} else if !slices.Contains(missing, name) {
				missing = append(missing, name)
			}
			i += end + 2
		default:
			n := nameLen(rest)
			if n == 0 {
				b.WriteByte('$')
				i++
				continue
			}
			v, _ := lookup(rest[:n])
			b.WriteString(v)
			i += n + 1
		}
	}
	return b.String(), missing
}

// nameLen returns the length of the variable name at the start of s.
func nameLen(s string) int {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case '0' <= c && c <= '9' && i > 0:
		default:
			return i
		}
	}
	return len(s)
}

// ExpandEnvStrict expands s against the process environment. Every unset
// ${NAME} is reported in one *MissingEnvError.
func ExpandEnvStrict(s string) (string, error) {
	out, missing := Expander{}.Expand(s)
	if len(missing) > 0 {
		err := &MissingEnvError{}
		err.Add("", missing...)
		return "", err
	}
	return out, nil
}
