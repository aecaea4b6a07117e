package codec

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/systmms/secretsync/pkg/store"
)

// Dotenv reads and writes KEY=VALUE files. Blank lines and lines whose
// first non-whitespace character is '#' are ignored on decode and not
// preserved on encode: the remote secret is the source of truth for
// content, not layout.
type Dotenv struct{}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Name implements Codec.
func (Dotenv) Name() string { return "dotenv" }

// Decode implements Codec.
func (d Dotenv) Decode(data []byte) (store.Values, error) {
	values := store.NewValues()

	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		lineno := i + 1
		line = strings.TrimSuffix(line, "\r")

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		key, rawValue, found := strings.Cut(trimmed, "=")
		if !found {
			return store.Values{}, &Error{
				Codec: d.Name(), Kind: MalformedLine, Line: lineno,
				Why: "expected KEY=VALUE",
			}
		}

		key = strings.TrimSpace(key)
		if !identPattern.MatchString(key) {
			return store.Values{}, &Error{
				Codec: d.Name(), Kind: MalformedLine, Line: lineno, Key: key,
				Why: "key is not a valid identifier",
			}
		}

		value, err := unquote(strings.TrimSpace(rawValue))
		if err != nil {
			return store.Values{}, &Error{
				Codec: d.Name(), Kind: MalformedLine, Line: lineno, Key: key,
				Why: err.Error(),
			}
		}

		if _, dup := values.Get(key); dup {
			return store.Values{}, &Error{
				Codec: d.Name(), Kind: DuplicateKey, Line: lineno, Key: key,
			}
		}
		if err := values.Set(key, value); err != nil {
			return store.Values{}, &Error{
				Codec: d.Name(), Kind: DuplicateKey, Line: lineno, Key: key,
			}
		}
	}

	return values, nil
}

// Encode implements Codec.
func (d Dotenv) Encode(values store.Values) []byte {
	var buf bytes.Buffer
	for _, key := range values.Keys() {
		value, _ := values.Get(key)
		buf.WriteString(key)
		buf.WriteByte('=')
		buf.WriteString(maybeQuote(value))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// needsQuoting reports whether a value cannot survive as a bare token:
// whitespace, separators, comment markers, quotes and backslashes all
// require the quoted form.
func needsQuoting(value string) bool {
	return strings.ContainsAny(value, " \t\n\r=#\"'\\")
}

func maybeQuote(value string) string {
	if !needsQuoting(value) {
		return value
	}

	var b strings.Builder
	b.WriteByte('"')
	for _, r := range value {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// unquote strips surrounding quotes. Double-quoted values get escape
// processing; single-quoted values are literal.
func unquote(raw string) (string, error) {
	if len(raw) < 2 {
		return raw, nil
	}

	if raw[0] == '\'' && raw[len(raw)-1] == '\'' {
		return raw[1 : len(raw)-1], nil
	}
	if raw[0] != '"' || raw[len(raw)-1] != '"' {
		return raw, nil
	}

	inner := raw[1 : len(raw)-1]
	var b strings.Builder
	escaped := false
	for _, r := range inner {
		if !escaped {
			if r == '\\' {
				escaped = true
				continue
			}
			b.WriteRune(r)
			continue
		}
		escaped = false
		switch r {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case '"':
			b.WriteByte('"')
		case '\\':
			b.WriteByte('\\')
		default:
			// Unknown escape, keep verbatim
			b.WriteByte('\\')
			b.WriteRune(r)
		}
	}
	if escaped {
		b.WriteByte('\\')
	}
	return b.String(), nil
}

var _ Codec = Dotenv{}
