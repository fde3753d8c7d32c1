package siwe

import (
	"strings"
)

// Field is one "Key: value" line of a message.
type Field struct {
	Key   string
	Value string
}

// Message is a sign-in message split into its free-text header and the
// ordered key lines that follow it. Parsing never fails: lines that do not
// look like a key line are kept as text.
type Message struct {
	Header []string
	Fields []Field

	lines []string
}

// ParseMessage splits text on newlines and classifies each line.
func ParseMessage(text string) *Message {
	m := &Message{lines: strings.Split(text, "\n")}

	for _, line := range m.lines {
		key, value, ok := splitField(line)
		if !ok {
			if len(m.Fields) == 0 {
				m.Header = append(m.Header, strings.TrimRight(line, "\r"))
			}
			continue
		}
		m.Fields = append(m.Fields, Field{Key: key, Value: value})
	}

	return m
}

// Lookup returns the trimmed remainder of the first line that begins with
// key followed by a colon. Matching is a case-sensitive prefix match on the
// raw line, so "Nonce:abc" and "Nonce: abc" both match "Nonce".
func (m *Message) Lookup(key string) (string, bool) {
	prefix := key + ":"
	for _, line := range m.lines {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(line[len(prefix):]), true
		}
	}
	return "", false
}

// Values returns the first value of every key line.
func (m *Message) Values() map[string]string {
	values := make(map[string]string, len(m.Fields))
	for _, f := range m.Fields {
		if _, seen := values[f.Key]; !seen {
			values[f.Key] = f.Value
		}
	}
	return values
}

// Lines returns the raw lines of the message.
func (m *Message) Lines() []string {
	return m.lines
}

// splitField recognises "Key: value" and "Key:" lines. Keys are letters and
// inner spaces ("Chain ID", "Issued At"); the colon must be followed by
// whitespace or end the line, which keeps "https://..." out.
func splitField(line string) (string, string, bool) {
	idx := strings.IndexByte(line, ':')
	if idx <= 0 {
		return "", "", false
	}

	key := line[:idx]
	if !isKey(key) {
		return "", "", false
	}

	rest := line[idx+1:]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' && rest[0] != '\r' {
		return "", "", false
	}

	return key, strings.TrimSpace(rest), true
}

func isKey(s string) bool {
	if s[0] == ' ' || s[len(s)-1] == ' ' {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == ' ':
		default:
			return false
		}
	}
	return true
}
