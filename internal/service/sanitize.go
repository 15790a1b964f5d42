package service

import (
	"encoding/json"
	"strings"
)

// unmarshalModelJSON parses generator output into v. Models wrap JSON in
// markdown code fences and occasionally emit invalid escape sequences, so a
// direct parse is tried first and a sanitized one second.
func unmarshalModelJSON(raw string, v interface{}) error {
	if err := json.Unmarshal([]byte(raw), v); err == nil {
		return nil
	}
	cleaned := stripCodeFences(raw)
	if err := json.Unmarshal([]byte(cleaned), v); err == nil {
		return nil
	}
	return json.Unmarshal([]byte(repairEscapes(cleaned)), v)
}

// stripCodeFences removes a leading ```/```json fence and a trailing ```.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = s[3:]
		if strings.HasPrefix(strings.ToLower(s), "json") {
			s = s[4:]
		}
		s = strings.TrimLeft(s, " \t\r\n")
	}
	if strings.HasSuffix(strings.TrimSpace(s), "```") {
		s = strings.TrimSpace(s)
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}

// repairEscapes rewrites backslashes that do not begin a legal JSON escape
// sequence as literal backslashes.
func repairEscapes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if i+1 < len(s) {
			switch s[i+1] {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
				b.WriteByte(c)
				continue
			}
		}
		b.WriteString(`\\`)
	}
	return b.String()
}
