package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoJSON means no parseable JSON object was found in a model response.
var ErrNoJSON = errors.New("no JSON object in model response")

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json|JSON)?\\s*(.*?)\\s*```$")

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

// ParseJSON decodes a model response into out. It tries a strict parse
// first and then the first balanced {...} region of the text.
func ParseJSON(raw string, out any) error {
	cleaned := stripCodeBlock(raw)
	strictErr := json.Unmarshal([]byte(cleaned), out)
	if strictErr == nil {
		return nil
	}

	region, ok := firstObject(cleaned)
	if !ok {
		return fmt.Errorf("%w: %v (raw: %s)", ErrNoJSON, strictErr, truncate(cleaned, 200))
	}
	if err := json.Unmarshal([]byte(region), out); err != nil {
		return fmt.Errorf("%w: %v (raw: %s)", ErrNoJSON, err, truncate(region, 200))
	}
	return nil
}

// firstObject returns the first brace-balanced {...} substring, ignoring
// braces inside JSON string literals.
func firstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	for start >= 0 {
		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(s); i++ {
			c := s[i]
			if inString {
				switch {
				case escaped:
					escaped = false
				case c == '\\':
					escaped = true
				case c == '"':
					inString = false
				}
				continue
			}
			switch c {
			case '"':
				inString = true
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
		// Unbalanced from this brace; try the next one.
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}
