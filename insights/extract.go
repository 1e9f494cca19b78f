package insights

import "strings"

// ExtractObject returns the first balanced top-level JSON object in text.
// Braces inside string literals are ignored. ok is false when no complete object exists.
func ExtractObject(text string) (object string, ok bool) {
	start := strings.IndexByte(text, '{')
	for start >= 0 {
		if end := matchObject(text, start); end > 0 {
			return text[start:end], true
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

// matchObject returns the index just past the brace closing the object opened at start, or -1.
func matchObject(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
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
				return i + 1
			}
		}
	}
	return -1
}
