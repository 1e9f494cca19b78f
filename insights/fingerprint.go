package insights

import (
	"bytes"
	"encoding/json"
	"strconv"
	"unicode/utf16"
)

// CanonicalJSON renders v as compact JSON in struct field order, without HTML escaping.
// U+2028 and U+2029 are still escaped, so hashes only compare within this service.
func CanonicalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// HashText is a 31-multiplier rolling hash over UTF-16 code units, wrapped to int32 and
// printed in base 36. Negative values keep their sign.
func HashText(s string) string {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(c)
	}
	return strconv.FormatInt(int64(h), 36)
}

// Fingerprint identifies the content of a summary. Equal summaries always hash equal.
// It is a change detector, not a collision-resistant digest.
func Fingerprint(summary DataSummary) (string, error) {
	text, err := CanonicalJSON(summary)
	if err != nil {
		return "", err
	}
	return HashText(text), nil
}
