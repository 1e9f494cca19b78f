package utils

import "strings"

func SplitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// TrimList trims every entry and drops the empty ones.
func TrimList(values []string) []string {
	return SplitAndTrim(strings.Join(values, ","))
}
