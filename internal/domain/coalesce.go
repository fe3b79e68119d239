package domain

import "strings"

// CoalesceStr returns the first value that is not blank, trimmed.
func CoalesceStr(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
