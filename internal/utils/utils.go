package utils

import (
	"fmt"
	"strings"
)

// Preview flattens s onto one line and cuts it to limit runes, noting how many
// runes were dropped. Multi-line documents stay readable in console logs.
func Preview(s string, limit int) string {
	if limit <= 0 {
		return ""
	}

	flat := strings.Join(strings.Fields(s), " ")
	runes := []rune(flat)
	if len(runes) <= limit {
		return flat
	}

	return fmt.Sprintf("%s… (+%d)", string(runes[:limit]), len(runes)-limit)
}
