package service

import (
	"fmt"
	"strconv"
	"strings"
)

// formatAmount renders a money value with thousand separators, matching the
// notification copy users already see ("NT$ 50,000").
func formatAmount(value float64) string {
	text := strconv.FormatFloat(value, 'f', -1, 64)

	sign := ""
	if strings.HasPrefix(text, "-") {
		sign = "-"
		text = text[1:]
	}

	whole := text
	frac := ""
	if idx := strings.IndexByte(text, '.'); idx >= 0 {
		whole = text[:idx]
		frac = text[idx:]
	}

	var sb strings.Builder
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(digit)
	}
	return fmt.Sprintf("%s%s%s", sign, sb.String(), frac)
}
