package execution

import "strings"

// FormatSymbol normalizes venue symbol spellings to the bare asset name:
// "ETH-PERP" and "eth" become "ETH", "BTC/USD" becomes "BTC", "ETHUSDT"
// becomes "ETH".
func FormatSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))

	if idx := strings.Index(s, "-"); idx >= 0 {
		s = s[:idx]
	}
	if idx := strings.Index(s, "/"); idx >= 0 {
		s = s[:idx]
	}

	for _, suffix := range []string{"USDT", "USD", "PERP"} {
		if trimmed := strings.TrimSuffix(s, suffix); trimmed != "" {
			s = trimmed
		}
	}

	if s == "" {
		return strings.ToUpper(strings.TrimSpace(symbol))
	}
	return s
}
