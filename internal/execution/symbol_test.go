package execution

import "testing"

func TestFormatSymbol(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"BTC", "BTC"},
		{"avax", "AVAX"},
		{" btc ", "BTC"},
		{"ETH-PERP", "ETH"},
		{"BTC/USD", "BTC"},
		{"ETHUSDT", "ETH"},
		{"BTCUSD", "BTC"},
		{"SOL", "SOL"},
		{"ETH-USD", "ETH"},
		{"SOL-PERP", "SOL"},
		{"USDT", "USDT"},
	}
	for _, tc := range cases {
		if got := FormatSymbol(tc.in); got != tc.want {
			t.Errorf("FormatSymbol(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
