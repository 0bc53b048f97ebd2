package withdrawal

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeFee(t *testing.T) {
	tests := []struct {
		name    string
		gross   string
		percent string
		wantFee string
		wantNet string
	}{
		{
			name:    "сто по пять процентов",
			gross:   "100",
			percent: "5",
			wantFee: "5",
			wantNet: "95",
		},
		{
			name:    "дробная комиссия доокругляется до целой единицы",
			gross:   "33.3333",
			percent: "3",
			wantFee: "1", // 0.999999 → 1.0000 (half-up)
			wantNet: "32.3333",
		},
		{
			name:    "округление half-up вверх",
			gross:   "12.345",
			percent: "1",
			wantFee: "0.1235", // 0.12345 → 0.1235
			wantNet: "12.2215",
		},
		{
			name:    "нулевая комиссия",
			gross:   "50",
			percent: "0",
			wantFee: "0",
			wantNet: "50",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee, net := ComputeFee(
				decimal.RequireFromString(tt.gross),
				decimal.RequireFromString(tt.percent),
			)
			if !fee.Equal(decimal.RequireFromString(tt.wantFee)) {
				t.Errorf("fee = %s, ожидалось %s", fee, tt.wantFee)
			}
			if !net.Equal(decimal.RequireFromString(tt.wantNet)) {
				t.Errorf("net = %s, ожидалось %s", net, tt.wantNet)
			}
		})
	}
}

func TestFeePlusNetEqualsGross(t *testing.T) {
	// Комиссия и нетто всегда сходятся с gross без потерь на округлении
	grosses := []string{"100", "0.0001", "99.9999", "1234.5678", "10"}
	percents := []string{"3", "5", "7", "10", "2.5"}

	for _, g := range grosses {
		for _, p := range percents {
			gross := decimal.RequireFromString(g)
			fee, net := ComputeFee(gross, decimal.RequireFromString(p))
			if !fee.Add(net).Equal(gross) {
				t.Errorf("gross=%s pct=%s: fee %s + net %s != gross", g, p, fee, net)
			}
			if fee.IsNegative() || net.IsNegative() {
				t.Errorf("gross=%s pct=%s: отрицательные fee/net", g, p)
			}
		}
	}
}
