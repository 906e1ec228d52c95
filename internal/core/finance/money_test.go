package finance

import (
	"testing"
	"time"

	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		name  string
		cents *int64
		want  string
	}{
		{name: "nil", cents: nil, want: "N/A"},
		{name: "zero", cents: ptr(int64(0)), want: "0\u00a0€"},
		{name: "rounds to whole euros", cents: ptr(int64(1234567)), want: "12.346\u00a0€"},
		{name: "small amount", cents: ptr(int64(75000)), want: "750\u00a0€"},
		{name: "four digits are not grouped", cents: ptr(int64(123400)), want: "1234\u00a0€"},
		{name: "five digits are grouped", cents: ptr(int64(1000000)), want: "10.000\u00a0€"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCurrency(tt.cents))
		})
	}
}

func TestDaysBetween(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		start  *time.Time
		end    *time.Time
		want   int
		wantOK bool
	}{
		{name: "missing start", start: nil, end: ptr(start), wantOK: false},
		{name: "missing end", start: ptr(start), end: nil, wantOK: false},
		{name: "same instant", start: ptr(start), end: ptr(start), want: 0, wantOK: true},
		{name: "same day later", start: ptr(start), end: ptr(start.Add(5 * time.Hour)), want: 0, wantOK: true},
		{name: "rounds half day up", start: ptr(start), end: ptr(start.Add(36 * time.Hour)), want: 2, wantOK: true},
		{name: "ten days", start: ptr(start), end: ptr(start.AddDate(0, 0, 10)), want: 10, wantOK: true},
		{name: "end before start", start: ptr(start), end: ptr(start.AddDate(0, 0, -3)), want: 0, wantOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DaysBetween(tt.start, tt.end)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)
		})
	}
}

func TestProfitMargin(t *testing.T) {
	m, ok := ProfitMargin(50000, 0, 75000)
	assert.True(t, ok)
	assert.InDelta(t, 33.333, m, 0.001)

	m, ok = ProfitMargin(50000, 10000, 50000)
	assert.True(t, ok)
	assert.InDelta(t, -20.0, m, 0.0001)

	for _, sell := range []int64{0, -1, -100000} {
		for _, purchase := range []int64{0, 1, 99999} {
			_, ok := ProfitMargin(purchase, 500, sell)
			assert.False(t, ok, "sell price %d must give no margin", sell)
		}
	}
}

func TestFinalSellPrice(t *testing.T) {
	assert.Equal(t, int64(75000), FinalSellPrice(domain.SaleCash, 75000, 20000))
	assert.Equal(t, int64(50000), FinalSellPrice(domain.SaleTradeIn, 30000, 20000))
}
