// Package finance holds the pure money, reference-number and reporting
// computations of the shop. All amounts are integer cents.
package finance

import (
	"math"
	"time"

	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	NotAvailable = "N/A"

	// es-ES only groups thousands from five integer digits on.
	groupingThreshold = 10000
)

var printer = message.NewPrinter(language.Spanish)

// FormatCurrency renders cents as whole euros the way es-ES does, with a
// no-break space before the sign: 1234567 -> "12.346 €", 123400 -> "1234 €".
func FormatCurrency(cents *int64) string {
	if cents == nil {
		return NotAvailable
	}
	euros := int64(math.Round(float64(*cents) / 100))
	if euros > -groupingThreshold && euros < groupingThreshold {
		return printer.Sprintf("%v\u00a0€", number.Decimal(euros, number.NoSeparator()))
	}
	return printer.Sprintf("%v\u00a0€", number.Decimal(euros))
}

// DaysBetween returns the whole days from start to end, never negative.
// ok is false when either date is missing.
func DaysBetween(start, end *time.Time) (days int, ok bool) {
	if start == nil || end == nil {
		return 0, false
	}
	d := math.Round(end.Sub(*start).Hours() / 24)
	if d < 0 {
		return 0, true
	}
	return int(d), true
}

// ProfitMargin is profit relative to the sell price, in percent.
// ok is false for a non-positive sell price.
func ProfitMargin(purchasePrice, additionalCosts, finalSellPrice int64) (margin float64, ok bool) {
	if finalSellPrice <= 0 {
		return 0, false
	}
	profit := finalSellPrice - (purchasePrice + additionalCosts)
	return float64(profit) / float64(finalSellPrice) * 100, true
}

// FinalSellPrice credits the trade-in valuation towards the sale.
func FinalSellPrice(saleType domain.SaleType, cashPortion, tradeInValuation int64) int64 {
	if saleType == domain.SaleTradeIn {
		return cashPortion + tradeInValuation
	}
	return cashPortion
}
