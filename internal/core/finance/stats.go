package finance

import (
	"math"
	"sort"
	"strconv"

	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/domain"
)

var monthNames = [12]string{"Ene", "Feb", "Mar", "Abr", "May", "Jun", "Jul", "Ago", "Sep", "Oct", "Nov", "Dic"}

type Breakdown struct {
	TotalCost    int64    `json:"totalCost"`
	Profit       *int64   `json:"profit"`
	ProfitMargin *float64 `json:"profitMargin"`
	DaysInStock  *int     `json:"daysInStock"`
}

// BreakdownFor computes the financial view of a single bike. Profit and margin
// are only set once the bike is sold with a final price.
func BreakdownFor(b *domain.InventoryBike) Breakdown {
	out := Breakdown{TotalCost: b.TotalCost()}
	if b.Settled() {
		profit := *b.FinalSellPrice - out.TotalCost
		out.Profit = &profit
		if m, ok := ProfitMargin(b.PurchasePrice, b.AdditionalCosts, *b.FinalSellPrice); ok {
			out.ProfitMargin = &m
		}
	}
	if d, ok := DaysBetween(b.EntryDate, b.SoldDate); ok {
		out.DaysInStock = &d
	}
	return out
}

type KPIs struct {
	UnitsInStock int   `json:"unitsInStock"`
	StockValue   int64 `json:"stockValue"`
	StockCost    int64 `json:"stockCost"`
	UnitsSold    int   `json:"unitsSold"`
	TotalProfit  int64 `json:"totalProfit"`
	TotalSales   int64 `json:"totalSales"`
}

// ComputeKPIs sums stock over Available+Reserved bikes and sales over settled ones.
func ComputeKPIs(bikes []*domain.InventoryBike) KPIs {
	var k KPIs
	for _, b := range bikes {
		switch {
		case b.InStock():
			k.UnitsInStock++
			k.StockValue += b.SellPrice
			k.StockCost += b.TotalCost()
		case b.Settled():
			k.UnitsSold++
			k.TotalSales += *b.FinalSellPrice
			k.TotalProfit += *b.FinalSellPrice - b.TotalCost()
		}
	}
	return k
}

type MonthlyData struct {
	Month      int    `json:"month"`
	Name       string `json:"name"`
	SalesCount int    `json:"salesCount"`
	Profit     int64  `json:"profit"`
}

// EmptyMonths returns the twelve zeroed buckets of a year, January first.
func EmptyMonths() []MonthlyData {
	months := make([]MonthlyData, 12)
	for i := range months {
		months[i] = MonthlyData{Month: i, Name: monthNames[i]}
	}
	return months
}

type AnnualData struct {
	Year       string `json:"year"`
	SalesCount int    `json:"salesCount"`
	Profit     int64  `json:"profit"`
}

type History struct {
	Monthly        map[int][]MonthlyData `json:"monthly"`
	Annual         []AnnualData          `json:"annual"`
	AvailableYears []int                 `json:"availableYears"`
}

// SalesHistory buckets settled bikes by the UTC year and month of their sold date.
func SalesHistory(bikes []*domain.InventoryBike) History {
	h := History{Monthly: map[int][]MonthlyData{}, Annual: []AnnualData{}, AvailableYears: []int{}}
	annual := map[int]*AnnualData{}

	for _, b := range bikes {
		if !b.Settled() || b.SoldDate == nil {
			continue
		}
		sold := b.SoldDate.UTC()
		year, month := sold.Year(), int(sold.Month())-1
		profit := *b.FinalSellPrice - b.TotalCost()

		months, ok := h.Monthly[year]
		if !ok {
			months = EmptyMonths()
			h.Monthly[year] = months
			annual[year] = &AnnualData{Year: strconv.Itoa(year)}
			h.AvailableYears = append(h.AvailableYears, year)
		}
		months[month].SalesCount++
		months[month].Profit += profit
		annual[year].SalesCount++
		annual[year].Profit += profit
	}

	sort.Sort(sort.Reverse(sort.IntSlice(h.AvailableYears)))
	for i := len(h.AvailableYears) - 1; i >= 0; i-- {
		h.Annual = append(h.Annual, *annual[h.AvailableYears[i]])
	}
	return h
}

type Performance struct {
	AvgProfitMargin *float64 `json:"avgProfitMargin"`
	AvgDaysInStock  *int     `json:"avgDaysInStock"`
}

// PerformanceOf averages margin and days in stock over settled bikes.
// Both fields stay nil when nothing has been sold.
func PerformanceOf(bikes []*domain.InventoryBike) Performance {
	var p Performance
	var sold, margins, dayCount, daysSum int
	var marginSum float64
	for _, b := range bikes {
		if !b.Settled() || b.SoldDate == nil {
			continue
		}
		sold++
		if m, ok := ProfitMargin(b.PurchasePrice, b.AdditionalCosts, *b.FinalSellPrice); ok {
			marginSum += m
			margins++
		}
		if d, ok := DaysBetween(b.EntryDate, b.SoldDate); ok {
			daysSum += d
			dayCount++
		}
	}
	if sold == 0 {
		return p
	}
	avgMargin, avgDays := 0.0, 0
	if margins > 0 {
		avgMargin = marginSum / float64(margins)
	}
	if dayCount > 0 {
		avgDays = int(math.Round(float64(daysSum) / float64(dayCount)))
	}
	p.AvgProfitMargin = &avgMargin
	p.AvgDaysInStock = &avgDays
	return p
}

type TypeSummary struct {
	Type    domain.BikeType `json:"type"`
	Total   int             `json:"total"`
	Sold    int             `json:"sold"`
	InStock int             `json:"inStock"`
}

// TypeBreakdown lists bike types that have at least one bike, largest first.
func TypeBreakdown(bikes []*domain.InventoryBike) []TypeSummary {
	byType := map[domain.BikeType]*TypeSummary{}
	for _, t := range domain.BikeTypes {
		byType[t] = &TypeSummary{Type: t}
	}
	for _, b := range bikes {
		s, ok := byType[b.Type]
		if !ok {
			continue
		}
		s.Total++
		if b.Status == domain.StatusSold {
			s.Sold++
		} else if b.InStock() {
			s.InStock++
		}
	}

	out := []TypeSummary{}
	for _, t := range domain.BikeTypes {
		if byType[t].Total > 0 {
			out = append(out, *byType[t])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out
}

func StatusDistribution(bikes []*domain.InventoryBike) map[domain.BikeStatus]int {
	out := map[domain.BikeStatus]int{}
	for _, b := range bikes {
		out[b.Status]++
	}
	return out
}

// TypeDistribution counts bikes per type; onlyAvailable restricts it to Available stock.
func TypeDistribution(bikes []*domain.InventoryBike, onlyAvailable bool) map[domain.BikeType]int {
	out := map[domain.BikeType]int{}
	for _, b := range bikes {
		if onlyAvailable && b.Status != domain.StatusAvailable {
			continue
		}
		out[b.Type]++
	}
	return out
}

func LoanerDistribution(bikes []*domain.LoanerBike) map[domain.LoanerStatus]int {
	out := map[domain.LoanerStatus]int{}
	for _, b := range bikes {
		out[b.Status]++
	}
	return out
}
