package finance

import (
	"testing"
	"time"

	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func soldBike(purchase, extra, final int64, entry, sold time.Time, typ domain.BikeType) *domain.InventoryBike {
	return &domain.InventoryBike{
		Type:            typ,
		PurchasePrice:   purchase,
		AdditionalCosts: extra,
		FinalSellPrice:  ptr(final),
		Status:          domain.StatusSold,
		EntryDate:       ptr(entry),
		SoldDate:        ptr(sold),
	}
}

func fixtureBikes() []*domain.InventoryBike {
	jan := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	return []*domain.InventoryBike{
		{Type: domain.Road, Status: domain.StatusAvailable, PurchasePrice: 40000, AdditionalCosts: 5000, SellPrice: 60000},
		{Type: domain.Road, Status: domain.StatusReserved, PurchasePrice: 10000, SellPrice: 20000},
		{Type: domain.Kids, Status: domain.StatusUnavailable, PurchasePrice: 5000, SellPrice: 9000},
		soldBike(50000, 0, 75000, jan, jan.AddDate(0, 0, 10), domain.Mountain),
		soldBike(20000, 5000, 30000, jan, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), domain.Mountain),
		soldBike(10000, 0, 15000, jan, time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC), domain.Road),
		// sold without a final price does not count as a sale
		{Type: domain.City, Status: domain.StatusSold, PurchasePrice: 1000},
	}
}

func TestComputeKPIs(t *testing.T) {
	k := ComputeKPIs(fixtureBikes())

	assert.Equal(t, 2, k.UnitsInStock)
	assert.Equal(t, int64(80000), k.StockValue)
	assert.Equal(t, int64(55000), k.StockCost)
	assert.Equal(t, 3, k.UnitsSold)
	assert.Equal(t, int64(120000), k.TotalSales)
	assert.Equal(t, int64(25000+5000+5000), k.TotalProfit)
}

func TestBreakdownFor(t *testing.T) {
	entry := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	b := soldBike(50000, 0, 75000, entry, entry.AddDate(0, 0, 4), domain.Road)

	got := BreakdownFor(b)
	assert.Equal(t, int64(50000), got.TotalCost)
	require.NotNil(t, got.Profit)
	assert.Equal(t, int64(25000), *got.Profit)
	require.NotNil(t, got.ProfitMargin)
	assert.InDelta(t, 33.33, *got.ProfitMargin, 0.01)
	require.NotNil(t, got.DaysInStock)
	assert.Equal(t, 4, *got.DaysInStock)

	unsold := &domain.InventoryBike{Status: domain.StatusAvailable, PurchasePrice: 100, AdditionalCosts: 50, EntryDate: ptr(entry)}
	got = BreakdownFor(unsold)
	assert.Equal(t, int64(150), got.TotalCost)
	assert.Nil(t, got.Profit)
	assert.Nil(t, got.ProfitMargin)
	assert.Nil(t, got.DaysInStock)
}

func TestSalesHistory(t *testing.T) {
	h := SalesHistory(fixtureBikes())

	assert.Equal(t, []int{2025, 2024}, h.AvailableYears)
	require.Len(t, h.Monthly[2024], 12)
	assert.Equal(t, "Ene", h.Monthly[2024][0].Name)
	assert.Equal(t, 1, h.Monthly[2024][0].SalesCount)
	assert.Equal(t, int64(25000), h.Monthly[2024][0].Profit)
	assert.Equal(t, 1, h.Monthly[2024][2].SalesCount)
	assert.Equal(t, int64(5000), h.Monthly[2024][2].Profit)
	assert.Equal(t, 0, h.Monthly[2024][1].SalesCount)

	assert.Equal(t, []AnnualData{
		{Year: "2024", SalesCount: 2, Profit: 30000},
		{Year: "2025", SalesCount: 1, Profit: 5000},
	}, h.Annual)
}

func TestSalesHistoryEmpty(t *testing.T) {
	h := SalesHistory(nil)
	assert.Empty(t, h.AvailableYears)
	assert.Empty(t, h.Annual)
	assert.Empty(t, h.Monthly)
}

func TestPerformanceOf(t *testing.T) {
	assert.Equal(t, Performance{}, PerformanceOf(nil))

	p := PerformanceOf(fixtureBikes())
	require.NotNil(t, p.AvgProfitMargin)
	require.NotNil(t, p.AvgDaysInStock)
	// margins: 33.33, 16.67, 33.33
	assert.InDelta(t, 27.78, *p.AvgProfitMargin, 0.01)
}

func TestTypeBreakdownAndDistributions(t *testing.T) {
	bikes := fixtureBikes()

	breakdown := TypeBreakdown(bikes)
	require.Len(t, breakdown, 4)
	assert.Equal(t, domain.Road, breakdown[0].Type)
	assert.Equal(t, TypeSummary{Type: domain.Road, Total: 3, Sold: 1, InStock: 2}, breakdown[0])

	status := StatusDistribution(bikes)
	assert.Equal(t, 4, status[domain.StatusSold])
	assert.Equal(t, 1, status[domain.StatusAvailable])

	available := TypeDistribution(bikes, true)
	assert.Equal(t, map[domain.BikeType]int{domain.Road: 1}, available)
}
