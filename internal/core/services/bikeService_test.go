package services

import (
	"context"
	"testing"

	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBike(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.createBike(t, 50000, 80000)
	assert.Equal(t, "0001", first.RefNumber)
	assert.Equal(t, domain.StatusAvailable, first.Status)
	assert.Equal(t, int64(0), first.AdditionalCosts)
	require.NotNil(t, first.EntryDate)
	assert.Equal(t, fixedNow, *first.EntryDate)
	assert.Nil(t, first.FinalSellPrice)
	assert.Nil(t, first.SoldDate)

	second := f.createBike(t, 10000, 20000)
	assert.Equal(t, "0002", second.RefNumber)

	next, err := f.bikes.NextRefNumber(ctx, editor)
	require.NoError(t, err)
	assert.Equal(t, "0003", next)
}

func TestCreateBikeValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   *domain.BikeInput
	}{
		{name: "nil input", in: nil},
		{name: "missing purchase price", in: &domain.BikeInput{Brand: "Orbea", Model: "Alma", Type: domain.Road, Size: "M", SellPrice: cents(100)}},
		{name: "missing sell price", in: &domain.BikeInput{Brand: "Orbea", Model: "Alma", Type: domain.Road, Size: "M", PurchasePrice: cents(100)}},
		{name: "unknown type", in: &domain.BikeInput{Brand: "Orbea", Model: "Alma", Type: "Tandem", Size: "M", PurchasePrice: cents(1), SellPrice: cents(1)}},
		{name: "negative price", in: &domain.BikeInput{Brand: "Orbea", Model: "Alma", Type: domain.Road, Size: "M", PurchasePrice: cents(-1), SellPrice: cents(1)}},
		{name: "missing brand", in: &domain.BikeInput{Model: "Alma", Type: domain.Road, Size: "M", PurchasePrice: cents(1), SellPrice: cents(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.bikes.CreateBike(ctx, admin, tt.in)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestCreateBikeDuplicateRef(t *testing.T) {
	f := newFixture(t)
	f.createBike(t, 100, 200)

	_, err := f.bikes.CreateBike(context.Background(), admin, &domain.BikeInput{
		RefNumber: "0001", Brand: "Orbea", Model: "Alma", Type: domain.Road, Size: "M",
		PurchasePrice: cents(1), SellPrice: cents(1),
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestChangeStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bike := f.createBike(t, 50000, 80000)

	reserved, err := f.bikes.ChangeStatus(ctx, editor, bike.ID, domain.StatusReserved)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReserved, reserved.Status)

	unavailable, err := f.bikes.ChangeStatus(ctx, editor, bike.ID, domain.StatusUnavailable)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnavailable, unavailable.Status)

	same, err := f.bikes.ChangeStatus(ctx, editor, bike.ID, domain.StatusUnavailable)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnavailable, same.Status)

	_, err = f.bikes.ChangeStatus(ctx, editor, bike.ID, "Lost")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.bikes.ChangeStatus(ctx, editor, 9999, domain.StatusReserved)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChangeStatusToSoldAlwaysRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bike := f.createBike(t, 50000, 80000)

	for _, id := range []int64{bike.ID, 9999} {
		_, err := f.bikes.ChangeStatus(ctx, editor, id, domain.StatusSold)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	}

	got, err := f.bikes.GetBikeByID(ctx, viewer, bike.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAvailable, got.Status)
}

func TestChangeStatusOfSoldBike(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bike := f.createBike(t, 50000, 80000)

	_, err := f.bikes.SellBike(ctx, editor, &domain.SaleRequest{BikeID: bike.ID, SaleType: domain.SaleCash, CashPortion: cents(75000)})
	require.NoError(t, err)

	_, err = f.bikes.ChangeStatus(ctx, editor, bike.ID, domain.StatusAvailable)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	status := domain.StatusReserved
	_, err = f.bikes.UpdateBike(ctx, editor, bike.ID, &domain.BikePatch{Status: &status})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	observations := "sold with new tyres"
	updated, err := f.bikes.UpdateBike(ctx, editor, bike.ID, &domain.BikePatch{Observations: &observations})
	require.NoError(t, err)
	assert.Equal(t, observations, updated.Observations)
	assert.Equal(t, domain.StatusSold, updated.Status)
}

func TestUpdateBike(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bike := f.createBike(t, 50000, 80000)

	brand := "Specialized"
	price := int64(90000)
	updated, err := f.bikes.UpdateBike(ctx, editor, bike.ID, &domain.BikePatch{Brand: &brand, SellPrice: &price})
	require.NoError(t, err)
	assert.Equal(t, "Specialized", updated.Brand)
	assert.Equal(t, int64(90000), updated.SellPrice)
	assert.Equal(t, "Alma", updated.Model)

	sold := domain.StatusSold
	_, err = f.bikes.UpdateBike(ctx, editor, bike.ID, &domain.BikePatch{Status: &sold})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	empty := ""
	_, err = f.bikes.UpdateBike(ctx, editor, bike.ID, &domain.BikePatch{Brand: &empty})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.bikes.UpdateBike(ctx, editor, bike.ID, &domain.BikePatch{ImageURL: str("not a url")})
	assert.ErrorIs(t, err, domain.ErrValidation)

	unchanged, err := f.bikes.UpdateBike(ctx, editor, bike.ID, &domain.BikePatch{})
	require.NoError(t, err)
	assert.Equal(t, "Specialized", unchanged.Brand)
}

func TestUpdateBikeReplacesImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bike := f.createBike(t, 50000, 80000)

	withImage, err := f.bikes.SetBikeImage(ctx, editor, bike.ID, []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)
	require.NotNil(t, withImage.ImageURL)
	first := *withImage.ImageURL

	replaced, err := f.bikes.SetBikeImage(ctx, editor, bike.ID, []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)
	assert.NotEqual(t, first, *replaced.ImageURL)
	assert.Equal(t, []string{first}, f.images.deleted)

	cleared, err := f.bikes.UpdateBike(ctx, editor, bike.ID, &domain.BikePatch{ImageURL: str("")})
	require.NoError(t, err)
	assert.Nil(t, cleared.ImageURL)
	assert.Len(t, f.images.deleted, 2)
}

func TestDeleteBikeTombstones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sold := f.createBike(t, 50000, 80000)

	result, err := f.bikes.SellBike(ctx, editor, &domain.SaleRequest{
		BikeID:      sold.ID,
		SaleType:    domain.SaleTradeIn,
		CashPortion: cents(30000),
		TradeIn:     tradeInDetails(20000),
	})
	require.NoError(t, err)
	tradeIn := result.TradeInBike

	_, err = f.bikes.SetBikeImage(ctx, editor, tradeIn.ID, []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)

	require.NoError(t, f.bikes.DeleteBike(ctx, editor, tradeIn.ID))
	assert.Len(t, f.images.deleted, 1)

	got, err := f.bikes.GetBikeByID(ctx, viewer, tradeIn.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted())
	assert.Equal(t, "0002", got.RefNumber)
	assert.Empty(t, got.Brand)
	assert.Zero(t, got.PurchasePrice)
	assert.Nil(t, got.ImageURL)
	require.NotNil(t, got.TradeInForBikeID)
	assert.Equal(t, sold.ID, *got.TradeInForBikeID)

	original, err := f.bikes.GetBikeByID(ctx, viewer, sold.ID)
	require.NoError(t, err)
	require.NotNil(t, original.TradeInBikeID)
	assert.Equal(t, tradeIn.ID, *original.TradeInBikeID)

	listed, err := f.bikes.ListBikes(ctx, viewer, domain.BikeFilter{})
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	withDeleted, err := f.bikes.ListBikes(ctx, viewer, domain.BikeFilter{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Len(t, withDeleted, 2)

	next, err := f.bikes.NextRefNumber(ctx, editor)
	require.NoError(t, err)
	assert.Equal(t, "0003", next)

	brand := "Revived"
	_, err = f.bikes.UpdateBike(ctx, editor, tradeIn.ID, &domain.BikePatch{Brand: &brand})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.bikes.DeleteBike(ctx, editor, tradeIn.ID), domain.ErrNotFound)
	_, err = f.bikes.ChangeStatus(ctx, editor, tradeIn.ID, domain.StatusReserved)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListBikesFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.createBike(t, 100, 200)
	f.createBike(t, 100, 200)
	_, err := f.bikes.CreateBike(ctx, admin, &domain.BikeInput{
		Brand: "Brompton", Model: "C Line", Type: domain.City, Size: "One",
		SerialNumber: str("WTU-998"), PurchasePrice: cents(1), SellPrice: cents(2),
	})
	require.NoError(t, err)
	_, err = f.bikes.ChangeStatus(ctx, editor, a.ID, domain.StatusReserved)
	require.NoError(t, err)

	reserved, err := f.bikes.ListBikes(ctx, viewer, domain.BikeFilter{Status: domain.StatusReserved})
	require.NoError(t, err)
	require.Len(t, reserved, 1)
	assert.Equal(t, a.ID, reserved[0].ID)

	city, err := f.bikes.ListBikes(ctx, viewer, domain.BikeFilter{Type: domain.City})
	require.NoError(t, err)
	assert.Len(t, city, 1)

	bySerial, err := f.bikes.ListBikes(ctx, viewer, domain.BikeFilter{Search: "wtu"})
	require.NoError(t, err)
	assert.Len(t, bySerial, 1)

	byName, err := f.bikes.ListBikes(ctx, viewer, domain.BikeFilter{Search: "orbea alma"})
	require.NoError(t, err)
	require.Len(t, byName, 2)
	assert.Equal(t, "0002", byName[0].RefNumber)

	_, err = f.bikes.ListBikes(ctx, viewer, domain.BikeFilter{Status: "Lost"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGetFinancials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bike := f.createBike(t, 50000, 80000)

	_, err := f.bikes.SellBike(ctx, editor, &domain.SaleRequest{BikeID: bike.ID, SaleType: domain.SaleCash, CashPortion: cents(75000)})
	require.NoError(t, err)

	fin, err := f.bikes.GetFinancials(ctx, viewer, bike.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50000), fin.TotalCost)
	require.NotNil(t, fin.Profit)
	assert.Equal(t, int64(25000), *fin.Profit)
	require.NotNil(t, fin.ProfitMargin)
	assert.InDelta(t, 33.33, *fin.ProfitMargin, 0.01)
	require.NotNil(t, fin.DaysInStock)
	assert.Equal(t, 0, *fin.DaysInStock)
	assert.Nil(t, fin.TradeInBikeRef)
	assert.Equal(t, "500\u00a0€", fin.TotalCostLabel)
	assert.Equal(t, "250\u00a0€", fin.ProfitLabel)
	assert.Equal(t, "750\u00a0€", fin.FinalSellLabel)

	unsold := f.createBike(t, 1000, 2000)
	fin, err = f.bikes.GetFinancials(ctx, viewer, unsold.ID)
	require.NoError(t, err)
	assert.Nil(t, fin.Profit)
	assert.Equal(t, "N/A", fin.ProfitLabel)
}

func TestBikeAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bike := f.createBike(t, 100, 200)

	_, err := f.bikes.GetBikeByID(ctx, viewer, bike.ID)
	assert.NoError(t, err)

	_, err = f.bikes.GetBikeByID(ctx, pending, bike.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.bikes.ListBikes(ctx, nil, domain.BikeFilter{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.bikes.CreateBike(ctx, viewer, &domain.BikeInput{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.bikes.ChangeStatus(ctx, viewer, bike.ID, domain.StatusReserved)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.bikes.SellBike(ctx, viewer, &domain.SaleRequest{BikeID: bike.ID, SaleType: domain.SaleCash, CashPortion: cents(1)})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	assert.ErrorIs(t, f.bikes.DeleteBike(ctx, viewer, bike.ID), domain.ErrForbidden)

	unknown := &domain.TokenPayload{Role: "superuser"}
	_, err = f.bikes.Snapshot(ctx, unknown)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	assert.NoError(t, f.bikes.DeleteBike(ctx, editor, bike.ID))
}

func TestSnapshotCacheInvalidation(t *testing.T) {
	cache := newMapCache()
	f := newFixtureWithCache(t, cache)
	ctx := context.Background()
	first := f.createBike(t, 100, 200)

	bikes, err := f.bikes.Snapshot(ctx, viewer)
	require.NoError(t, err)
	assert.Len(t, bikes, 1)
	assert.True(t, cache.has(bikesCacheKey))

	_, err = f.bikes.GetBikeByID(ctx, viewer, first.ID)
	require.NoError(t, err)
	assert.True(t, cache.has(bikeCacheKey(first.ID)))

	f.createBike(t, 100, 200)
	assert.False(t, cache.has(bikesCacheKey))

	bikes, err = f.bikes.Snapshot(ctx, viewer)
	require.NoError(t, err)
	assert.Len(t, bikes, 2)

	_, err = f.bikes.ChangeStatus(ctx, editor, first.ID, domain.StatusReserved)
	require.NoError(t, err)
	assert.False(t, cache.has(bikesCacheKey))
	assert.False(t, cache.has(bikeCacheKey(first.ID)))

	got, err := f.bikes.GetBikeByID(ctx, viewer, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReserved, got.Status)
}
