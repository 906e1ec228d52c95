package domain

import (
	"time"
)

// swagger:model domain.InventoryBike
type InventoryBike struct {
	ID               int64      `json:"id"`
	RefNumber        string     `json:"refNumber"`
	SerialNumber     *string    `json:"serialNumber"`
	Brand            string     `json:"brand"`
	Model            string     `json:"model"`
	Type             BikeType   `json:"type"`
	Size             string     `json:"size"`
	PurchasePrice    int64      `json:"purchasePrice"` // cents
	AdditionalCosts  int64      `json:"additionalCosts"`
	SellPrice        int64      `json:"sellPrice"`
	FinalSellPrice   *int64     `json:"finalSellPrice"`
	SoldDate         *time.Time `json:"soldDate"`
	Observations     string     `json:"observations"`
	ImageURL         *string    `json:"imageUrl"`
	Status           BikeStatus `json:"status"`
	EntryDate        *time.Time `json:"entryDate"`
	TradeInBikeID    *int64     `json:"tradeInBikeId"`
	TradeInForBikeID *int64     `json:"tradeInForBikeId"`
	DeletedAt        *time.Time `json:"deletedAt,omitempty"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

type BikeType string

const (
	Mountain BikeType = "Mountain"
	Road     BikeType = "Road"
	Ebike    BikeType = "Ebike"
	Gravel   BikeType = "Gravel"
	City     BikeType = "City"
	Kids     BikeType = "Kids"
)

var BikeTypes = []BikeType{Mountain, Road, Ebike, Gravel, City, Kids}

func (t BikeType) Valid() bool {
	for _, known := range BikeTypes {
		if t == known {
			return true
		}
	}
	return false
}

type BikeStatus string

const (
	StatusAvailable   BikeStatus = "Available"
	StatusReserved    BikeStatus = "Reserved"
	StatusSold        BikeStatus = "Sold"
	StatusUnavailable BikeStatus = "Unavailable"
)

var BikeStatuses = []BikeStatus{StatusAvailable, StatusReserved, StatusSold, StatusUnavailable}

func (s BikeStatus) Valid() bool {
	for _, known := range BikeStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// TotalCost is what the shop paid for the bike including repairs and extras.
func (b *InventoryBike) TotalCost() int64 {
	return b.PurchasePrice + b.AdditionalCosts
}

// InStock reports whether the bike still counts towards stock value.
func (b *InventoryBike) InStock() bool {
	return b.Status == StatusAvailable || b.Status == StatusReserved
}

// Settled reports whether the bike was sold with a recorded final price.
func (b *InventoryBike) Settled() bool {
	return b.Status == StatusSold && b.FinalSellPrice != nil
}

func (b *InventoryBike) IsDeleted() bool {
	return b.DeletedAt != nil
}

// BikeInput is the form data accepted when a bike enters the inventory.
type BikeInput struct {
	RefNumber       string   `json:"refNumber" validate:"required,max=32"`
	SerialNumber    *string  `json:"serialNumber,omitempty" validate:"omitempty,max=100"`
	Brand           string   `json:"brand" validate:"required,max=100"`
	Model           string   `json:"model" validate:"required,max=100"`
	Type            BikeType `json:"type" validate:"required,oneof=Mountain Road Ebike Gravel City Kids"`
	Size            string   `json:"size" validate:"required,max=20"`
	PurchasePrice   *int64   `json:"purchasePrice" validate:"required,min=0"`
	AdditionalCosts *int64   `json:"additionalCosts,omitempty" validate:"omitempty,min=0"`
	SellPrice       *int64   `json:"sellPrice" validate:"required,min=0"`
	Observations    string   `json:"observations,omitempty" validate:"max=2000"`
	ImageURL        *string  `json:"imageUrl,omitempty" validate:"omitempty,url"`
}

// BikePatch carries the fields of an update; nil means "leave unchanged".
// An empty ImageURL or SerialNumber clears the column.
type BikePatch struct {
	SerialNumber    *string     `json:"serialNumber,omitempty"`
	Brand           *string     `json:"brand,omitempty" validate:"omitempty,min=1,max=100"`
	Model           *string     `json:"model,omitempty" validate:"omitempty,min=1,max=100"`
	Type            *BikeType   `json:"type,omitempty" validate:"omitempty,oneof=Mountain Road Ebike Gravel City Kids"`
	Size            *string     `json:"size,omitempty" validate:"omitempty,min=1,max=20"`
	PurchasePrice   *int64      `json:"purchasePrice,omitempty" validate:"omitempty,min=0"`
	AdditionalCosts *int64      `json:"additionalCosts,omitempty" validate:"omitempty,min=0"`
	SellPrice       *int64      `json:"sellPrice,omitempty" validate:"omitempty,min=0"`
	Observations    *string     `json:"observations,omitempty" validate:"omitempty,max=2000"`
	ImageURL        *string     `json:"imageUrl,omitempty"`
	Status          *BikeStatus `json:"status,omitempty"`
}

func (p *BikePatch) Empty() bool {
	return p.SerialNumber == nil && p.Brand == nil && p.Model == nil && p.Type == nil &&
		p.Size == nil && p.PurchasePrice == nil && p.AdditionalCosts == nil &&
		p.SellPrice == nil && p.Observations == nil && p.ImageURL == nil && p.Status == nil
}

type BikeFilter struct {
	Status         BikeStatus
	Type           BikeType
	Search         string
	IncludeDeleted bool
}

// Matches applies the filter the way the listing does in SQL.
func (f BikeFilter) Matches(b *InventoryBike) bool {
	if b.IsDeleted() && !f.IncludeDeleted {
		return false
	}
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	if f.Type != "" && b.Type != f.Type {
		return false
	}
	if f.Search == "" {
		return true
	}
	return containsFold(b.RefNumber, f.Search) ||
		containsFold(b.Brand+" "+b.Model, f.Search) ||
		(b.SerialNumber != nil && containsFold(*b.SerialNumber, f.Search))
}
