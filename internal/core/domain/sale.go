package domain

import (
	"time"

	"github.com/google/uuid"
)

type SaleType string

const (
	SaleCash    SaleType = "Cash"
	SaleTradeIn SaleType = "TradeIn"
)

// TradeInDetails describes the bike a customer hands over as part payment.
// PurchasePrice is the valuation credited towards the sale.
type TradeInDetails struct {
	SerialNumber    *string  `json:"serialNumber,omitempty" validate:"omitempty,max=100"`
	Brand           string   `json:"brand" validate:"required,max=100"`
	Model           string   `json:"model" validate:"required,max=100"`
	Type            BikeType `json:"type" validate:"required,oneof=Mountain Road Ebike Gravel City Kids"`
	Size            string   `json:"size" validate:"required,max=20"`
	PurchasePrice   *int64   `json:"purchasePrice" validate:"required,min=0"`
	SellPrice       *int64   `json:"sellPrice" validate:"required,min=0"`
	AdditionalCosts *int64   `json:"additionalCosts,omitempty" validate:"omitempty,min=0"`
	Observations    string   `json:"observations,omitempty" validate:"max=2000"`
	ImageURL        *string  `json:"imageUrl,omitempty" validate:"omitempty,url"`
}

type SaleRequest struct {
	BikeID         int64           `json:"bikeId" validate:"required,min=1"`
	SaleType       SaleType        `json:"saleType" validate:"required,oneof=Cash TradeIn"`
	CashPortion    *int64          `json:"cashPortion" validate:"required,min=0"`
	TradeIn        *TradeInDetails `json:"tradeIn,omitempty"`
	IdempotencyKey string          `json:"-" validate:"max=100"`
}

// SaleRecord is what the store writes onto the bike being sold.
type SaleRecord struct {
	FinalSellPrice int64
	SoldDate       time.Time
	TradeInBikeID  *int64
}

type SaleResult struct {
	Bike        *InventoryBike `json:"bike"`
	TradeInBike *InventoryBike `json:"tradeInBike,omitempty"`
	Settlement  *Settlement    `json:"settlement"`
	Replayed    bool           `json:"replayed"`
}

type SettlementStatus string

const (
	SettlementPending             SettlementStatus = "pending"
	SettlementCompleted           SettlementStatus = "completed"
	SettlementFailed              SettlementStatus = "failed"
	SettlementNeedsReconciliation SettlementStatus = "needs_reconciliation"
	SettlementResolved            SettlementStatus = "resolved"
	SettlementDiscarded           SettlementStatus = "discarded"
)

func (s SettlementStatus) Valid() bool {
	switch s {
	case SettlementPending, SettlementCompleted, SettlementFailed,
		SettlementNeedsReconciliation, SettlementResolved, SettlementDiscarded:
		return true
	}
	return false
}

// Settlement is the persisted trace of one Sell operation.
type Settlement struct {
	ID               uuid.UUID        `json:"id"`
	IdempotencyKey   string           `json:"idempotencyKey"`
	BikeID           int64            `json:"bikeId"`
	SaleType         SaleType         `json:"saleType"`
	CashPortion      int64            `json:"cashPortion"`
	TradeInValuation int64            `json:"tradeInValuation"`
	FinalSellPrice   int64            `json:"finalSellPrice"`
	TradeInBikeID    *int64           `json:"tradeInBikeId"`
	Status           SettlementStatus `json:"status"`
	FailureReason    string           `json:"failureReason,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

type ResolveAction string

const (
	ResolveLink    ResolveAction = "link"
	ResolveDiscard ResolveAction = "discard"
)
