package domain

import (
	"strings"
	"time"
)

// swagger:model domain.LoanerBike
type LoanerBike struct {
	ID           int64        `json:"id"`
	RefNumber    string       `json:"refNumber"`
	SerialNumber *string      `json:"serialNumber"`
	Brand        string       `json:"brand"`
	Model        string       `json:"model"`
	Size         string       `json:"size"`
	Observations string       `json:"observations"`
	ImageURL     *string      `json:"imageUrl"`
	Status       LoanerStatus `json:"status"`
	EntryDate    *time.Time   `json:"entryDate"`
	LoanDetails  *LoanDetails `json:"loanDetails"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

type LoanerStatus string

const (
	LoanerAvailable LoanerStatus = "Available"
	LoanerPrestada  LoanerStatus = "Prestada"
	LoanerAlquilada LoanerStatus = "Alquilada"
)

func (s LoanerStatus) Valid() bool {
	return s == LoanerAvailable || s == LoanerPrestada || s == LoanerAlquilada
}

type LoanType string

const (
	LoanTypeLoan   LoanType = "Loan"
	LoanTypeRental LoanType = "Rental"
)

// StatusFor maps the kind of hand-over to the loaner status it produces.
func (t LoanType) StatusFor() LoanerStatus {
	if t == LoanTypeRental {
		return LoanerAlquilada
	}
	return LoanerPrestada
}

type LoanDetails struct {
	LoanType       LoanType  `json:"loanType" validate:"required,oneof=Loan Rental"`
	LoaneeName     string    `json:"loaneeName" validate:"required,max=200"`
	LoaneePhone    string    `json:"loaneePhone,omitempty" validate:"max=50"`
	LoaneeDni      string    `json:"loaneeDni,omitempty" validate:"max=50"`
	RentalDuration string    `json:"rentalDuration,omitempty" validate:"max=100"`
	LoanReason     string    `json:"loanReason,omitempty" validate:"max=500"`
	StartDate      time.Time `json:"startDate"`
}

// Normalize drops the field that does not belong to the loan type.
func (d *LoanDetails) Normalize() {
	if d.LoanType == LoanTypeRental {
		d.LoanReason = ""
	} else {
		d.RentalDuration = ""
	}
}

type LoanerBikeInput struct {
	RefNumber    string  `json:"refNumber" validate:"required,max=32"`
	SerialNumber *string `json:"serialNumber,omitempty" validate:"omitempty,max=100"`
	Brand        string  `json:"brand" validate:"required,max=100"`
	Model        string  `json:"model" validate:"required,max=100"`
	Size         string  `json:"size" validate:"required,max=20"`
	Observations string  `json:"observations,omitempty" validate:"max=2000"`
	ImageURL     *string `json:"imageUrl,omitempty" validate:"omitempty,url"`
}

type LoanerBikePatch struct {
	SerialNumber *string `json:"serialNumber,omitempty"`
	Brand        *string `json:"brand,omitempty" validate:"omitempty,min=1,max=100"`
	Model        *string `json:"model,omitempty" validate:"omitempty,min=1,max=100"`
	Size         *string `json:"size,omitempty" validate:"omitempty,min=1,max=20"`
	Observations *string `json:"observations,omitempty" validate:"omitempty,max=2000"`
	ImageURL     *string `json:"imageUrl,omitempty"`
}

func (p *LoanerBikePatch) Empty() bool {
	return p.SerialNumber == nil && p.Brand == nil && p.Model == nil &&
		p.Size == nil && p.Observations == nil && p.ImageURL == nil
}

type LoanerFilter struct {
	Status   LoanerStatus
	Search   string
	Page     int
	PageSize int
}

func (f LoanerFilter) Matches(b *LoanerBike) bool {
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	if f.Search == "" {
		return true
	}
	return containsFold(b.RefNumber, f.Search) ||
		containsFold(b.Brand+" "+b.Model, f.Search) ||
		(b.SerialNumber != nil && containsFold(*b.SerialNumber, f.Search))
}

type LoanerPage struct {
	Bikes       []*LoanerBike `json:"bikes"`
	Total       int           `json:"total"`
	TotalPages  int           `json:"totalPages"`
	HasNextPage bool          `json:"hasNextPage"`
}

// NewLoanerPage computes the paging summary for one page of a listing.
func NewLoanerPage(bikes []*LoanerBike, total, page, pageSize int) *LoanerPage {
	if bikes == nil {
		bikes = []*LoanerBike{}
	}
	totalPages := 1
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return &LoanerPage{
		Bikes:       bikes,
		Total:       total,
		TotalPages:  totalPages,
		HasNextPage: pageSize > 0 && total > page*pageSize,
	}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
