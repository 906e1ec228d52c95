package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/domain"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/ports"
)

const exportDateLayout = "2/1/2006"

var (
	bikeExportHeader   = []string{"Ref", "Marca", "Modelo", "Tipo", "Talla", "Precio Compra", "Precio Venta", "Estado", "Fecha Entrada"}
	loanerExportHeader = []string{"Ref", "Marca", "Modelo", "Talla", "Estado", "Observaciones"}
)

// ExportService renders the collections as CSV for spreadsheet use.
type ExportService struct {
	bikes   *BikeService
	loaners *LoanerService
	logger  ports.LoggerPort
}

func NewExportService(bikes *BikeService, loaners *LoanerService, logger ports.LoggerPort) *ExportService {
	return &ExportService{
		bikes:   bikes,
		loaners: loaners,
		logger:  logger,
	}
}

func (s *ExportService) WriteBikesCSV(ctx context.Context, auth *domain.TokenPayload, w io.Writer) error {
	if err := authorize(auth, permExport); err != nil {
		return err
	}
	bikes, err := s.bikes.Snapshot(ctx, auth)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(bikeExportHeader); err != nil {
		return err
	}
	for _, b := range bikes {
		row := []string{
			b.RefNumber,
			b.Brand,
			b.Model,
			string(b.Type),
			b.Size,
			csvPrice(b.PurchasePrice),
			csvPrice(b.SellPrice),
			string(b.Status),
			csvDate(b.EntryDate),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		s.logger.Error("Failed to write bikes export", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}

	s.logger.Info("Bikes exported", map[string]interface{}{
		"rows": len(bikes),
	})
	return nil
}

func (s *ExportService) WriteLoanersCSV(ctx context.Context, auth *domain.TokenPayload, w io.Writer) error {
	if err := authorize(auth, permExport); err != nil {
		return err
	}
	loaners, err := s.loaners.Snapshot(ctx, auth)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(loanerExportHeader); err != nil {
		return err
	}
	for _, b := range loaners {
		if err := cw.Write([]string{b.RefNumber, b.Brand, b.Model, b.Size, string(b.Status), b.Observations}); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		s.logger.Error("Failed to write loaners export", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}

	s.logger.Info("Loaner bikes exported", map[string]interface{}{
		"rows": len(loaners),
	})
	return nil
}

// csvPrice leaves a zero price blank.
func csvPrice(cents int64) string {
	if cents == 0 {
		return ""
	}
	return fmt.Sprintf("%.2f€", float64(cents)/100)
}

func csvDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(exportDateLayout)
}
