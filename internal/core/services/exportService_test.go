package services

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sm8ta/webike_bikeshop_inventory/internal/adapter/logger"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteBikesCSV(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createBike(t, 123456, 200000)

	svc := NewExportService(f.bikes, f.loaners, logger.NewLoggerAdapter("test"))

	var buf bytes.Buffer
	require.NoError(t, svc.WriteBikesCSV(ctx, editor, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Ref,Marca,Modelo,Tipo,Talla,Precio Compra,Precio Venta,Estado,Fecha Entrada", lines[0])
	assert.Equal(t, "0001,Orbea,Alma,Mountain,M,1234.56€,2000.00€,Available,15/6/2025", lines[1])

	err := svc.WriteBikesCSV(ctx, viewer, &buf)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestWriteLoanersCSV(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bike := f.createLoaner(t)
	_, err := f.loaners.UpdateLoanerBike(ctx, editor, bike.ID, &domain.LoanerBikePatch{Observations: str("rear light, bell")})
	require.NoError(t, err)

	svc := NewExportService(f.bikes, f.loaners, logger.NewLoggerAdapter("test"))

	var buf bytes.Buffer
	require.NoError(t, svc.WriteLoanersCSV(ctx, admin, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Ref,Marca,Modelo,Talla,Estado,Observaciones", lines[0])
	assert.Equal(t, `P-001,BH,Atom,L,Available,"rear light, bell"`, lines[1])
}

func TestCSVFormatting(t *testing.T) {
	assert.Equal(t, "", csvPrice(0))
	assert.Equal(t, "19.99€", csvPrice(1999))
	assert.Equal(t, "", csvDate(nil))
	assert.Equal(t, "15/6/2025", csvDate(&fixedNow))
	march := time.Date(2025, 3, 1, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "1/3/2025", csvDate(&march))
}
