package services

import (
	"context"
	"time"

	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/domain"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/finance"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/ports"
	"golang.org/x/sync/errgroup"
)

type DashboardService struct {
	bikes   *BikeService
	loaners *LoanerService
	logger  ports.LoggerPort
	now     func() time.Time
}

func NewDashboardService(bikes *BikeService, loaners *LoanerService, logger ports.LoggerPort) *DashboardService {
	return &DashboardService{
		bikes:   bikes,
		loaners: loaners,
		logger:  logger,
		now:     time.Now,
	}
}

type KPILabels struct {
	StockValue  string `json:"stockValue"`
	StockCost   string `json:"stockCost"`
	TotalProfit string `json:"totalProfit"`
	TotalSales  string `json:"totalSales"`
}

type Dashboard struct {
	KPIs                  finance.KPIs                `json:"kpis"`
	Labels                KPILabels                   `json:"labels"`
	StatusDistribution    map[domain.BikeStatus]int   `json:"statusDistribution"`
	TypeDistribution      map[domain.BikeType]int     `json:"typeDistribution"`
	AvailableDistribution map[domain.BikeType]int     `json:"availableTypeDistribution"`
	TypeBreakdown         []finance.TypeSummary       `json:"typeBreakdown"`
	Performance           finance.Performance         `json:"performance"`
	LoanerCounts          map[domain.LoanerStatus]int `json:"loanerCounts"`
	Year                  int                         `json:"year"`
	Monthly               []finance.MonthlyData       `json:"monthly"`
	Annual                []finance.AnnualData        `json:"annual"`
	AvailableYears        []int                       `json:"availableYears"`
}

// GetDashboard loads both collections in parallel and derives every view.
// year selects the monthly series; zero means the latest year with sales,
// or the current year when nothing was sold yet.
func (s *DashboardService) GetDashboard(ctx context.Context, auth *domain.TokenPayload, year int) (*Dashboard, error) {
	if err := authorize(auth, permView); err != nil {
		return nil, err
	}

	var bikes []*domain.InventoryBike
	var loaners []*domain.LoanerBike
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		bikes, err = s.bikes.Snapshot(gctx, auth)
		return err
	})
	g.Go(func() error {
		var err error
		loaners, err = s.loaners.Snapshot(gctx, auth)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to load dashboard data", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	kpis := finance.ComputeKPIs(bikes)
	history := finance.SalesHistory(bikes)
	if year == 0 {
		year = s.now().UTC().Year()
		if len(history.AvailableYears) > 0 {
			year = history.AvailableYears[0]
		}
	}
	monthly, ok := history.Monthly[year]
	if !ok {
		monthly = finance.EmptyMonths()
	}

	return &Dashboard{
		KPIs: kpis,
		Labels: KPILabels{
			StockValue:  finance.FormatCurrency(&kpis.StockValue),
			StockCost:   finance.FormatCurrency(&kpis.StockCost),
			TotalProfit: finance.FormatCurrency(&kpis.TotalProfit),
			TotalSales:  finance.FormatCurrency(&kpis.TotalSales),
		},
		StatusDistribution:    finance.StatusDistribution(bikes),
		TypeDistribution:      finance.TypeDistribution(bikes, false),
		AvailableDistribution: finance.TypeDistribution(bikes, true),
		TypeBreakdown:         finance.TypeBreakdown(bikes),
		Performance:           finance.PerformanceOf(bikes),
		LoanerCounts:          finance.LoanerDistribution(loaners),
		Year:                  year,
		Monthly:               monthly,
		Annual:                history.Annual,
		AvailableYears:        history.AvailableYears,
	}, nil
}
