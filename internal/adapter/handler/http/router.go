package http

import (
	"net/http"
	"strings"

	"github.com/sm8ta/webike_bikeshop_inventory/internal/config"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/ports"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Router struct {
	router *gin.Engine
}

func NewRouter(
	cfg *config.HTTP,
	tokenService ports.TokenService,
	bikeHandler *BikeHandler,
	loanerHandler *LoanerHandler,
	settlementHandler *SettlementHandler,
	dashboardHandler *DashboardHandler,
) (*Router, error) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(cfg.AllowedOrigins, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", idempotencyKeyHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", idempotencyKeyHeader},
		AllowCredentials: true,
	}))

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := AuthMiddleware(tokenService)

	// Inventory routes
	bikes := router.Group("/bikes")
	bikes.Use(auth)
	{
		bikes.POST("", bikeHandler.CreateBike)
		bikes.GET("", bikeHandler.ListBikes)
		bikes.GET("/next-ref", bikeHandler.NextRefNumber)
		bikes.GET("/:id", bikeHandler.GetBike)
		bikes.PUT("/:id", bikeHandler.UpdateBike)
		bikes.DELETE("/:id", bikeHandler.DeleteBike)
		bikes.PATCH("/:id/status", bikeHandler.ChangeStatus)
		bikes.POST("/:id/sell", bikeHandler.SellBike)
		bikes.GET("/:id/financials", bikeHandler.GetFinancials)
		bikes.POST("/:id/image", bikeHandler.UploadImage)
	}

	// Loaner routes
	loaners := router.Group("/loaners")
	loaners.Use(auth)
	{
		loaners.POST("", loanerHandler.CreateLoanerBike)
		loaners.GET("", loanerHandler.ListLoanerBikes)
		loaners.GET("/next-ref", loanerHandler.NextRefNumber)
		loaners.GET("/:id", loanerHandler.GetLoanerBike)
		loaners.PUT("/:id", loanerHandler.UpdateLoanerBike)
		loaners.DELETE("/:id", loanerHandler.DeleteLoanerBike)
		loaners.POST("/:id/loan", loanerHandler.LoanOrRent)
		loaners.POST("/:id/return", loanerHandler.ReturnLoanerBike)
		loaners.POST("/:id/image", loanerHandler.UploadImage)
	}

	// Settlement routes
	settlements := router.Group("/settlements")
	settlements.Use(auth)
	{
		settlements.GET("", settlementHandler.ListSettlements)
		settlements.POST("/:id/resolve", settlementHandler.ResolveSettlement)
	}

	router.GET("/dashboard", auth, dashboardHandler.GetDashboard)

	export := router.Group("/export")
	export.Use(auth)
	{
		export.GET("/bikes.csv", dashboardHandler.ExportBikes)
		export.GET("/loaners.csv", dashboardHandler.ExportLoaners)
	}

	return &Router{router: router}, nil
}

func (r *Router) Serve(addr string) error {
	return r.router.Run(addr)
}

func (r *Router) Engine() *gin.Engine {
	return r.router
}
