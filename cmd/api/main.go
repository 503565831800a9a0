package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/navaex/portal/internal/admin"
	"github.com/navaex/portal/internal/alerts"
	"github.com/navaex/portal/internal/auth"
	"github.com/navaex/portal/internal/db"
	"github.com/navaex/portal/internal/identity"
	"github.com/navaex/portal/internal/logger"
	appmw "github.com/navaex/portal/internal/middleware"
	"github.com/navaex/portal/internal/payment"
	"github.com/navaex/portal/internal/rates"
	"github.com/navaex/portal/internal/request"
	"github.com/navaex/portal/internal/services"
	"github.com/navaex/portal/internal/upload"
	"github.com/navaex/portal/internal/user"
	w "github.com/navaex/portal/internal/wallet"
)

// CustomValidator adapts go-playground/validator to echo's interface.
type CustomValidator struct {
	validate *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	return cv.validate.Struct(i)
}

func main() {
	_ = godotenv.Load()
	logger.Init()
	defer logger.Sync()

	db.Init()
	alerts.Init()
	defer alerts.Close()
	if err := alerts.ConfigureMailerFromEnv(); err != nil {
		logger.L.Warn("mailer not configured, emails will fail", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	rates.StartRefresher(ctx)

	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validate: validator.New()}
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Health
	e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/ready", func(c echo.Context) error {
		if err := db.Conn.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "degraded"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	})

	// Public catalog and rates
	e.GET("/api/services", services.Catalog)
	e.GET("/api/services/:slug", services.GetBySlug)
	e.GET("/api/currencies", rates.List)

	// Auth, rate-limited against credential stuffing
	authGroup := e.Group("/api/auth")
	authGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(10)))
	authGroup.POST("/signup", auth.Signup)
	authGroup.POST("/login", auth.Login)
	authGroup.POST("/password-reset/request", auth.RequestPasswordReset)
	authGroup.POST("/password-reset/confirm", auth.ResetPassword)
	authGroup.POST("/bootstrap-admin", auth.BootstrapAdmin)

	// Gateway redirects the browser here; no session attached.
	e.GET("/api/payment/callback", request.Callback)

	// Stored receipts
	e.Static("/uploads", "./uploads")

	// Authenticated routes
	g := e.Group("/api")
	g.Use(appmw.JWTAuth)

	g.GET("/me", auth.Me)
	g.PATCH("/me", user.UpdateProfile)

	g.GET("/wallet", w.Balance)
	g.POST("/wallet", w.Action)
	g.POST("/wallet/topup", w.Topup)
	g.GET("/wallet/transactions", w.Transactions)
	g.POST("/payment/request", payment.Request)

	g.POST("/service-requests", request.Create)
	g.GET("/service-requests", request.ListMine)
	g.GET("/service-requests/:id", request.GetMine)

	g.GET("/identity", identity.Status)
	g.POST("/identity/national", identity.SubmitNational)
	g.POST("/identity/banking", identity.SubmitBanking)

	g.POST("/uploads/receipt", upload.Receipt)

	// Admin routes
	adminGroup := e.Group("/admin")
	adminGroup.Use(appmw.JWTAuth)
	adminGroup.Use(appmw.AdminGuard)

	adminGroup.GET("/services", services.AdminList)
	adminGroup.POST("/services", services.Create)
	adminGroup.PUT("/services/:id", services.Update)
	adminGroup.DELETE("/services/:id", services.Delete)

	adminGroup.GET("/requests", request.AdminList)
	adminGroup.PATCH("/requests/:id/status", request.UpdateStatus)
	adminGroup.POST("/requests/:id/notes", request.AddNote)

	adminGroup.GET("/identity/pending", identity.AdminPending)
	adminGroup.POST("/identity/:id/review", identity.AdminReview)

	adminGroup.PUT("/currencies", rates.Upsert)
	adminGroup.DELETE("/currencies/:code", rates.Delete)

	adminGroup.GET("/users", admin.ListUsers)
	adminGroup.POST("/users/:id/suspend", admin.SuspendUser)
	adminGroup.POST("/users/:id/activate", admin.ActivateUser)
	adminGroup.POST("/users/:id/promote", admin.PromoteAdmin)
	adminGroup.POST("/users/:id/demote", admin.DemoteAdmin)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	go func() {
		logger.L.Info("api server listening", zap.String("port", port))
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.L.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.L.Error("shutdown error", zap.Error(err))
	}
	db.Conn.Close()
}
