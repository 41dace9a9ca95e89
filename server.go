package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/mmdatafocus/invoicing_backend/config"
	"bitbucket.org/mmdatafocus/invoicing_backend/handlers"
	"bitbucket.org/mmdatafocus/invoicing_backend/middlewares"
	"bitbucket.org/mmdatafocus/invoicing_backend/models"
	"bitbucket.org/mmdatafocus/invoicing_backend/utils"
	"bitbucket.org/mmdatafocus/invoicing_backend/workflow"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

const defaultPort = "8080"

var tracer = otel.Tracer("invoicing-backend")

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// customErrorLogger logs only requests that accumulated gin errors.
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func registerRoutes(r *gin.Engine) {
	whatsApp := workflow.NewWhatsAppClient()
	invoiceHandler := &handlers.InvoiceHandler{WhatsApp: whatsApp}
	publicHandler := &handlers.PublicInvoiceHandler{
		EditAccess: workflow.NewEditAccessWorkflow(whatsApp),
	}

	api := r.Group("/api", middlewares.Auth())
	{
		api.POST("/invoices", invoiceHandler.CreateInvoice)
		api.POST("/invoices/on-the-fly", invoiceHandler.CreateInvoiceOnTheFly)
		api.GET("/invoices", invoiceHandler.ListInvoices)
		api.GET("/invoices/number/:number", invoiceHandler.GetInvoiceByNumber)
		api.GET("/invoices/:invoiceId", invoiceHandler.GetInvoice)
		api.PATCH("/invoices/:invoiceId", invoiceHandler.UpdateInvoice)
		api.DELETE("/invoices/:invoiceId", invoiceHandler.DeleteInvoice)

		api.POST("/invoices/:invoiceId/items", invoiceHandler.AddItem)
		api.PATCH("/invoices/items/:itemId", invoiceHandler.UpdateItem)
		api.DELETE("/invoices/items/:itemId", invoiceHandler.DeleteItem)

		api.POST("/invoices/:invoiceId/payments", invoiceHandler.AddPayment)
		api.GET("/invoices/:invoiceId/payments", invoiceHandler.ListPayments)

		api.POST("/invoices/:invoiceId/send", invoiceHandler.SendInvoice)
		api.POST("/invoices/:invoiceId/share", invoiceHandler.GenerateShareLink)
		api.DELETE("/invoices/:invoiceId/share", invoiceHandler.DisableShareLink)

		api.GET("/vouchers/validate/:code", invoiceHandler.ValidateVoucher)
	}

	// Edit-grant surface: a verified OTP yields a JWT scoped to exactly one
	// invoice; the grant check pins the token to the invoice in the route.
	edit := r.Group("/edit-api", middlewares.Auth(), middlewares.RequireEditGrant("invoiceId"))
	{
		edit.GET("/invoices/:invoiceId", invoiceHandler.GetInvoice)
		edit.PATCH("/invoices/:invoiceId", invoiceHandler.UpdateInvoice)
		edit.POST("/invoices/:invoiceId/items", invoiceHandler.AddItem)
	}

	// Public share-link surface: no auth, token is the capability.
	r.GET("/view/:token", publicHandler.ViewInvoice)
	r.POST("/edit/:token", publicHandler.RequestEditAccess)
	r.POST("/edit/:token/verify", publicHandler.VerifyEditAccess)
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return utils.IsValidPhoneNumber(fl.Field().String())
		})
	}

	// Start the HTTP server ASAP so Cloud Run considers the revision healthy.
	// Until DB/Redis are ready, app endpoints return 503.
	r := gin.New()
	r.Use(middlewares.CorrelationId())
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil || config.GetRedisDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// In production, require an explicit allowlist via CORS_ALLOWED_ORIGINS.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PATCH", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	registerRoutes(r)

	// Start listening immediately (Cloud Run startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()

	// AutoMigrate can run DDL that blocks tables; allow running migrations
	// as a separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}
