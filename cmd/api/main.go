package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/haulmarket/billing-service/pkg/events"
	"github.com/haulmarket/billing-service/pkg/kafka"
	"github.com/haulmarket/billing-service/pkg/logging"
	"github.com/haulmarket/billing-service/pkg/metrics"
	"github.com/haulmarket/billing-service/pkg/middleware"
	"github.com/haulmarket/billing-service/pkg/mongodb"
	"github.com/haulmarket/billing-service/pkg/outbox"
	outboxMongo "github.com/haulmarket/billing-service/pkg/outbox/mongodb"
	"github.com/haulmarket/billing-service/pkg/tracing"

	"github.com/haulmarket/billing-service/internal/api/handlers"
	"github.com/haulmarket/billing-service/internal/application"
	"github.com/haulmarket/billing-service/internal/domain"
	mongoRepo "github.com/haulmarket/billing-service/internal/infrastructure/mongodb"
	"github.com/haulmarket/billing-service/internal/infrastructure/renderer"
)

const serviceName = "billing-service"

func main() {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	if err := run(context.Background(), signalCh); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, signalCh <-chan os.Signal) error {
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting billing-service API")

	config := loadConfig()

	// Initialize OpenTelemetry tracing
	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	tracingConfig.Environment = getEnv("ENVIRONMENT", "development")
	tracingConfig.Enabled = getEnv("TRACING_ENABLED", "true") == "true"

	tracerProvider, err := tracing.Initialize(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "endpoint", tracingConfig.OTLPEndpoint)
	}

	// Initialize Prometheus metrics
	m := metrics.New(metrics.DefaultConfig(serviceName))
	logger.Info("Metrics initialized")

	// Register custom request validators before any binding happens
	middleware.InitValidator()

	// Initialize MongoDB
	mongoClient, err := mongodb.NewClient(ctx, config.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		return err
	}
	defer mongoClient.Close(ctx)
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	// Initialize Kafka producer
	producer := kafka.NewProducer(config.Kafka)
	defer producer.Close()
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

	eventFactory := events.NewEventFactory("/billing-service")

	// Initialize repositories
	db := mongoClient.Database()
	rateRepo := mongoRepo.NewRateCardRepository(db)
	serviceRepo := mongoRepo.NewAdditionalServiceRepository(db)
	discountRepo := mongoRepo.NewDiscountRepository(db)
	quotationRepo := mongoRepo.NewQuotationRepository(db)
	billingRepo := mongoRepo.NewBillingRepository(db)
	documentRepo := mongoRepo.NewDocumentRepository(db)
	driverPaymentRepo := mongoRepo.NewDriverPaymentRepository(db)
	shipmentRepo := mongoRepo.NewShipmentRepository(db)
	sequencer := mongoRepo.NewCounterSequencer(db, config.NumberPrefixes)
	outboxRepo := outboxMongo.NewOutboxRepository(db)
	txManager := mongoRepo.NewTxManager(mongoClient.Client(), config.TxnMaxRetries)

	// Initialize and start outbox publisher
	outboxPublisher := outbox.NewPublisher(outboxRepo, producer, logger, m, &outbox.PublisherConfig{
		PollInterval: 1 * time.Second,
		BatchSize:    100,
	})
	if err := outboxPublisher.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start outbox publisher")
		return err
	}
	defer func() {
		if err := outboxPublisher.Stop(); err != nil {
			logger.WithError(err).Warn("Failed to stop outbox publisher")
		}
	}()
	logger.Info("Outbox publisher started")

	// Rendering collaborator
	rendererClient := renderer.NewClient(renderer.Config{
		BaseURL: config.RendererURL,
		Timeout: 15 * time.Second,
	}, logger)

	// Initialize application services
	quotationService := application.NewQuotationService(
		rateRepo,
		serviceRepo,
		discountRepo,
		quotationRepo,
		domain.NewQuotationCalculator(config.VATRate, config.RoundedServiceRef),
		m,
		logger,
	)
	billingService := application.NewBillingService(
		billingRepo,
		documentRepo,
		sequencer,
		outboxRepo,
		eventFactory,
		txManager,
		rendererClient,
		m,
		logger,
		config.VATRate,
		config.IssuanceTimeout,
	)
	driverPaymentService := application.NewDriverPaymentService(
		driverPaymentRepo,
		shipmentRepo,
		documentRepo,
		sequencer,
		outboxRepo,
		eventFactory,
		txManager,
		rendererClient,
		m,
		logger,
		config.WHTRate,
	)
	shipmentService := application.NewShipmentService(shipmentRepo, logger)

	// Initialize handlers
	quotationHandler := handlers.NewQuotationHandler(quotationService, logger)
	billingHandler := handlers.NewBillingHandler(billingService, logger)
	documentHandler := handlers.NewDocumentHandler(billingService, logger)
	driverPaymentHandler := handlers.NewDriverPaymentHandler(driverPaymentService, logger)
	shipmentHandler := handlers.NewShipmentHandler(shipmentService, logger)

	// Setup Gin router with middleware
	router := gin.New()

	middlewareConfig := middleware.DefaultConfig(serviceName, logger.Logger)
	middleware.Setup(router, middlewareConfig)

	router.Use(middleware.MetricsMiddleware(m))
	router.Use(middleware.SimpleTracingMiddleware(serviceName))

	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		return mongoClient.HealthCheck(ctx)
	}))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		quotations := v1.Group("/quotations")
		{
			quotations.POST("", quotationHandler.Calculate)
			quotations.GET("/:quotationId", quotationHandler.GetQuotation)
		}

		billings := v1.Group("/billings")
		{
			billings.POST("", billingHandler.OpenBilling)
			billings.GET("", billingHandler.ListBillings)
			billings.GET("/:billingId", billingHandler.GetBilling)
			billings.POST("/:billingId/invoice", billingHandler.IssueInvoice)
			billings.POST("/:billingId/receipts", billingHandler.RecordReceipt)
			billings.POST("/:billingId/adjustments", billingHandler.PostAdjustment)
			billings.POST("/:billingId/cancel", billingHandler.CancelBilling)
		}

		documents := v1.Group("/documents")
		{
			documents.GET("/:ownerRef", documentHandler.GetDocument)
			documents.POST("/:ownerRef/regenerate", documentHandler.RegenerateDocument)
			documents.PUT("/:ownerRef/wht-received", documentHandler.MarkWHTReceived)
		}

		payments := v1.Group("/driver-payments")
		{
			payments.POST("", driverPaymentHandler.CreatePayment)
			payments.GET("/:paymentId", driverPaymentHandler.GetPayment)
		}

		drivers := v1.Group("/drivers")
		{
			drivers.GET("/:driverId/payments", driverPaymentHandler.ListPayments)
		}

		shipments := v1.Group("/shipments")
		{
			shipments.GET("", shipmentHandler.ListShipments)
			shipments.GET("/:shipmentId/billing", billingHandler.GetBillingByShipment)
		}
	}

	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Server error")
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	<-signalCh
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server stopped")
	return nil
}

// Config holds application configuration
type Config struct {
	ServerAddr        string
	MongoDB           *mongodb.Config
	Kafka             *kafka.Config
	RendererURL       string
	VATRate           float64
	WHTRate           float64
	RoundedServiceRef string
	IssuanceTimeout   time.Duration
	TxnMaxRetries     int
	NumberPrefixes    map[domain.DocumentType]string
}

func loadConfig() *Config {
	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8021"),
		MongoDB: &mongodb.Config{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "billing_db"),
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    100,
			MinPoolSize:    10,
		},
		Kafka: &kafka.Config{
			Brokers:       []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			ConsumerGroup: serviceName,
			ClientID:      serviceName,
			BatchSize:     100,
			BatchTimeout:  10 * time.Millisecond,
			RequiredAcks:  -1,
		},
		RendererURL:       getEnv("RENDERER_URL", "http://localhost:8030"),
		VATRate:           getEnvFloat("VAT_RATE", 0.07),
		WHTRate:           getEnvFloat("WHT_RATE", 0.01),
		RoundedServiceRef: getEnv("ROUNDED_SERVICE_REF", "round-trip"),
		IssuanceTimeout:   getEnvDuration("ISSUANCE_TIMEOUT", 10*time.Second),
		TxnMaxRetries:     getEnvInt("TXN_MAX_RETRIES", 3),
		NumberPrefixes: map[domain.DocumentType]string{
			domain.DocumentTypeInvoice:        getEnv("NUMBER_PREFIX_INVOICE", "INV"),
			domain.DocumentTypeReceipt:        getEnv("NUMBER_PREFIX_RECEIPT", "RCT"),
			domain.DocumentTypeAdjustment:     getEnv("NUMBER_PREFIX_ADJUSTMENT", "ADJ"),
			domain.DocumentTypeDriverPayment:  getEnv("NUMBER_PREFIX_DRIVER_PAYMENT", "PAY"),
			domain.DocumentTypeWHTCertificate: getEnv("NUMBER_PREFIX_WHT", "WHT"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
