package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Sumit21adm/School-Management-System-sub005/internal/billing"
	"github.com/Sumit21adm/School-Management-System-sub005/internal/handlers"
	appMiddleware "github.com/Sumit21adm/School-Management-System-sub005/internal/middleware"
	"github.com/Sumit21adm/School-Management-System-sub005/internal/repository"
	"github.com/Sumit21adm/School-Management-System-sub005/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Initialize Firebase
	credPath := os.Getenv("FIREBASE_CREDENTIALS_PATH")
	if credPath == "" {
		credPath = "./firebase-service-account.json"
	}

	authClient, err := services.InitFirebase(credPath)
	if err != nil {
		log.Printf("Warning: Firebase initialization failed: %v", err)
		log.Println("Auth features will not work until valid credentials are provided")
	}

	// Initialize Database
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	db, err := services.InitDB(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Initialize Redis; without it, fall back to in-process locking and no
	// cache, which is fine for a single-instance deployment.
	var cache *services.RedisCache
	var locker billing.Locker = billing.NewMemoryLocker()
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cache, err = services.NewRedisCache(redisURL)
		if err != nil {
			log.Printf("Warning: Redis initialization failed: %v", err)
		} else {
			locker = services.NewRedisLocker(cache)
		}
	} else {
		log.Println("Warning: REDIS_URL not set, using in-process locks and no cache")
	}

	// Billing engine
	store := repository.NewGormStore(db)
	composer := billing.NewBillComposer(store, locker)
	batch := billing.NewBatchGenerator(store, composer, 4)
	reconciler := billing.NewPaymentReconciler(store, locker)

	// Payment gateway
	gateway := services.NewGatewayService()
	payments := services.NewPaymentService(db, gateway, reconciler)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewRequestValidator()
	e.HTTPErrorHandler = appMiddleware.CustomErrorHandler

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authClient)
	billingHandler := handlers.NewBillingHandler(db, batch, reconciler)
	paymentHandler := handlers.NewPaymentHandler(db, reconciler, payments, gateway)
	structureHandler := handlers.NewStructureHandler(db, cache)
	publicHandler := handlers.NewPublicHandler(db, payments, gateway)

	// Public routes
	e.POST("/auth/login", authHandler.HandleLogin)
	e.POST("/auth/logout", authHandler.HandleLogout)
	e.POST("/payments/webhook", paymentHandler.HandleWebhook)
	e.GET("/pay/:uuid", publicHandler.ShowBill)
	e.POST("/pay/:uuid/initiate", publicHandler.InitiatePayment)
	e.GET("/pay/:uuid/status", publicHandler.CheckStatus)

	// Protected routes
	protected := e.Group("")
	protected.Use(appMiddleware.RequireAuth(authClient))

	// Demand bills
	protected.POST("/fees/demand-bills/generate", billingHandler.GenerateBills)
	protected.GET("/fees/demand-bills", billingHandler.ListBills)
	protected.GET("/fees/demand-bills/:uuid", billingHandler.GetBill)
	protected.GET("/fees/students/:id/ledger", billingHandler.StudentLedger)

	// Payments
	protected.POST("/payments", paymentHandler.RecordPayment)
	protected.POST("/payments/:id/void", paymentHandler.VoidPayment)
	protected.POST("/payments/initiate", paymentHandler.InitiatePayment)

	// Master data
	protected.GET("/fees/types", structureHandler.ListFeeTypes)
	protected.POST("/fees/types", structureHandler.CreateFeeType)
	protected.GET("/fees/structures", structureHandler.GetStructure)
	protected.PUT("/fees/structures", structureHandler.UpsertStructure)
	protected.GET("/fees/students/:id/discounts", structureHandler.ListDiscounts)
	protected.POST("/fees/discounts", structureHandler.CreateDiscount)
	protected.DELETE("/fees/discounts/:id", structureHandler.DeactivateDiscount)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	e.Logger.Fatal(e.Start(":" + port))
}
