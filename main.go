package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/Andy54411/taskilo-payout-backend/database"
	"github.com/Andy54411/taskilo-payout-backend/internal/handlers"
	"github.com/Andy54411/taskilo-payout-backend/internal/models"
	"github.com/Andy54411/taskilo-payout-backend/internal/queue"
	"github.com/Andy54411/taskilo-payout-backend/internal/routes"
	"github.com/Andy54411/taskilo-payout-backend/internal/services"
	"github.com/Andy54411/taskilo-payout-backend/internal/storage"
)

func main() {
	// Load .env file for local development
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found - checking environment variables")
	}

	// Initialize storage
	var store storage.Store

	if os.Getenv("USE_MEMORY_STORE") == "true" {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		log.Println("📦 Connecting to PostgreSQL database...")
		database.Connect()

		log.Println("🔄 Running database migrations...")
		if err := database.DB.AutoMigrate(&models.BankVerification{}); err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		dbStore, err := storage.NewDatabaseStore(database.DB)
		if err != nil {
			log.Fatal("Failed to initialize database store:", err)
		}
		store = dbStore
		log.Println("✅ Using PostgreSQL database storage")
	}
	storage.SetStore(store)

	// Initialize the probe dispatcher (Revolut payouts API)
	dispatcher, err := services.NewRevolutDispatcher()
	if err != nil {
		log.Fatal("Failed to initialize probe dispatcher:", err)
	}
	log.Println("✅ Probe dispatcher initialized")

	// Initialize the event producer; optional for local runs
	var producer *queue.Producer
	if broker := os.Getenv("KAFKA_BROKER"); broker != "" {
		producer = queue.NewProducer(
			broker,
			getKafkaTopic(),
			os.Getenv("KAFKA_USERNAME"),
			os.Getenv("KAFKA_PASSWORD"),
		)
		log.Printf("✅ Kafka producer initialized (topic: %s)", getKafkaTopic())
	} else {
		log.Println("⚠️  KAFKA_BROKER not set - verification events will not be published")
	}

	verificationService := services.NewVerificationService(store, dispatcher, producer)

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "Taskilo Payout Backend v1.0.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Health check endpoint with database status
	healthHandler := handlers.NewHealthHandler("1.0.0")
	app.Get("/health", func(c *fiber.Ctx) error {
		status := "healthy"
		statusCode := 200

		if os.Getenv("USE_MEMORY_STORE") != "true" && database.DB != nil {
			sqlDB, err := database.DB.DB()
			if err != nil || sqlDB.Ping() != nil {
				status = "unhealthy"
				statusCode = 503
			}
		}

		return c.Status(statusCode).JSON(fiber.Map{
			"status": status,
			"services": fiber.Map{
				"database": status == "healthy",
				"events":   producer != nil,
			},
		})
	})
	app.Get("/", healthHandler.Check)

	// Setup routes
	routes.SetupRoutes(app, store, verificationService)

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("\n🛑 Gracefully shutting down...")
		if producer != nil {
			log.Println("⏹️  Closing event producer...")
			_ = producer.Close()
		}
		log.Println("⏹️  Shutting down server...")
		_ = app.Shutdown()
	}()

	// Start server
	log.Println("========================================")
	log.Printf("🚀 Taskilo Payout Backend starting on port %s", port)
	log.Printf("📊 Storage: %s", getStorageType())
	log.Println("========================================")

	log.Fatal(app.Listen(":" + port))
}

func getStorageType() string {
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		return "In-Memory (Testing)"
	}
	return "PostgreSQL Database"
}

func getKafkaTopic() string {
	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = "payout-verification-events"
	}
	return topic
}
