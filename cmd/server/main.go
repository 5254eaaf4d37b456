package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/organix-app/integration-api/configs"
	"github.com/organix-app/integration-api/internal/api/handlers"
	"github.com/organix-app/integration-api/internal/api/middleware"
	"github.com/organix-app/integration-api/internal/graph"
	"github.com/organix-app/integration-api/internal/identity"
	job "github.com/organix-app/integration-api/internal/jobs"
	"github.com/organix-app/integration-api/internal/queue"
	"github.com/organix-app/integration-api/internal/repository"
	"github.com/organix-app/integration-api/internal/service"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 2 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, x-tenant-id, x-publish-test-secret",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	tenantRepo := repository.NewTenantRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)
	credentialRepo := repository.NewCredentialRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	graphClient := graph.NewClient(cfg.GraphBaseURL, cfg.GraphAPIVersion)
	identityAdmin := identity.NewAdminClient(cfg.IdentityAdminURL, cfg.IdentityAdminKey)

	instagramService := service.NewInstagramService(*cfg, socialAccountRepo, credentialRepo, auditRepo, graphClient)
	tenantService := service.NewTenantService(tenantRepo, auditRepo, identityAdmin)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	api := app.Group("/api")

	instagramHandler := handlers.NewInstagramHandler(instagramService, client, *cfg)
	ig := api.Group("/instagram")
	ig.Get("/status", authMiddleware.RequireSession(), instagramHandler.Status)
	ig.Post("/manual-connect", authMiddleware.RequireAdmin(false), instagramHandler.ManualConnect)
	ig.Post("/disconnect", authMiddleware.RequireAdmin(false), instagramHandler.Disconnect)
	ig.Post("/publish-test", authMiddleware.RequireAdmin(true), instagramHandler.PublishTest)
	ig.Post("/publish-queue", authMiddleware.RequireAdmin(true), instagramHandler.PublishQueue)
	ig.Post("/delete-post", authMiddleware.RequireAdmin(false), instagramHandler.DeletePost)

	adminHandler := handlers.NewAdminHandler(tenantService)
	api.Post("/admin/register-tenant", authMiddleware.RequireAdmin(false), adminHandler.RegisterTenant)

	// cron jobs
	expiryJob := job.NewCredentialExpiryJob(credentialRepo)

	c := cron.New()
	c.AddFunc("@every 6h0m0s", expiryJob.CheckExpiring)
	c.Start()

	queueW := queue.NewQueue(instagramService)

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishTest, queueW.HandlePublishTestTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on %s", cfg.ListenAddr)

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
