package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"engage-points-system/handlers"
	"engage-points-system/middleware"
	"engage-points-system/models"
	"engage-points-system/services"
	"engage-points-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading environment variables directly")
	}

	if err := utils.InitLogger(); err != nil {
		log.Fatal("failed to initialize logger:", err)
	}
	defer utils.Logger.Sync()

	app := fiber.New(fiber.Config{
		BodyLimit: 32 * 1024 * 1024, // avatars and task images only
	})

	app.Use(requestid.New())
	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins(),
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, X-Request-ID",
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		utils.Sugar.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		utils.Sugar.Fatalw("failed to initialize R2 client", "error", err)
	}
	if !utils.R2Enabled() {
		utils.Sugar.Warn("R2 not configured, storing uploads on local disk")
	}

	// TranslateError turns driver-specific uniqueness violations into
	// gorm.ErrDuplicatedKey, which the services rely on for conflict and
	// referral-code retry handling.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		utils.Sugar.Fatalw("failed to connect to database", "error", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Task{},
		&models.Assignment{},
	); err != nil {
		utils.Sugar.Fatalw("failed to migrate database", "error", err)
	}

	if err := utils.EnsureUploadDir(); err != nil {
		utils.Sugar.Fatalw("failed to ensure upload dir", "error", err)
	}

	userService := services.NewUserService(db)
	taskService := services.NewTaskService(db)
	assignmentService := services.NewAssignmentService(db)
	rankingService := services.NewRankingService(db)

	handlers.SetupUserRoutes(app, userService, assignmentService, rankingService)
	handlers.SetupTaskRoutes(app, taskService)

	app.Static("/uploads", "./uploads")

	// Optional background sweep pushing new catalog tasks to everyone.
	if raw := os.Getenv("CATALOG_SWEEP_INTERVAL"); raw != "" {
		interval, err := time.ParseDuration(raw)
		if err != nil {
			utils.Sugar.Fatalw("invalid CATALOG_SWEEP_INTERVAL", "value", raw, "error", err)
		}
		assignmentService.StartCatalogSweep(interval)
		utils.Sugar.Infow("catalog sweep enabled", "interval", interval.String())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	port := os.Getenv("PORT")
	if port == "" {
		port = "3002"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			utils.Sugar.Errorw("server error", "error", err)
		}
	}()

	utils.Sugar.Infow("server running", "port", port)

	<-ctx.Done()
	utils.Sugar.Info("shutting down server")
	_ = app.Shutdown()
}

func allowedOrigins() string {
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		return origins
	}
	return "*"
}
