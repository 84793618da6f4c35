package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"

	"academy_backend/internals/configs"
	database "academy_backend/internals/databases"
	attemptService "academy_backend/internals/features/exams/attempts/service"
	certificateService "academy_backend/internals/features/exams/certificates/service"
	helper "academy_backend/internals/helpers"
	middlewares "academy_backend/internals/middlewares"
	routes "academy_backend/internals/route"
)

func main() {
	configs.LoadEnv()

	app := fiber.New(fiber.Config{
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		ErrorHandler:            helper.ErrorHandler,
		DisableStartupMessage:   true,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"},
	})

	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())
	middlewares.SetupMiddlewares(app)

	// 🔌 DB connect + pool + warm-up
	database.ConnectDB()
	database.TunePool()
	if configs.GetEnvBool("AUTO_MIGRATE", false) {
		if err := database.Migrate(database.DB); err != nil {
			log.Fatalf("❌ migrate: %v", err)
		}
		log.Println("✅ Migration done")
	}
	database.WarmUpQueries()

	// certificate gate: redis cache and renderer are both optional
	certs := certificateService.NewCertificateService(database.DB, nil, nil)
	if configs.RedisURL != "" {
		rdb, err := database.ConnectRedis(configs.RedisURL)
		if err != nil {
			log.Printf("[WARN] certificate cache disabled: %v", err)
		} else {
			certs.Cache = rdb
			defer rdb.Close()
		}
	}
	if configs.CertRendererURL != "" {
		certs.Renderer = certificateService.NewHTTPRenderer(configs.CertRendererURL)
	}

	// ⏱ expiry sweeper after the DB is ready
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	attemptService.StartExpirySweeper(sweepCtx, attemptService.NewAttemptService(database.DB), configs.SweepInterval)

	routes.SetupRoutes(app, database.DB, certs)

	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	go func() {
		log.Printf("✅ Listening on :%s", configs.Port)
		if err := app.Listen("0.0.0.0:" + configs.Port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown + close the DB pool
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)

	if sqlDB, err := database.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
