// Command controlplaned is the process entrypoint: load configuration, open
// the run store, build the scan/score/execute/rollback pipeline, and serve
// its HTTP surface. Admission policy is compiled once from ExecutorPolicy
// at startup; there is no bundle directory to poll or reload from.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/coldstore/sentinel/internal/admission"
	"github.com/coldstore/sentinel/internal/config"
	"github.com/coldstore/sentinel/internal/executor"
	"github.com/coldstore/sentinel/internal/httpapi"
	"github.com/coldstore/sentinel/internal/objectstore"
	"github.com/coldstore/sentinel/internal/rollback"
	"github.com/coldstore/sentinel/internal/scanner"
	"github.com/coldstore/sentinel/internal/scoring"
	"github.com/coldstore/sentinel/internal/store"
)

func main() {
	cfg := config.Load()

	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to open run store: %v", err)
	}
	runStore := store.New(db)

	client, err := objectstore.NewS3Client(cfg.AWSRegion)
	if err != nil {
		log.Fatalf("failed to build object store client: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	admissionEngine, err := admission.New(ctx, cfg.Executor.GrantedPermissions)
	if err != nil {
		log.Fatalf("failed to compile admission policy: %v", err)
	}

	sc := scanner.New(client, cfg.Scanner, cfg.Pricing, nil)
	sr := scoring.New(cfg.Pricing, cfg.Scanner.ApprovalRequiredBytes, nil)
	ex := executor.New(client, admissionEngine, cfg.Executor, nil)
	rb := rollback.New(client)

	svc := httpapi.NewService(runStore, sc, sr, ex, rb)
	h := httpapi.New(svc)

	app := fiber.New(fiber.Config{
		ErrorHandler: httpapi.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	httpapi.RegisterRoutes(app, h)

	go func() {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		if err := app.Listen(":" + port); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	cancel()
	_ = app.Shutdown()
}
