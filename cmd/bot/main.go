package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fijter/discord-standupbot/internal/app"
	"github.com/fijter/discord-standupbot/internal/infra/config"
	idb "github.com/fijter/discord-standupbot/internal/infra/database"
	"github.com/fijter/discord-standupbot/internal/infra/discord"
	"github.com/fijter/discord-standupbot/internal/infra/logger"
	"github.com/fijter/discord-standupbot/internal/infra/scheduler"
	"github.com/fijter/discord-standupbot/internal/infra/web"
)

func main() {
	fmt.Println("Discord Standup Bot starting...")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not load application configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg)
	log.Infof("Configuration loaded. LogLevel: %s, Environment: %s", cfg.LogLevel, cfg.Environment)

	// Initialize Database Connection
	db, err := idb.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully.")

	if err := idb.RunMigrations(db); err != nil {
		log.Fatalf("FATAL: Could not run database migrations: %v", err)
	}
	log.Info("Database schema up to date.")

	// Initialize Repositories
	memberRepo := idb.NewPostgresMemberRepository(db)
	standupRepo := idb.NewPostgresStandupRepository(db)

	// Initialize Discord session and chat client
	session, err := discord.NewSession(cfg.DiscordToken)
	if err != nil {
		log.Fatalf("FATAL: Could not create Discord session: %v", err)
	}
	chatClient := discord.NewClient(session)

	// Initialize Services
	adminService := app.NewAdminService(standupRepo, memberRepo)
	standupService := app.NewStandupService(standupRepo, memberRepo, log)
	notifyService := app.NewNotifyService(memberRepo, chatClient, cfg.BaseURL, log)
	publishService := app.NewPublishService(standupRepo, memberRepo, chatClient, cfg.BaseURL, log)
	formService := app.NewFormService(standupRepo, memberRepo, cfg.BaseURL, log)
	log.Info("Services initialized.")

	// Register command handlers and open the gateway connection
	discord.NewCommandHandler(adminService, log).Register(session)
	if err := session.Open(); err != nil {
		log.Fatalf("FATAL: Could not open Discord connection: %v", err)
	}
	defer session.Close()
	log.Info("Discord connection established, command handlers registered.")

	// Start the poll scheduler
	standupScheduler := scheduler.NewStandupScheduler(
		standupService,
		notifyService,
		publishService,
		standupRepo,
		log,
		cfg.PollInterval,
		cfg.PublishInterval,
	)
	if err := standupScheduler.Start(); err != nil {
		log.Fatalf("FATAL: Could not start scheduler: %v", err)
	}

	// Start the form server
	server := web.NewServer(formService, adminService, cfg.AdminAPIToken, cfg.Environment, log)
	go func() {
		if err := server.Run(cfg.HTTPAddr); err != nil {
			log.Fatalf("FATAL: Form server stopped: %v", err)
		}
	}()

	log.Info("Application setup complete. Bot, scheduler and form server are running.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received

	log.Info("Shutting down application...")
	standupScheduler.Stop()
	log.Info("Application shut down gracefully.")
}
