package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lms/config"
	courseControllers "lms/controllers/course"
	quizControllers "lms/controllers/quiz"
	"lms/database"
	"lms/events"
	"lms/routers/courseRoutes"
	"lms/routers/quizRoutes"
	attemptService "lms/services/attempt"
	"lms/services/finalgrade"
	"lms/services/progress"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()

	cfg := config.AppConfig
	db := database.Database.Db

	bus := events.NewBus(cfg.EventWorkers, cfg.EventQueueSize)

	attempts := attemptService.NewManager(
		db,
		attemptService.NewSequencer(cfg.LockTimeoutMs),
		attemptService.NewAnswerValidator(),
		attemptService.NewGradingEngine(cfg.RequireTextReview),
		bus,
		cfg.EnforceTimeWindow,
	)
	tracker := progress.NewTracker(db, bus)
	aggregator := finalgrade.NewAggregator(db, finalgrade.Policy(cfg.FinalGradePolicy))
	dispatcher := utils.NewNotificationDispatcher(cfg.NotificationWebhookURL,
		time.Duration(cfg.NotificationTimeoutSeconds)*time.Second)

	// Event listeners
	bus.Subscribe(events.AttemptGradedEvent, aggregator.HandleAttemptGraded)
	bus.Subscribe(events.EnrollmentCompletedEvent, aggregator.HandleEnrollmentCompleted)
	bus.Subscribe(events.AttemptSubmittedEvent, dispatcher.Handle)
	bus.Subscribe(events.AttemptGradedEvent, dispatcher.Handle)
	if cfg.AutoGradeOnSubmit {
		bus.Subscribe(events.AttemptSubmittedEvent, attempts.HandleSubmitted)
	}

	scheduler, err := utils.InitializeFinalGradeScheduler(cfg.FinalGradeReconcileCron, aggregator)
	if err != nil {
		log.Fatalf("Invalid FINAL_GRADE_RECONCILE_CRON %q: %v", cfg.FinalGradeReconcileCron, err)
	}

	app := fiber.New()

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",        // Allowed HTTP methods
		AllowHeaders: "Content-Type,Authorization", // Allowed headers
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	quizRoutes.SetupQuizRoutes(app, quizControllers.NewAttemptController(attempts))
	courseRoutes.SetupCourseRoutes(app, courseControllers.NewProgressController(tracker))

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit

		log.Println("Shutting down...")
		if err := app.Shutdown(); err != nil {
			log.Printf("Server shutdown: %v", err)
		}
	}()

	log.Printf("Server is running on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Printf("Server stopped: %v", err)
	}

	<-scheduler.Stop().Done()
	bus.Close()
	log.Println("Shutdown complete.")
}
