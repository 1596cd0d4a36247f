package main

import (
	"context"
	"net/http"
	"time"

	"github.com/bilimdonlar/maktabtest/config"
	"github.com/bilimdonlar/maktabtest/database"
	_ "github.com/bilimdonlar/maktabtest/docs" // Swagger docs - auto-generated
	adminctrl "github.com/bilimdonlar/maktabtest/internal/controller/admin"
	userctrl "github.com/bilimdonlar/maktabtest/internal/controller/user"
	"github.com/bilimdonlar/maktabtest/internal/logger"
	"github.com/bilimdonlar/maktabtest/internal/model"
	"github.com/bilimdonlar/maktabtest/internal/repository"
	"github.com/bilimdonlar/maktabtest/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title Maktab Test API
// @version 1.0
// @description School testing platform: test authoring, attempts, scoring and retakes.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
func main() {
	logger.Init()

	app := fx.New(
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			NewGinEngine,
		),

		fx.Provide(
			repository.NewUserRepository,
			repository.NewTestRepository,
			repository.NewQuestionRepository,
			repository.NewTestAttemptRepository,
			repository.NewAnswerRepository,
			repository.NewRetakeRequestRepository,
		),

		fx.Provide(
			service.NewAdminTestService,
			service.NewStudentTestService,
			service.NewAnswerService,
			service.NewResultsService,
			service.NewRetakeService,
			// AttemptService takes the question ceiling from config.
			func(
				userRepo repository.UserRepository,
				testRepo repository.TestRepository,
				attemptRepo repository.TestAttemptRepository,
				answerRepo repository.AnswerRepository,
				cfg *config.Config,
				db *gorm.DB,
			) service.AttemptService {
				return service.NewAttemptService(userRepo, testRepo, attemptRepo, answerRepo, cfg.Testing.QuestionLimit, db)
			},
		),

		fx.Provide(
			adminctrl.NewAdminTestController,
			adminctrl.NewAdminResultsController,
			adminctrl.NewAdminRetakeController,
			userctrl.NewStudentTestController,
			userctrl.NewAttemptController,
			userctrl.NewRetakeController,
		),

		fx.Invoke(AutoMigrateDB),
		fx.Invoke(RegisterRoutesAndStartServer),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

func NewGinEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// RegisterRoutesAndStartServer configures API routes and manages server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	adminTestCtrl *adminctrl.AdminTestController,
	adminResultsCtrl *adminctrl.AdminResultsController,
	adminRetakeCtrl *adminctrl.AdminRetakeController,
	studentTestCtrl *userctrl.StudentTestController,
	attemptCtrl *userctrl.AttemptController,
	retakeCtrl *userctrl.RetakeController,
) {
	adminAPIGroup := router.Group("/api/v1/admin")
	{
		testsAdminGroup := adminAPIGroup.Group("/tests")
		testsAdminGroup.POST("", adminTestCtrl.CreateTest)
		testsAdminGroup.GET("", adminTestCtrl.GetTeacherTests)
		testsAdminGroup.GET("/:test_id", adminTestCtrl.GetTest)
		testsAdminGroup.PUT("/:test_id", adminTestCtrl.UpdateTest)
		testsAdminGroup.GET("/:test_id/results", adminResultsCtrl.GetTestResults)
		testsAdminGroup.POST("/:test_id/students/:student_id/reopen", adminRetakeCtrl.ReopenTest)

		adminAPIGroup.GET("/results", adminResultsCtrl.GetAllResults)
		adminAPIGroup.GET("/retake-requests", adminRetakeCtrl.ListRetakeRequests)
		adminAPIGroup.POST("/retake-requests/:request_id/decision", adminRetakeCtrl.DecideRetakeRequest)
	}

	userAPIGroup := router.Group("/api/v1")
	{
		userAPIGroup.GET("/tests", studentTestCtrl.GetAvailableTests)
		userAPIGroup.GET("/tests/:test_id", studentTestCtrl.GetTestInfo)
		userAPIGroup.POST("/tests/:test_id/attempts", attemptCtrl.StartAttempt)
		userAPIGroup.POST("/tests/:test_id/retake-requests", retakeCtrl.FileRetakeRequest)

		userAPIGroup.POST("/attempts/:attempt_id/answers", attemptCtrl.SubmitAnswer)
		userAPIGroup.POST("/attempts/:attempt_id/finish", attemptCtrl.FinishAttempt)
		userAPIGroup.GET("/attempts/:attempt_id/result", attemptCtrl.GetAttemptResult)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Maktab Test API server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.User{},
		&model.Test{},
		&model.Question{},
		&model.Choice{},
		&model.TestAttempt{},
		&model.AttemptQuestion{},
		&model.Answer{},
		&model.TestResult{},
		&model.TestRetakeRequest{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}

	// Postgres enforces the single-incomplete-attempt rule; a partial unique
	// index is outside what AutoMigrate can express.
	if db.Dialector.Name() == "postgres" {
		if err := db.Exec(
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_one_incomplete_attempt
			 ON test_attempts (test_id, student_id)
			 WHERE is_completed = false AND deleted_at IS NULL`,
		).Error; err != nil {
			log.Error().Err(err).Msg("Failed to create partial unique index")
			return err
		}
	}

	log.Info().Msg("Database migration completed successfully.")
	return nil
}
