package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskspace/internal/auth"
	"taskspace/internal/config"
	"taskspace/internal/database"
	"taskspace/internal/handler"
	"taskspace/internal/metrics"
	"taskspace/internal/middleware"
	"taskspace/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Config *config.Config
}

// Migrate reconciles workspace_member and then applies the SQL migrations.
// Either failure aborts startup.
func Migrate(ctx context.Context, db *gorm.DB, cfg *config.Config, recorder database.Recorder) error {
	if err := database.NewReconciler(db, recorder).Run(ctx); err != nil {
		return fmt.Errorf("workspace_member reconciliation failed: %w", err)
	}
	return database.RunMigrations(cfg.DatabaseURL())
}

// migrateOrClose runs Migrate and releases the connection pool when it fails.
func migrateOrClose(ctx context.Context, db *gorm.DB, cfg *config.Config, recorder database.Recorder) error {
	if err := Migrate(ctx, db, cfg, recorder); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.Close()
		}
		return err
	}
	return nil
}

func Init(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, err
	}
	log.Println("✅ Connected to database")

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	if err := migrateOrClose(ctx, db, cfg, collector); err != nil {
		return nil, err
	}

	r := gin.Default()
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTExpiry)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	workspaceRepo := repository.NewWorkspaceRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	// Initialize handlers
	userHandler := handler.NewUserHandler(userRepo, tokens)
	workspaceHandler := handler.NewWorkspaceHandler(workspaceRepo, memberRepo, userRepo)
	taskHandler := handler.NewTaskHandler(taskRepo, memberRepo, collector)

	// Public routes
	r.POST("/register", userHandler.Register)
	r.POST("/login", userHandler.Login)
	r.GET("/metrics", gin.WrapH(metrics.Handler(registry)))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Protected routes - require authentication
	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	{
		// Workspace routes
		authorized.POST("/workspaces", workspaceHandler.Create)
		authorized.GET("/workspaces", workspaceHandler.GetAll)
		authorized.GET("/workspaces/:id/members", workspaceHandler.GetMembers)
		authorized.POST("/workspaces/:id/members", workspaceHandler.AddMember)
		authorized.DELETE("/workspaces/:id/members/:user_id", workspaceHandler.RemoveMember)
		authorized.GET("/workspaces/:id/tasks", taskHandler.GetByWorkspace)

		// Task routes
		authorized.POST("/tasks", taskHandler.Create)
		authorized.GET("/tasks/:id", taskHandler.GetByID)
		authorized.PUT("/tasks/:id", taskHandler.Update)
		authorized.DELETE("/tasks/:id", taskHandler.Delete)
		authorized.GET("/tasks/:id/priority", taskHandler.GetPriority)
		authorized.PUT("/tasks/:id/priority", taskHandler.UpdatePriority)
	}

	return &Server{
		Engine: r,
		DB:     db,
		Config: cfg,
	}, nil
}

func (s *Server) Run() {
	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	go func() {
		log.Printf("🚀 Server running on port %s\n", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %s", err)
	}

	if sqlDB, err := s.DB.DB(); err == nil {
		sqlDB.Close()
	}

	log.Println("✅ Server exited properly")
}
