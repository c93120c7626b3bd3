package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/pixelfall/gallerybackend/config"
	"github.com/pixelfall/gallerybackend/database"
	"github.com/pixelfall/gallerybackend/handlers"
	"github.com/pixelfall/gallerybackend/media"
	"github.com/pixelfall/gallerybackend/repository"
	"github.com/pixelfall/gallerybackend/services"
	"github.com/pixelfall/gallerybackend/workers"
	"github.com/rs/cors"
	"golang.org/x/time/rate"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	storagePaths := []string{cfg.UploadsPath, cfg.CompressedPath, cfg.ThumbsPath, filepath.Dir(cfg.DatabasePath)}
	for _, p := range storagePaths {
		log.Printf("Ensuring storage directory exists: %s", p)
		if err := os.MkdirAll(p, 0755); err != nil {
			log.Fatalf("FATAL: Failed to create storage directory %s: %v", p, err)
		}
	}

	db, err := database.InitGormDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database: %v", err)
	}
	if err := database.AutoMigrateModels(db); err != nil {
		log.Fatalf("FATAL: Failed to migrate database schema: %v", err)
	}

	store, err := media.NewLocalStorage(cfg.UploadsPath, "/uploads",
		media.DefaultSubDirs(config.DefaultCompressedSubDir, config.DefaultThumbsSubDir))
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize upload store: %v", err)
	}
	if err := store.EnsureDirs(); err != nil {
		log.Fatalf("FATAL: Failed to prepare upload directories: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	photoRepo := repository.NewPhotoRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	likeRepo := repository.NewLikeRepository(db)

	photoService := services.NewPhotoService(photoRepo, store)
	aiService := services.NewAIService(cfg.AI, photoRepo, cfg.UploadsPath)

	sweeper := workers.NewOrphanSweeper(photoRepo, store, cfg.UploadsPath, cfg.CleanupInterval, cfg.CleanupGrace)
	sweeper.Start()

	log.Printf("Using database: %s", cfg.DatabasePath)
	log.Printf("Storing uploads in: %s", cfg.UploadsPath)
	if cfg.AI.Enabled() {
		log.Printf("AI analysis enabled (model: %s)", cfg.AI.Model)
	} else {
		log.Printf("AI analysis disabled (AI_API_BASE_URL / AI_API_KEY not set)")
	}

	r := chi.NewRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"}, //TODO: configurable
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	corsHandler := cors.New(corsOptions)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsHandler.Handler)

	authHandler := handlers.NewAuthHandler(userRepo, cfg)
	userHandler := handlers.NewUserHandler(userRepo)
	photoHandler := handlers.NewPhotoHandler(photoService, db)
	commentHandler := handlers.NewCommentHandler(commentRepo, photoRepo)
	likeHandler := handlers.NewLikeHandler(likeRepo, photoRepo)
	aiHandler := handlers.NewAIHandler(aiService)

	jwtSecret := []byte(cfg.JWTSecret)
	requireAuth := handlers.AuthMiddleware(userRepo, jwtSecret)
	optionalAuth := handlers.OptionalAuthMiddleware(userRepo, jwtSecret)
	uploadLimiter := handlers.NewRateLimiter(rate.Limit(cfg.UploadRPS), cfg.UploadBurst)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/register", authHandler.Register)
		})

		r.Route("/user", func(r chi.Router) {
			r.Post("/init-admin", userHandler.InitAdmin)
			r.With(requireAuth).Post("/change-password", userHandler.ChangePassword)
		})

		r.Route("/photos", func(r chi.Router) {
			r.With(optionalAuth).Get("/", photoHandler.List)
			r.Get("/activity", photoHandler.Activity)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth, handlers.RequireAdmin)
				r.With(uploadLimiter.Limit).Post("/upload", photoHandler.Upload)
				r.Post("/extract-metadata", photoHandler.ExtractMetadata)
				r.Get("/fix-thumbs", photoHandler.FixThumbs)
				r.Get("/fix-metadata", photoHandler.FixMetadata)
			})

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", photoHandler.Get)
				r.Group(func(r chi.Router) {
					r.Use(requireAuth, handlers.RequireAdmin)
					r.Patch("/", photoHandler.Update)
					r.Delete("/", photoHandler.Delete)
				})
			})
		})

		r.Route("/ai", func(r chi.Router) {
			r.Use(requireAuth, handlers.RequireAdmin, uploadLimiter.Limit)
			r.Post("/analyze/{id}", aiHandler.AnalyzePhoto)
			r.Post("/analyze-upload", aiHandler.AnalyzeUpload)
		})

		r.Route("/comments", func(r chi.Router) {
			r.Get("/", commentHandler.List)
			r.With(optionalAuth).Post("/", commentHandler.Create)
			r.With(requireAuth).Delete("/{id}", commentHandler.Delete)
		})

		r.Route("/likes", func(r chi.Router) {
			r.Get("/{photoId}/count", likeHandler.Count)
			r.Post("/{photoId}", likeHandler.Create)
		})
	})

	r.Get("/uploads/*", handlers.AssetServer(cfg.UploadsPath, "/uploads/"))
	log.Printf("Registered upload server at /uploads/*")

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	serverAddr := ":" + port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("FATAL: Server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	sweeper.Stop()
	log.Println("Server stopped")
}
