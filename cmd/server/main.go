package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/mnbarber/bookden/internal/catalog"
	"github.com/mnbarber/bookden/internal/config"
	"github.com/mnbarber/bookden/internal/database"
	"github.com/mnbarber/bookden/internal/handlers"
	"github.com/mnbarber/bookden/internal/presence"
	"github.com/mnbarber/bookden/internal/repository"
	"github.com/mnbarber/bookden/internal/scheduler"
	"github.com/mnbarber/bookden/internal/services"
	"github.com/mnbarber/bookden/pkg/logger"
	"github.com/mnbarber/bookden/pkg/middleware"
	"github.com/mnbarber/bookden/pkg/ratelimit"
	"github.com/rs/cors"
)

func main() {
	logger.InitLogger()
	logger.Log.Info("Logger initialized")

	// Load configuration from .env file
	cfg := config.LoadConfig()

	// Connect to MongoDB
	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("Database connection error: %v", err)
	}

	// --- Repositories ---
	userRepo := repository.NewUserRepository(db)
	libraryRepo := repository.NewLibraryRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	goalRepo := repository.NewGoalRepository(db)
	chatRepo := repository.NewChatRepository(db)
	friendRepo := repository.NewFriendRepository(db)

	// --- Services ---
	userService := services.NewUserService(userRepo, cfg.JWTSecret)
	activityService := services.NewActivityService(activityRepo, userRepo)
	libraryService := services.NewLibraryService(libraryRepo, activityService)
	goalService := services.NewGoalService(goalRepo, libraryRepo)
	chatService := services.NewChatService(chatRepo)
	friendService := services.NewFriendService(friendRepo, userRepo)
	feedService := services.NewFeedService(activityRepo, userRepo, libraryRepo, libraryService)

	// --- Presence hub ---
	registry := presence.NewMemoryRegistry()
	hub := presence.NewHub(registry)

	// --- Catalog client ---
	catalogClient := catalog.NewClient("")

	// --- Handlers ---
	userHandler := handlers.NewUserHandler(userService)
	libraryHandler := handlers.NewLibraryHandler(libraryService)
	goalHandler := handlers.NewGoalHandler(goalService)
	feedHandler := handlers.NewFeedHandler(feedService)
	chatHandler := handlers.NewChatHandler(chatService, hub)
	wsChatHandler := handlers.NewWSChatHandler(chatService, hub, cfg.JWTSecret)
	friendHandler := handlers.NewFriendHandler(friendService)
	catalogHandler := handlers.NewCatalogHandler(catalogClient)

	// Expire goals whose window has passed
	goalCron := scheduler.StartGoalCronJobs(goalService)
	defer goalCron.Stop()

	limiter := ratelimit.New(cfg.RateRPS, cfg.RateBurst)

	// Initialize Gorilla Mux router
	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.RateLimitMiddleware(limiter))

	// Public user routes
	router.HandleFunc("/users/register", userHandler.RegisterUserHandler).Methods("POST")
	router.HandleFunc("/users/login", userHandler.LoginUserHandler).Methods("POST")

	// Protected user routes
	protectedUserRoutes := router.PathPrefix("/users").Subrouter()
	protectedUserRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	protectedUserRoutes.HandleFunc("/me", userHandler.UpdateProfileHandler).Methods("PUT")
	protectedUserRoutes.HandleFunc("/{id}", userHandler.GetUserHandler).Methods("GET")

	// Library routes. Catalog keys contain slashes, so they travel in
	// bodies and query parameters rather than the path.
	libraryRoutes := router.PathPrefix("/library").Subrouter()
	libraryRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	libraryRoutes.HandleFunc("", libraryHandler.GetLibraryHandler).Methods("GET")
	libraryRoutes.HandleFunc("/move", libraryHandler.MoveBookHandler).Methods("POST")
	libraryRoutes.HandleFunc("/rate", libraryHandler.RateBookHandler).Methods("POST")
	libraryRoutes.HandleFunc("/review", libraryHandler.ReviewBookHandler).Methods("POST")
	libraryRoutes.HandleFunc("/review", libraryHandler.DeleteReviewHandler).Methods("DELETE")
	libraryRoutes.HandleFunc("/progress", libraryHandler.UpdateProgressHandler).Methods("POST")
	libraryRoutes.HandleFunc("/{shelf}", libraryHandler.GetShelfHandler).Methods("GET")
	libraryRoutes.HandleFunc("/{shelf}", libraryHandler.AddToShelfHandler).Methods("POST")
	libraryRoutes.HandleFunc("/{shelf}", libraryHandler.RemoveFromShelfHandler).Methods("DELETE")

	// Goal routes
	goalRoutes := router.PathPrefix("/goals").Subrouter()
	goalRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	goalRoutes.HandleFunc("", goalHandler.CreateGoalHandler).Methods("POST")
	goalRoutes.HandleFunc("", goalHandler.GetGoalsHandler).Methods("GET")
	goalRoutes.HandleFunc("/progress", goalHandler.GetProgressHandler).Methods("GET")
	goalRoutes.HandleFunc("/{id}", goalHandler.UpdateGoalHandler).Methods("PUT")
	goalRoutes.HandleFunc("/{id}", goalHandler.DeleteGoalHandler).Methods("DELETE")

	// Feed routes
	feedRoutes := router.PathPrefix("/feed").Subrouter()
	feedRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	feedRoutes.HandleFunc("/friends", feedHandler.FriendsFeedHandler).Methods("GET")
	feedRoutes.HandleFunc("/public", feedHandler.PublicFeedHandler).Methods("GET")
	feedRoutes.HandleFunc("/{id}/like", feedHandler.ToggleLikeHandler).Methods("POST")

	// Chat routes
	chatRoutes := router.PathPrefix("/chats").Subrouter()
	chatRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	chatRoutes.HandleFunc("", chatHandler.GetConversationsHandler).Methods("GET")
	chatRoutes.HandleFunc("/unread", chatHandler.UnreadCountHandler).Methods("GET")
	chatRoutes.HandleFunc("/{userId}/open", chatHandler.OpenConversationHandler).Methods("POST")
	chatRoutes.HandleFunc("/{id}/messages", chatHandler.GetMessagesHandler).Methods("GET")
	chatRoutes.HandleFunc("/{id}/messages", chatHandler.SendMessageHandler).Methods("POST")
	chatRoutes.HandleFunc("/{id}/read", chatHandler.MarkReadHandler).Methods("POST")

	// Friend routes
	friendRoutes := router.PathPrefix("/friends").Subrouter()
	friendRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	friendRoutes.HandleFunc("/requests", friendHandler.SendFriendRequestHandler).Methods("POST")
	friendRoutes.HandleFunc("/requests", friendHandler.GetPendingRequestsHandler).Methods("GET")
	friendRoutes.HandleFunc("/requests/{id}", friendHandler.RespondToFriendRequestHandler).Methods("POST")
	friendRoutes.HandleFunc("", friendHandler.GetFriendsHandler).Methods("GET")
	friendRoutes.HandleFunc("/{id}", friendHandler.RemoveFriendHandler).Methods("DELETE")

	// Catalog routes
	catalogRoutes := router.PathPrefix("/catalog").Subrouter()
	catalogRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	catalogRoutes.HandleFunc("/search", catalogHandler.SearchBooksHandler).Methods("GET")
	catalogRoutes.HandleFunc("/book", catalogHandler.GetBookDetailsHandler).Methods("GET")

	// WebSocket endpoint authenticates via the token query parameter
	router.HandleFunc("/ws/chat", wsChatHandler.ServeWS)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      c.Handler(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	fmt.Printf("Server running on port %s\n", cfg.Port)
	log.Fatal(srv.ListenAndServe())
}
