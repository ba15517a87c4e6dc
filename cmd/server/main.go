package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/pathwise/backend/internal/assessment"
	"github.com/pathwise/backend/internal/auth"
	"github.com/pathwise/backend/internal/database"
	"github.com/pathwise/backend/internal/generator"
	"github.com/pathwise/backend/internal/middleware"
)

func main() {
	// Optional .env for local development
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded .env file")
	}

	db, err := database.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	authHandler := auth.NewHandler(db)

	store := assessment.NewStore(db)
	service := assessment.NewService(store)
	service.SetGenerator(generator.NewGenerator())
	assessmentHandler := assessment.NewHandler(service)

	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware)
	protected.HandleFunc("/auth/me", authHandler.GetCurrentUser).Methods("GET")

	protected.HandleFunc("/sessions", assessmentHandler.StartSession).Methods("POST")
	protected.HandleFunc("/sessions/{id}/next", assessmentHandler.NextItem).Methods("GET")
	protected.HandleFunc("/sessions/{id}/responses", assessmentHandler.SubmitResponse).Methods("POST")
	protected.HandleFunc("/sessions/{id}/results", assessmentHandler.SessionResults).Methods("GET")

	protected.HandleFunc("/profile", assessmentHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/recommendations", assessmentHandler.GetRecommendations).Methods("GET")

	protected.HandleFunc("/items", assessmentHandler.CreateItem).Methods("POST")
	protected.HandleFunc("/items", assessmentHandler.ListItems).Methods("GET")
	protected.HandleFunc("/items/generate", assessmentHandler.GenerateItems).Methods("POST")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	handler := c.Handler(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
