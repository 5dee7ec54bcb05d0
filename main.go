package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/SamMuaks2/projectsandtasks-backend/handlers"
	"github.com/SamMuaks2/projectsandtasks-backend/logging"
	"github.com/SamMuaks2/projectsandtasks-backend/middleware"
	"github.com/SamMuaks2/projectsandtasks-backend/repositories"
	"github.com/SamMuaks2/projectsandtasks-backend/services"
	"github.com/SamMuaks2/projectsandtasks-backend/storage"
	"github.com/SamMuaks2/projectsandtasks-backend/utils"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	logging.InitLogger()

	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting projects and tasks backend...")
	if err := godotenv.Load(".env"); err != nil {
		logging.Logger.Warnf("Event ID: ENV_LOAD_WARNING, Description: No .env file loaded: %v", err)
	}

	mongoURI := os.Getenv("MONGO_URI")
	mongoDBName := os.Getenv("MONGO_DB_NAME")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for MongoDB failed: %v", err)
	}
	defer mongoClient.Disconnect(ctx)

	if err := mongoClient.Ping(ctx, nil); err != nil {
		logging.Logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB connection ping error: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB at %s.", mongoURI)

	db := mongoClient.Database(mongoDBName)
	taskRepo := repositories.NewTaskRepo(db.Collection("tasks"))
	projectRepo := repositories.NewProjectRepo(db.Collection("projects"))
	fileRepo := repositories.NewFileRepo(db.Collection("files"))
	userRepo := repositories.NewUserRepo(db.Collection("users"))

	notificationRepo, err := repositories.NewNotificationRepo()
	if err != nil {
		logging.Logger.Fatalf("Event ID: CASS_SETUP_FAILED, Description: Cassandra setup failed: %v", err)
	}
	defer notificationRepo.CloseSession()
	notificationRepo.CreateTable()

	storageBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "CloudinaryCB",
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})

	cloudinary := storage.NewCloudinaryClient(
		os.Getenv("CLOUDINARY_CLOUD_NAME"),
		os.Getenv("CLOUDINARY_API_KEY"),
		os.Getenv("CLOUDINARY_API_SECRET"),
		"gic-projects/task-files",
		storageBreaker,
	)
	if !cloudinary.Configured() {
		logging.Logger.Warn("Event ID: STORAGE_NOT_CONFIGURED, Description: Cloudinary not configured, file uploads will fail.")
	}
	if !utils.IsEmailConfigured() {
		logging.Logger.Warn("Event ID: EMAIL_NOT_CONFIGURED, Description: SMTP not configured, notification emails are disabled.")
	}

	notifier := services.NewNotificationService(notificationRepo, userRepo)
	projectService := services.NewProjectService(projectRepo, taskRepo)
	taskService := services.NewTaskService(taskRepo, projectRepo, cloudinary, notifier, projectService)
	fileService := services.NewFileService(fileRepo, projectRepo, cloudinary)

	taskHandler := handlers.NewTaskHandler(taskService)
	projectHandler := handlers.NewProjectHandler(projectService)
	fileHandler := handlers.NewFileHandler(fileService)
	notificationHandler := handlers.NewNotificationHandler(notifier)

	r := mux.NewRouter()

	r.HandleFunc("/api/tasks", taskHandler.CreateTask).Methods(http.MethodPost)
	r.HandleFunc("/api/tasks", taskHandler.ListTasks).Methods(http.MethodGet)
	r.HandleFunc("/api/tasks/{id}", taskHandler.GetTask).Methods(http.MethodGet)
	r.HandleFunc("/api/tasks/{id}", taskHandler.UpdateTask).Methods(http.MethodPut)
	r.HandleFunc("/api/tasks/{id}", taskHandler.DeleteTask).Methods(http.MethodDelete)
	r.HandleFunc("/api/tasks/{id}/submit", taskHandler.SubmitWork).Methods(http.MethodPost)
	r.HandleFunc("/api/tasks/{id}/review", taskHandler.ReviewTask).Methods(http.MethodPost)
	r.HandleFunc("/api/tasks/{id}/submission-files", taskHandler.DeleteSubmissionFiles).Methods(http.MethodDelete)

	r.HandleFunc("/api/projects/{id}/statistics", projectHandler.GetStatistics).Methods(http.MethodGet)
	r.HandleFunc("/api/projects/{id}/progress", projectHandler.RecalculateProgress).Methods(http.MethodPost)

	r.HandleFunc("/api/files/upload", fileHandler.Upload).Methods(http.MethodPost)
	r.HandleFunc("/api/files/bulk-delete", fileHandler.BulkDelete).Methods(http.MethodPost)
	r.HandleFunc("/api/files/project/{projectId}", fileHandler.ListByProject).Methods(http.MethodGet)
	r.HandleFunc("/api/files/{fileId}", fileHandler.Get).Methods(http.MethodGet)
	r.HandleFunc("/api/files/{fileId}", fileHandler.Delete).Methods(http.MethodDelete)

	r.HandleFunc("/api/notifications", notificationHandler.List).Methods(http.MethodGet)
	r.HandleFunc("/api/notifications/{id}/read", notificationHandler.MarkRead).Methods(http.MethodPost)

	handler := enableCORS(middleware.JWTAuthMiddleware(r))

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: SERVER_PORT is not set in the environment variables.")
	}

	serverAddress := fmt.Sprintf(":%s", serverPort)
	logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", serverAddress)

	if err := http.ListenAndServe(serverAddress, handler); err != nil {
		logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
	}
}
