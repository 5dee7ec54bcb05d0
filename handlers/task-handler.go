package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/SamMuaks2/projectsandtasks-backend/logging"
	"github.com/SamMuaks2/projectsandtasks-backend/middleware"
	"github.com/SamMuaks2/projectsandtasks-backend/models"
	"github.com/SamMuaks2/projectsandtasks-backend/services"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxSubmissionFiles = 10
const maxUploadBytes = 100 << 20 // 100MB

type TaskHandler struct {
	service *services.TaskService
}

func NewTaskHandler(service *services.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

type createTaskRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ProjectID   string  `json:"projectId"`
	AssignedTo  *string `json:"assignedTo,omitempty"`
	Priority    string  `json:"priority,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"`
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	projectID, err := primitive.ObjectIDFromHex(req.ProjectID)
	if err != nil {
		http.Error(w, "Valid project ID is required", http.StatusBadRequest)
		return
	}

	input := services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		ProjectID:   projectID,
		Priority:    models.TaskPriority(req.Priority),
	}
	if req.AssignedTo != nil {
		assigneeID, err := primitive.ObjectIDFromHex(*req.AssignedTo)
		if err != nil {
			http.Error(w, "Invalid assignee ID format", http.StatusBadRequest)
			return
		}
		input.AssignedTo = &assigneeID
	}
	if req.DueDate != nil {
		dueDate, err := time.Parse(time.RFC3339, *req.DueDate)
		if err != nil {
			http.Error(w, "Invalid due date format", http.StatusBadRequest)
			return
		}
		input.DueDate = &dueDate
	}

	task, err := h.service.CreateTask(r.Context(), input, actor)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var projectID *primitive.ObjectID
	if raw := r.URL.Query().Get("projectId"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			http.Error(w, "Invalid project ID format", http.StatusBadRequest)
			return
		}
		projectID = &id
	}

	tasks, err := h.service.ListTasks(r.Context(), actor, projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := h.actorAndTaskID(w, r)
	if !ok {
		return
	}

	task, err := h.service.GetTask(r.Context(), taskID, actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// SubmitWork reads the multipart submission (work text plus up to ten
// attachments) and hands it to the lifecycle engine.
func (h *TaskHandler) SubmitWork(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := h.actorAndTaskID(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Invalid multipart payload", http.StatusBadRequest)
		return
	}

	work := r.FormValue("work")

	var uploads []services.FileUpload
	if r.MultipartForm != nil {
		fileHeaders := r.MultipartForm.File["files"]
		if len(fileHeaders) > maxSubmissionFiles {
			http.Error(w, "Too many files", http.StatusBadRequest)
			return
		}
		for _, header := range fileHeaders {
			f, err := header.Open()
			if err != nil {
				http.Error(w, "Failed to read uploaded file", http.StatusBadRequest)
				return
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				http.Error(w, "Failed to read uploaded file", http.StatusBadRequest)
				return
			}
			uploads = append(uploads, services.FileUpload{
				Data:         data,
				OriginalName: header.Filename,
				MimeType:     header.Header.Get("Content-Type"),
			})
		}
	}

	task, err := h.service.SubmitWork(r.Context(), taskID, work, uploads, actor)
	if err != nil {
		writeError(w, err)
		return
	}

	logging.Logger.Infof("Event ID: TASK_SUBMITTED, Description: Task %s submitted with %d files", task.ID.Hex(), len(uploads))
	writeJSON(w, http.StatusOK, task)
}

type reviewTaskRequest struct {
	Rating   string `json:"rating"`
	Feedback string `json:"feedback"`
}

func (h *TaskHandler) ReviewTask(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := h.actorAndTaskID(w, r)
	if !ok {
		return
	}

	var req reviewTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	task, err := h.service.ReviewTask(r.Context(), taskID, models.Rating(req.Rating), req.Feedback, actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

type updateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"`
	AssignedTo  *string `json:"assignedTo,omitempty"`
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := h.actorAndTaskID(w, r)
	if !ok {
		return
	}

	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	input := services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Priority != nil {
		priority := models.TaskPriority(*req.Priority)
		input.Priority = &priority
	}
	if req.DueDate != nil {
		dueDate, err := time.Parse(time.RFC3339, *req.DueDate)
		if err != nil {
			http.Error(w, "Invalid due date format", http.StatusBadRequest)
			return
		}
		input.DueDate = &dueDate
	}
	if req.AssignedTo != nil {
		assigneeID, err := primitive.ObjectIDFromHex(*req.AssignedTo)
		if err != nil {
			http.Error(w, "Invalid assignee ID format", http.StatusBadRequest)
			return
		}
		input.AssignedTo = &assigneeID
	}

	task, err := h.service.UpdateTask(r.Context(), taskID, input, actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := h.actorAndTaskID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteTask(r.Context(), taskID, actor); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted successfully"})
}

func (h *TaskHandler) DeleteSubmissionFiles(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := h.actorAndTaskID(w, r)
	if !ok {
		return
	}

	report, err := h.service.DeleteSubmissionFiles(r.Context(), taskID, actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Submission files deleted",
		"results": report,
	})
}

func (h *TaskHandler) actorAndTaskID(w http.ResponseWriter, r *http.Request) (models.User, primitive.ObjectID, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return models.User{}, primitive.NilObjectID, false
	}

	taskID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid task ID format", http.StatusBadRequest)
		return models.User{}, primitive.NilObjectID, false
	}
	return actor, taskID, true
}
