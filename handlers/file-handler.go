package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/SamMuaks2/projectsandtasks-backend/middleware"
	"github.com/SamMuaks2/projectsandtasks-backend/models"
	"github.com/SamMuaks2/projectsandtasks-backend/services"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type FileHandler struct {
	service *services.FileService
}

func NewFileHandler(service *services.FileService) *FileHandler {
	return &FileHandler{service: service}
}

func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Invalid multipart payload", http.StatusBadRequest)
		return
	}

	projectID, err := primitive.ObjectIDFromHex(r.FormValue("projectId"))
	if err != nil {
		http.Error(w, "Valid project ID is required", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "No file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read uploaded file", http.StatusBadRequest)
		return
	}

	upload := services.FileUpload{
		Data:         data,
		OriginalName: header.Filename,
		MimeType:     header.Header.Get("Content-Type"),
	}

	record, err := h.service.Upload(r.Context(), projectID, upload, r.FormValue("description"), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (h *FileHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	projectID, err := primitive.ObjectIDFromHex(mux.Vars(r)["projectId"])
	if err != nil {
		http.Error(w, "Invalid project ID format", http.StatusBadRequest)
		return
	}

	files, err := h.service.ListByProject(r.Context(), projectID, actor)
	if err != nil {
		writeError(w, err)
		return
	}
	if files == nil {
		files = []models.File{}
	}
	writeJSON(w, http.StatusOK, files)
}

func (h *FileHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, fileID, ok := h.actorAndFileID(w, r)
	if !ok {
		return
	}

	file, err := h.service.Get(r.Context(), fileID, actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, file)
}

func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, fileID, ok := h.actorAndFileID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), fileID, actor); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "File deleted successfully"})
}

type bulkDeleteRequest struct {
	FileIDs []string `json:"fileIds"`
}

func (h *FileHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req bulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	fileIDs := make([]primitive.ObjectID, 0, len(req.FileIDs))
	for _, raw := range req.FileIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			http.Error(w, "Each fileId must be valid", http.StatusBadRequest)
			return
		}
		fileIDs = append(fileIDs, id)
	}

	report, err := h.service.BulkDelete(r.Context(), fileIDs, actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Bulk deletion completed",
		"results": report,
	})
}

func (h *FileHandler) actorAndFileID(w http.ResponseWriter, r *http.Request) (models.User, primitive.ObjectID, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return models.User{}, primitive.NilObjectID, false
	}

	fileID, err := primitive.ObjectIDFromHex(mux.Vars(r)["fileId"])
	if err != nil {
		http.Error(w, "Invalid file ID format", http.StatusBadRequest)
		return models.User{}, primitive.NilObjectID, false
	}
	return actor, fileID, true
}
