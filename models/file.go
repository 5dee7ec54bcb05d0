package models

import (
	"path/filepath"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type FileCategory string

const (
	CategoryImage    FileCategory = "image"
	CategoryDocument FileCategory = "document"
	CategoryVideo    FileCategory = "video"
	CategoryAudio    FileCategory = "audio"
	CategoryArchive  FileCategory = "archive"
	CategoryOther    FileCategory = "other"
)

// File is a stored project attachment. Path is the storage URL and
// PublicID the storage handle needed to delete it again.
type File struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Filename     string             `json:"filename" bson:"filename"`
	OriginalName string             `json:"originalName" bson:"originalName"`
	Path         string             `json:"path" bson:"path"`
	PublicID     string             `json:"publicId" bson:"publicId"`
	Size         int64              `json:"size" bson:"size"`
	MimeType     string             `json:"mimeType" bson:"mimeType"`
	Project      primitive.ObjectID `json:"project" bson:"project"`
	UploadedBy   primitive.ObjectID `json:"uploadedBy" bson:"uploadedBy"`
	Category     FileCategory       `json:"category" bson:"category"`
	Description  string             `json:"description" bson:"description"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
}

func (f *File) IsImage() bool {
	return f.Category == CategoryImage || strings.HasPrefix(f.MimeType, "image/")
}

func (f *File) IsVideo() bool {
	return f.Category == CategoryVideo || strings.HasPrefix(f.MimeType, "video/")
}

func (f *File) IsDocument() bool {
	return f.Category == CategoryDocument
}

func (f *File) ReadableSize() string {
	return ReadableSize(f.Size)
}

var documentExtensions = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".ppt": true, ".pptx": true, ".txt": true, ".csv": true,
}

var archiveExtensions = map[string]bool{
	".zip": true, ".rar": true, ".7z": true, ".tar": true, ".gz": true,
}

// FileCategoryFor sniffs a category from the mime type, falling back to
// the filename extension.
func FileCategoryFor(mimeType, originalName string) FileCategory {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return CategoryImage
	case strings.HasPrefix(mimeType, "video/"):
		return CategoryVideo
	case strings.HasPrefix(mimeType, "audio/"):
		return CategoryAudio
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	switch {
	case documentExtensions[ext]:
		return CategoryDocument
	case archiveExtensions[ext]:
		return CategoryArchive
	}
	return CategoryOther
}
