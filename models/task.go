package models

import (
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskStatus string

const (
	StatusInitiated      TaskStatus = "initiated"
	StatusSubmitted      TaskStatus = "submitted"
	StatusPMReviewed     TaskStatus = "pm_reviewed"
	StatusClientReviewed TaskStatus = "client_reviewed"
	StatusRejected       TaskStatus = "rejected"
	StatusCompleted      TaskStatus = "completed"
)

type Rating string

const (
	RatingPending  Rating = "pending"
	RatingApproved Rating = "approved"
	RatingRejected Rating = "rejected"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// SubmissionFile is one uploaded attachment of a task submission. Path is
// the storage URL, PublicID the storage handle used for deletion.
type SubmissionFile struct {
	Filename     string `json:"filename" bson:"filename"`
	OriginalName string `json:"originalName" bson:"originalName"`
	Path         string `json:"path" bson:"path"`
	PublicID     string `json:"publicId" bson:"publicId"`
	Size         int64  `json:"size" bson:"size"`
	MimeType     string `json:"mimeType" bson:"mimeType"`
}

type Submission struct {
	Work        string           `json:"work" bson:"work"`
	Files       []SubmissionFile `json:"files" bson:"files"`
	SubmittedAt time.Time        `json:"submittedAt" bson:"submittedAt"`
}

type Task struct {
	ID                 primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Title              string              `json:"title" bson:"title"`
	Description        string              `json:"description" bson:"description"`
	Project            primitive.ObjectID  `json:"project" bson:"project"`
	AssignedTo         *primitive.ObjectID `json:"assignedTo,omitempty" bson:"assignedTo,omitempty"`
	AssignedBy         primitive.ObjectID  `json:"assignedBy" bson:"assignedBy"`
	Status             TaskStatus          `json:"status" bson:"status"`
	Priority           TaskPriority        `json:"priority" bson:"priority"`
	DueDate            *time.Time          `json:"dueDate,omitempty" bson:"dueDate,omitempty"`
	SubmittedAt        *time.Time          `json:"submittedAt,omitempty" bson:"submittedAt,omitempty"`
	Submission         *Submission         `json:"submission,omitempty" bson:"submission,omitempty"`
	ProgressPercentage int                 `json:"progressPercentage" bson:"progressPercentage"`
	PMRating           Rating              `json:"pmRating" bson:"pmRating"`
	ClientRating       Rating              `json:"clientRating" bson:"clientRating"`
	PMFeedback         string              `json:"pmFeedback" bson:"pmFeedback"`
	ClientFeedback     string              `json:"clientFeedback" bson:"clientFeedback"`
	CreatedAt          time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// CalculateProgress derives the progress percentage from the current
// status and ratings and stores it on the task. A rejected task keeps
// its previous percentage (0 if it never had one).
func (t *Task) CalculateProgress() int {
	switch {
	case t.Status == StatusInitiated:
		t.ProgressPercentage = 10
	case t.Status == StatusSubmitted:
		t.ProgressPercentage = 30
	case t.Status == StatusPMReviewed && t.PMRating == RatingApproved:
		t.ProgressPercentage = 60
	case t.Status == StatusClientReviewed && t.ClientRating == RatingApproved:
		t.ProgressPercentage = 100
	case t.Status == StatusCompleted:
		t.ProgressPercentage = 100
	case t.Status == StatusRejected:
		// keep the previous percentage, 0 if none was ever set
	}
	return t.ProgressPercentage
}

// CanBeReviewedByPM reports whether the task is in a state the project
// manager may review.
func (t *Task) CanBeReviewedByPM() bool {
	return t.Status == StatusSubmitted || t.Status == StatusPMReviewed
}

// CanBeReviewedByClient reports whether the task is in a state the client
// may review. The PM must have approved first.
func (t *Task) CanBeReviewedByClient() bool {
	return t.Status == StatusPMReviewed && t.PMRating == RatingApproved
}

func (t *Task) IsOverdue() bool {
	if t.DueDate == nil || t.Status == StatusCompleted {
		return false
	}
	return time.Now().After(*t.DueDate)
}

// DaysUntilDue returns the number of days until the due date, rounded up.
// The second return is false when no due date is set.
func (t *Task) DaysUntilDue() (int, bool) {
	if t.DueDate == nil {
		return 0, false
	}
	diff := time.Until(*t.DueDate)
	return int(math.Ceil(diff.Hours() / 24)), true
}

func (t *Task) HasSubmission() bool {
	return t.Submission != nil && t.Submission.Work != ""
}

func (t *Task) HasSubmissionFiles() bool {
	return t.Submission != nil && len(t.Submission.Files) > 0
}

func (t *Task) SubmissionFileCount() int {
	if t.Submission == nil {
		return 0
	}
	return len(t.Submission.Files)
}

func (t *Task) TotalSubmissionSize() int64 {
	if t.Submission == nil {
		return 0
	}
	var total int64
	for _, f := range t.Submission.Files {
		total += f.Size
	}
	return total
}

func (t *Task) ReadableSubmissionSize() string {
	return ReadableSize(t.TotalSubmissionSize())
}

// StatusColor returns the dashboard color for the current status.
func (t *Task) StatusColor() string {
	switch t.Status {
	case StatusInitiated:
		return "#8B4513" // brown
	case StatusSubmitted:
		return "#9370DB" // purple
	case StatusRejected:
		return "#DC143C" // red
	case StatusPMReviewed:
		if t.PMRating == RatingApproved {
			return "#4169E1" // blue
		}
		return "#DC143C"
	case StatusClientReviewed:
		if t.ClientRating == RatingApproved {
			return "#228B22" // green
		}
		return "#DC143C"
	case StatusCompleted:
		return "#228B22"
	}
	return "#999"
}

func (t *Task) StatusLabel() string {
	switch t.Status {
	case StatusInitiated:
		return "Initiated"
	case StatusSubmitted:
		return "Submitted"
	case StatusPMReviewed:
		return "PM Reviewed"
	case StatusClientReviewed:
		return "Client Reviewed"
	case StatusRejected:
		return "Rejected"
	case StatusCompleted:
		return "Completed"
	}
	return string(t.Status)
}

func (t *Task) PriorityLabel() string {
	switch t.Priority {
	case PriorityLow:
		return "Low Priority"
	case PriorityMedium:
		return "Medium Priority"
	case PriorityHigh:
		return "High Priority"
	}
	return string(t.Priority)
}

// ReadableSize formats a byte count as a human-readable string.
func ReadableSize(bytes int64) string {
	if bytes == 0 {
		return "0 Bytes"
	}
	const k = 1024
	sizes := []string{"Bytes", "KB", "MB", "GB", "TB"}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(k)))
	if i >= len(sizes) {
		i = len(sizes) - 1
	}
	value := math.Round(float64(bytes)/math.Pow(k, float64(i))*100) / 100
	return fmt.Sprintf("%v %s", value, sizes[i])
}
