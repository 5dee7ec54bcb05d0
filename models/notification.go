package models

import "time"

type NotificationKind string

const (
	NotificationTaskAssigned  NotificationKind = "task_assigned"
	NotificationTaskSubmitted NotificationKind = "task_submitted"
	NotificationTaskReviewed  NotificationKind = "task_reviewed"
)

type Notification struct {
	ID        string           `cassandra:"id" json:"id"`
	UserID    string           `cassandra:"user_id" json:"userId"`
	Kind      NotificationKind `cassandra:"kind" json:"kind"`
	Title     string           `cassandra:"title" json:"title"`
	Message   string           `cassandra:"message" json:"message"`
	ProjectID string           `cassandra:"project_id" json:"projectId"`
	TaskID    string           `cassandra:"task_id" json:"taskId"`
	CreatedAt time.Time        `cassandra:"created_at" json:"createdAt"`
	IsRead    bool             `cassandra:"is_read" json:"isRead"`
}
