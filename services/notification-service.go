package services

import (
	"context"
	"fmt"
	"time"

	"github.com/SamMuaks2/projectsandtasks-backend/logging"
	"github.com/SamMuaks2/projectsandtasks-backend/models"
	"github.com/SamMuaks2/projectsandtasks-backend/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationStore persists notification records per recipient.
type NotificationStore interface {
	Insert(notification *models.Notification) error
	FindByUser(userID string) ([]models.Notification, error)
	MarkAsRead(userID, notificationID string, createdAt time.Time) error
}

// NotificationService records notifications per recipient and sends the
// matching email when SMTP is configured. Everything here is best-effort
// from the caller's point of view.
type NotificationService struct {
	store NotificationStore
	users UserDirectory
}

func NewNotificationService(store NotificationStore, users UserDirectory) *NotificationService {
	return &NotificationService{store: store, users: users}
}

// Notify records a notification for one recipient and emails them.
func (ns *NotificationService) Notify(ctx context.Context, recipientID primitive.ObjectID, kind models.NotificationKind, title, message string, projectID, taskID primitive.ObjectID) error {
	if recipientID.IsZero() {
		return fmt.Errorf("recipient is required")
	}

	notification := &models.Notification{
		UserID:    recipientID.Hex(),
		Kind:      kind,
		Title:     title,
		Message:   message,
		ProjectID: projectID.Hex(),
		TaskID:    taskID.Hex(),
	}
	if err := ns.store.Insert(notification); err != nil {
		return fmt.Errorf("failed to create notification: %v", err)
	}

	ns.sendEmail(ctx, recipientID, title, message)
	return nil
}

// NotifyAll records the same notification for each recipient. Recipients
// are handled independently; the last failure is returned.
func (ns *NotificationService) NotifyAll(ctx context.Context, recipientIDs []primitive.ObjectID, kind models.NotificationKind, title, message string, projectID, taskID primitive.ObjectID) error {
	var lastErr error
	for _, id := range recipientIDs {
		if err := ns.Notify(ctx, id, kind, title, message, projectID, taskID); err != nil {
			logging.Logger.Warnf("Event ID: NOTIFICATION_CREATE_FAILED, Description: Failed to notify user %s: %v", id.Hex(), err)
			lastErr = err
		}
	}
	return lastErr
}

// ListForUser returns the recipient's notifications, newest first.
func (ns *NotificationService) ListForUser(userID primitive.ObjectID) ([]models.Notification, error) {
	return ns.store.FindByUser(userID.Hex())
}

// MarkRead flags one of the recipient's notifications as read.
func (ns *NotificationService) MarkRead(userID primitive.ObjectID, notificationID string, createdAt time.Time) error {
	return ns.store.MarkAsRead(userID.Hex(), notificationID, createdAt)
}

func (ns *NotificationService) sendEmail(ctx context.Context, recipientID primitive.ObjectID, title, message string) {
	if ns.users == nil {
		return
	}
	user, err := ns.users.FindByID(ctx, recipientID)
	if err != nil || user == nil || user.Email == "" {
		logging.Logger.Warnf("Event ID: EMAIL_RECIPIENT_UNRESOLVED, Description: No email address for user %s: %v", recipientID.Hex(), err)
		return
	}
	if err := utils.SendNotificationEmail(user.Email, title, message); err != nil {
		logging.Logger.Warnf("Event ID: EMAIL_SEND_FAILED, Description: Failed to send notification email to %s: %v", user.Email, err)
	}
}
