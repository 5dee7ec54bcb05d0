package repositories

import (
	"os"
	"time"

	"github.com/SamMuaks2/projectsandtasks-backend/logging"
	"github.com/SamMuaks2/projectsandtasks-backend/models"

	"github.com/gocql/gocql"
)

// NotificationRepo stores notification records in Cassandra, partitioned
// per recipient.
type NotificationRepo struct {
	session *gocql.Session
}

// NewNotificationRepo connects to Cassandra and prepares the keyspace.
func NewNotificationRepo() (*NotificationRepo, error) {
	db := os.Getenv("CASS_DB")
	if db == "" {
		db = "127.0.0.1"
	}

	cluster := gocql.NewCluster(db)
	cluster.Keyspace = "system"
	session, err := cluster.CreateSession()
	if err != nil {
		logging.Logger.Errorf("Event ID: CASS_CONNECT_FAILED, Description: Failed to connect to Cassandra: %v", err)
		return nil, err
	}

	err = session.Query(
		`CREATE KEYSPACE IF NOT EXISTS notifications
         WITH replication = {
             'class': 'SimpleStrategy',
             'replication_factor': 1
         }`).Exec()
	if err != nil {
		logging.Logger.Errorf("Event ID: CASS_KEYSPACE_FAILED, Description: Failed to create keyspace: %v", err)
		return nil, err
	}
	session.Close()

	cluster.Keyspace = "notifications"
	cluster.Consistency = gocql.One
	session, err = cluster.CreateSession()
	if err != nil {
		logging.Logger.Errorf("Event ID: CASS_KEYSPACE_CONNECT_FAILED, Description: Failed to connect to notifications keyspace: %v", err)
		return nil, err
	}

	logging.Logger.Info("Event ID: CASS_CONNECTED, Description: Connected to Cassandra notifications keyspace.")
	return &NotificationRepo{session: session}, nil
}

func (nr *NotificationRepo) CloseSession() {
	nr.session.Close()
	logging.Logger.Info("Event ID: CASS_SESSION_CLOSED, Description: Cassandra session closed.")
}

// CreateTable creates the notifications table if it is missing.
func (nr *NotificationRepo) CreateTable() {
	err := nr.session.Query(
		`CREATE TABLE IF NOT EXISTS notifications (
			id UUID,
			user_id TEXT,
			kind TEXT,
			title TEXT,
			message TEXT,
			project_id TEXT,
			task_id TEXT,
			created_at TIMESTAMP,
			is_read BOOLEAN,
			PRIMARY KEY ((user_id), created_at, id)
		) WITH CLUSTERING ORDER BY (created_at DESC, id ASC)`).Exec()
	if err != nil {
		logging.Logger.Errorf("Event ID: CASS_TABLE_FAILED, Description: Failed to create notifications table: %v", err)
	} else {
		logging.Logger.Info("Event ID: CASS_TABLE_READY, Description: Notifications table created successfully.")
	}
}

func (nr *NotificationRepo) Insert(notification *models.Notification) error {
	if notification.ID == "" {
		notification.ID = gocql.TimeUUID().String()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}

	return nr.session.Query(
		`INSERT INTO notifications (id, user_id, kind, title, message, project_id, task_id, created_at, is_read)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		notification.ID, notification.UserID, string(notification.Kind), notification.Title,
		notification.Message, notification.ProjectID, notification.TaskID,
		notification.CreatedAt, notification.IsRead,
	).Exec()
}

func (nr *NotificationRepo) FindByUser(userID string) ([]models.Notification, error) {
	query := `SELECT id, user_id, kind, title, message, project_id, task_id, created_at, is_read
			  FROM notifications WHERE user_id = ?`

	iter := nr.session.Query(query, userID).Iter()
	var notifications []models.Notification
	var n models.Notification
	var kind string

	for iter.Scan(&n.ID, &n.UserID, &kind, &n.Title, &n.Message, &n.ProjectID, &n.TaskID, &n.CreatedAt, &n.IsRead) {
		n.Kind = models.NotificationKind(kind)
		notifications = append(notifications, n)
	}

	if err := iter.Close(); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (nr *NotificationRepo) MarkAsRead(userID, notificationID string, createdAt time.Time) error {
	uuid, err := gocql.ParseUUID(notificationID)
	if err != nil {
		return err
	}

	query := `UPDATE notifications SET is_read = true WHERE user_id = ? AND id = ? AND created_at = ?`
	return nr.session.Query(query, userID, uuid, createdAt).Exec()
}
