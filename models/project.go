package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProjectStatus string

const (
	ProjectNotStarted ProjectStatus = "not_started"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectOnHold     ProjectStatus = "on_hold"
)

type Project struct {
	ID             primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Title          string               `json:"title" bson:"title"`
	Description    string               `json:"description" bson:"description"`
	ProjectManager primitive.ObjectID   `json:"projectManager" bson:"projectManager"`
	Client         *primitive.ObjectID  `json:"client,omitempty" bson:"client,omitempty"`
	TeamMembers    []primitive.ObjectID `json:"teamMembers" bson:"teamMembers"`
	Status         ProjectStatus        `json:"status" bson:"status"`
	StartDate      *time.Time           `json:"startDate,omitempty" bson:"startDate,omitempty"`
	EndDate        *time.Time           `json:"endDate,omitempty" bson:"endDate,omitempty"`
	Progress       int                  `json:"progress" bson:"progress"`
	CreatedAt      time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// ProjectStatistics is the per-project rollup view derived from the
// project's task set.
type ProjectStatistics struct {
	TotalTasks      int  `json:"totalTasks"`
	CompletedTasks  int  `json:"completedTasks"`
	InProgressTasks int  `json:"inProgressTasks"`
	PendingTasks    int  `json:"pendingTasks"`
	RejectedTasks   int  `json:"rejectedTasks"`
	Progress        int  `json:"progress"`
	TeamSize        int  `json:"teamSize"`
	HasClient       bool `json:"hasClient"`
	DaysRemaining   *int `json:"daysRemaining"`
}

// HasTeamMember reports whether the given user is on the project team.
func (p *Project) HasTeamMember(userID primitive.ObjectID) bool {
	for _, m := range p.TeamMembers {
		if m == userID {
			return true
		}
	}
	return false
}

// IsClient reports whether the given user is the project's client.
func (p *Project) IsClient(userID primitive.ObjectID) bool {
	return p.Client != nil && *p.Client == userID
}

func (p *Project) IsOverdue() bool {
	if p.EndDate == nil || p.Status == ProjectCompleted {
		return false
	}
	return time.Now().After(*p.EndDate)
}

// Duration returns the planned project duration in days, false when either
// boundary date is missing.
func (p *Project) Duration() (int, bool) {
	if p.StartDate == nil || p.EndDate == nil {
		return 0, false
	}
	diff := p.EndDate.Sub(*p.StartDate)
	if diff < 0 {
		diff = -diff
	}
	return int(math.Ceil(diff.Hours() / 24)), true
}

// DaysRemaining returns the number of days until the end date rounded up,
// nil when no end date is set.
func (p *Project) DaysRemaining() *int {
	if p.EndDate == nil {
		return nil
	}
	days := int(math.Ceil(time.Until(*p.EndDate).Hours() / 24))
	return &days
}
