package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/SamMuaks2/projectsandtasks-backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ProjectRepo persists projects in MongoDB.
type ProjectRepo struct {
	collection *mongo.Collection
}

func NewProjectRepo(collection *mongo.Collection) *ProjectRepo {
	return &ProjectRepo{collection: collection}
}

// FindByID returns the project, or (nil, nil) when it does not exist.
func (r *ProjectRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var project models.Project
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&project)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve project: %v", err)
	}
	return &project, nil
}

func (r *ProjectRepo) FindByManager(ctx context.Context, managerID primitive.ObjectID) ([]models.Project, error) {
	return r.find(ctx, bson.M{"projectManager": managerID})
}

func (r *ProjectRepo) FindByClient(ctx context.Context, clientID primitive.ObjectID) ([]models.Project, error) {
	return r.find(ctx, bson.M{"client": clientID})
}

func (r *ProjectRepo) find(ctx context.Context, filter bson.M) ([]models.Project, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve projects: %v", err)
	}
	defer cursor.Close(ctx)

	var projects []models.Project
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %v", err)
	}
	return projects, nil
}

// Save replaces the whole project document.
func (r *ProjectRepo) Save(ctx context.Context, project *models.Project) error {
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": project.ID}, project)
	if err != nil {
		return fmt.Errorf("failed to save project: %v", err)
	}
	return nil
}
