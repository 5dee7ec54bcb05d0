package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/SamMuaks2/projectsandtasks-backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FileRepo persists project file records in MongoDB. The bytes themselves
// live with the storage provider; this is only the metadata.
type FileRepo struct {
	collection *mongo.Collection
}

func NewFileRepo(collection *mongo.Collection) *FileRepo {
	return &FileRepo{collection: collection}
}

// FindByID returns the file record, or (nil, nil) when it does not exist.
func (r *FileRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.File, error) {
	var file models.File
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&file)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve file: %v", err)
	}
	return &file, nil
}

func (r *FileRepo) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.File, error) {
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *FileRepo) FindByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.File, error) {
	return r.find(ctx, bson.M{"project": projectID})
}

func (r *FileRepo) find(ctx context.Context, filter bson.M) ([]models.File, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve files: %v", err)
	}
	defer cursor.Close(ctx)

	var files []models.File
	if err := cursor.All(ctx, &files); err != nil {
		return nil, fmt.Errorf("failed to decode files: %v", err)
	}
	return files, nil
}

func (r *FileRepo) Insert(ctx context.Context, file *models.File) error {
	result, err := r.collection.InsertOne(ctx, file)
	if err != nil {
		return fmt.Errorf("failed to create file record: %v", err)
	}
	file.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *FileRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete file record: %v", err)
	}
	return nil
}
