package databases

// go generate: mockery --name RequestDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lexflow/lexflow-api/models"
)

const requestName = "representationRequests"

// RequestDatabase contains the methods to use with the representation request database
type RequestDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.RepresentationRequest, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.RepresentationRequest, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error
}

type requestDatabase struct {
	db DatabaseHelper
}

// NewRequestDatabase initializes a new instance of request database with the provided db connection
func NewRequestDatabase(db DatabaseHelper) RequestDatabase {
	return &requestDatabase{
		db: db,
	}
}

func (r *requestDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.RepresentationRequest, error) {
	request := &models.RepresentationRequest{}
	err := r.db.Collection(requestName).FindOne(ctx, filter, opts...).Decode(&request)
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (r *requestDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.RepresentationRequest, error) {
	var requests []models.RepresentationRequest
	curr := r.db.Collection(requestName).Find(ctx, filter, opts...)
	defer curr.Close(ctx)
	err := curr.All(ctx, &requests)
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *requestDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return r.db.Collection(requestName).CountDocuments(ctx, filter, opts...)
}

func (r *requestDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return r.db.Collection(requestName).InsertOne(ctx, document, opts...)
}

func (r *requestDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return r.db.Collection(requestName).UpdateOne(ctx, filter, update, opts...)
}

func (r *requestDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	return r.db.Collection(requestName).DeleteOne(ctx, filter, opts...)
}
