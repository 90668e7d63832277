package catalogRepo

import (
	"context"
	"fmt"

	"appointly/database"
	"appointly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// CatalogRepository reads services and specialists. The core never writes
// either; they are managed by the surrounding admin surface.
type CatalogRepository interface {
	GetService(ctx context.Context, id string) (*models.Service, error)
	GetSpecialist(ctx context.Context, id string) (*models.Specialist, error)
}

// MongoCatalogRepo implements CatalogRepository backed by MongoDB.
type MongoCatalogRepo struct {
	serviceColl    *mongo.Collection
	specialistColl *mongo.Collection
}

func NewMongoCatalogRepo() *MongoCatalogRepo {
	return &MongoCatalogRepo{
		serviceColl:    database.DB().Collection("services"),
		specialistColl: database.DB().Collection("specialists"),
	}
}

func (repo *MongoCatalogRepo) GetService(ctx context.Context, id string) (*models.Service, error) {
	var svc models.Service
	if err := repo.serviceColl.FindOne(ctx, bson.M{"id": id}).Decode(&svc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("service %s not found", id)
		}
		return nil, fmt.Errorf("failed to fetch service %s: %w", id, err)
	}
	return &svc, nil
}

func (repo *MongoCatalogRepo) GetSpecialist(ctx context.Context, id string) (*models.Specialist, error) {
	var sp models.Specialist
	if err := repo.specialistColl.FindOne(ctx, bson.M{"id": id}).Decode(&sp); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("specialist %s not found", id)
		}
		return nil, fmt.Errorf("failed to fetch specialist %s: %w", id, err)
	}
	return &sp, nil
}
