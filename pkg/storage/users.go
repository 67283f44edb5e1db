package storage

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/solorad/blog-crud/pkg/models"
)

// userItem is the persisted shape of models.User
type userItem struct {
	ID    primitive.ObjectID `bson:"_id,omitempty"`
	Name  string             `bson:"name"`
	Email string             `bson:"email"`
}

type userCollection struct {
	coll *mongo.Collection
}

func (u *userCollection) List(ctx context.Context) ([]models.User, error) {
	cur, err := u.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	var items []userItem
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	users := make([]models.User, 0, len(items))
	for _, it := range items {
		users = append(users, models.User{ID: it.ID.Hex(), Name: it.Name, Email: it.Email})
	}
	return users, nil
}

func (u *userCollection) Insert(ctx context.Context, user models.User) (string, error) {
	res, err := u.coll.InsertOne(ctx, userItem{Name: user.Name, Email: user.Email})
	if err != nil {
		return "", fmt.Errorf("insert user: %w", err)
	}
	return idString(res.InsertedID), nil
}
