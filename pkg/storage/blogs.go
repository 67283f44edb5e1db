package storage

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/solorad/blog-crud/pkg"
	"github.com/solorad/blog-crud/pkg/models"
)

type blogCollection struct {
	coll *mongo.Collection
}

func (b *blogCollection) List(ctx context.Context) ([]models.BlogItem, error) {
	cur, err := b.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("find blogs: %w", err)
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode blogs: %w", err)
	}
	items := make([]models.BlogItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, toBlogItem(doc))
	}
	return items, nil
}

func (b *blogCollection) Get(ctx context.Context, id string) (*models.BlogItem, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, pkg.ErrNotFound
	}
	var doc bson.M
	if err := b.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, pkg.ErrNotFound
		}
		return nil, fmt.Errorf("find blog %s: %w", id, err)
	}
	item := toBlogItem(doc)
	return &item, nil
}

func (b *blogCollection) Insert(ctx context.Context, fields models.Fields) (string, error) {
	res, err := b.coll.InsertOne(ctx, toDocument(fields))
	if err != nil {
		return "", fmt.Errorf("insert blog: %w", err)
	}
	return idString(res.InsertedID), nil
}

func (b *blogCollection) Update(ctx context.Context, id string, fields models.Fields) (*models.BlogItem, error) {
	set := toDocument(fields)
	if len(set) == 0 {
		// $set with an empty document is rejected by the server
		return b.Get(ctx, id)
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, pkg.ErrNotFound
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc bson.M
	err = b.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, pkg.ErrNotFound
		}
		return nil, fmt.Errorf("update blog %s: %w", id, err)
	}
	item := toBlogItem(doc)
	return &item, nil
}

func (b *blogCollection) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	if _, err := b.coll.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("delete blog %s: %w", id, err)
	}
	return nil
}

// InsertMany writes documents through the bulk writer and returns how many batches failed
func (m *MongoClient) InsertMany(ctx context.Context, docs []models.Fields) int {
	writeModels := make([]mongo.WriteModel, 0, len(docs))
	for _, fields := range docs {
		writeModels = append(writeModels, mongo.NewInsertOneModel().SetDocument(toDocument(fields)))
	}
	return m.BulkWrite(ctx, writeModels, m.GetCollection(m.cfg.Collection))
}
