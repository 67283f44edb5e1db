package storage

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/solorad/blog-crud/pkg/models"
)

func idString(id interface{}) string {
	if oid, ok := id.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return fmt.Sprint(id)
}

// toDocument drops reserved keys so the server assigns _id
func toDocument(fields models.Fields) bson.M {
	doc := bson.M{}
	for k, v := range fields.Clean() {
		doc[k] = v
	}
	return doc
}

func toBlogItem(doc bson.M) models.BlogItem {
	item := models.BlogItem{Fields: models.Fields{}}
	for k, v := range doc {
		if k == "_id" {
			item.ID = idString(v)
			continue
		}
		item.Fields[k] = plain(v)
	}
	return item
}

// plain converts driver types into plain Go values
func plain(v interface{}) interface{} {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.D:
		m := make(map[string]interface{}, len(t))
		for _, e := range t {
			m[e.Key] = plain(e.Value)
		}
		return m
	case bson.M:
		m := make(map[string]interface{}, len(t))
		for k, e := range t {
			m[k] = plain(e)
		}
		return m
	case primitive.A:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = plain(e)
		}
		return out
	default:
		return v
	}
}
