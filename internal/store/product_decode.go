package store

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"shopguide/internal/models"
)

// normalizeProductDocument repairs documents written by the old dashboard, where rank
// and flags were sometimes stored as strings and isActive could be missing.
func normalizeProductDocument(raw bson.M) (models.Product, error) {
	raw["isTopPick"] = coerceBool(raw["isTopPick"], false)
	raw["isActive"] = coerceBool(raw["isActive"], true)

	if val, ok := raw["rank"]; ok {
		switch typed := val.(type) {
		case int32:
			raw["rank"] = int(typed)
		case int64:
			raw["rank"] = int(typed)
		case float64:
			raw["rank"] = int(typed)
		case int:
			raw["rank"] = typed
		default:
			raw["rank"] = 0
		}
	} else {
		raw["rank"] = 0
	}

	if image, ok := raw["image"].(string); !ok || strings.TrimSpace(image) == "" {
		if imageURL, ok := raw["imageUrl"].(string); ok && strings.TrimSpace(imageURL) != "" {
			raw["image"] = strings.TrimSpace(imageURL)
		} else {
			raw["image"] = models.DefaultImage
		}
	}

	data, err := bson.Marshal(raw)
	if err != nil {
		return models.Product{}, err
	}

	var p models.Product
	if err := bson.Unmarshal(data, &p); err != nil {
		return models.Product{}, err
	}
	if p.Tags == nil {
		p.Tags = models.Tags{}
	}
	return p, nil
}

func coerceBool(val interface{}, fallback bool) bool {
	switch typed := val.(type) {
	case bool:
		return typed
	case string:
		return strings.EqualFold(strings.TrimSpace(typed), "true")
	case nil:
		return fallback
	default:
		return fallback
	}
}

func decodeProducts(ctx context.Context, cursor *mongo.Cursor) ([]models.Product, error) {
	products := make([]models.Product, 0)

	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, err
		}

		product, err := normalizeProductDocument(raw)
		if err != nil {
			return nil, err
		}

		products = append(products, product)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func decodeSingleProduct(res *mongo.SingleResult) (models.Product, error) {
	var raw bson.M
	err := res.Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Product{}, ErrNotFound
	}
	if err != nil {
		return models.Product{}, err
	}
	return normalizeProductDocument(raw)
}
