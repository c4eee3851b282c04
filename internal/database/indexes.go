package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func EnsureProductIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("products").Indexes()

	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "isTopPick", Value: 1}, {Key: "rank", Value: 1}},
			Options: options.Index().SetName("top_picks_rank"),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}},
			Options: options.Index().SetName("category_index"),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("created_at_desc"),
		},
	}

	zap.L().Info("EnsureProductIndexes: creating product indexes", zap.Int("count", len(models)))
	names, err := indexes.CreateMany(ctx, models)
	if err != nil {
		zap.L().Error("EnsureProductIndexes: index error", zap.Error(err))
		return err
	}
	zap.L().Info("EnsureProductIndexes: indexes created", zap.Strings("names", names))
	return nil
}

func EnsureUserIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("users").Indexes()

	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName("username_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_unique").SetUnique(true),
		},
	}

	zap.L().Info("EnsureUserIndexes: creating username_unique and email_unique indexes")
	_, err := indexes.CreateMany(ctx, models)
	if err != nil {
		zap.L().Error("EnsureUserIndexes: index error", zap.Error(err))
		return err
	}
	zap.L().Info("EnsureUserIndexes: indexes created")
	return nil
}
