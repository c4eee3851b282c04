package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"shopguide/internal/models"
)

const (
	productsCollection = "products"
	usersCollection    = "users"
)

// Mongo implements Store over a MongoDB database. With transactions enabled, rank
// updates run in a single multi-document transaction, which needs a replica set.
type Mongo struct {
	db              *mongo.Database
	useTransactions bool
}

func NewMongo(db *mongo.Database, useTransactions bool) *Mongo {
	return &Mongo{db: db, useTransactions: useTransactions}
}

func (m *Mongo) products() *mongo.Collection { return m.db.Collection(productsCollection) }
func (m *Mongo) users() *mongo.Collection    { return m.db.Collection(usersCollection) }

// Ping checks the primary is reachable within two seconds.
func (m *Mongo) Ping(ctx context.Context) error {
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return m.db.Client().Ping(checkCtx, readpref.Primary())
}

func (m *Mongo) InsertProduct(ctx context.Context, p *models.Product) error {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}

	res, err := m.products().InsertOne(ctx, p)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return err
	}
	p.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (m *Mongo) GetProduct(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
	return decodeSingleProduct(m.products().FindOne(ctx, bson.M{"_id": id}))
}

func productFilter(f ProductFilter) bson.M {
	filter := bson.M{}
	if f.ActiveOnly {
		filter["isActive"] = bson.M{"$ne": false}
	}
	if f.Category != "" {
		filter["category"] = string(f.Category)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(search), "$options": "i"}
		filter["$or"] = []bson.M{
			{"title": pattern},
			{"description": pattern},
			{"tags": pattern},
		}
	}
	return filter
}

func (m *Mongo) ListProducts(ctx context.Context, opts ListOptions) ([]models.Product, int64, error) {
	filter := productFilter(opts.Filter)

	total, err := m.products().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	field, ok := SortFields[opts.SortBy]
	if !ok {
		field = "createdAt"
	}
	dir := 1
	if opts.Descending {
		dir = -1
	}
	sortDoc := bson.D{{Key: field, Value: dir}}
	if field != "createdAt" {
		sortDoc = append(sortDoc, bson.E{Key: "createdAt", Value: dir})
	}
	sortDoc = append(sortDoc, bson.E{Key: "_id", Value: dir})

	findOptions := options.Find().SetSort(sortDoc)
	if opts.Skip > 0 {
		findOptions.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		findOptions.SetLimit(opts.Limit)
	}

	cursor, err := m.products().Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	products, err := decodeProducts(ctx, cursor)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func patchDocument(patch ProductPatch) bson.M {
	set := bson.M{}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.Link != nil {
		set["link"] = *patch.Link
	}
	if patch.Category != nil {
		set["category"] = string(*patch.Category)
	}
	if patch.Image != nil {
		set["image"] = *patch.Image
	}
	if patch.ImageKey != nil {
		set["imageKey"] = *patch.ImageKey
	}
	if patch.Tags != nil {
		set["tags"] = *patch.Tags
	}
	if patch.IsTopPick != nil {
		set["isTopPick"] = *patch.IsTopPick
	}
	if patch.Rank != nil {
		set["rank"] = *patch.Rank
	}
	if patch.IsActive != nil {
		set["isActive"] = *patch.IsActive
	}
	if patch.AffiliateCode != nil {
		set["affiliateCode"] = *patch.AffiliateCode
	}
	set["updatedAt"] = time.Now()
	return set
}

func (m *Mongo) UpdateProduct(ctx context.Context, id primitive.ObjectID, patch ProductPatch) (models.Product, error) {
	update := bson.M{"$set": patchDocument(patch)}
	zap.L().Debug("product update",
		zap.String("id", id.Hex()),
		zap.Any("update", update),
	)

	res := m.products().FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	return decodeSingleProduct(res)
}

func (m *Mongo) DeleteProduct(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
	return decodeSingleProduct(m.products().FindOneAndDelete(ctx, bson.M{"_id": id}))
}

func (m *Mongo) CountTopPicks(ctx context.Context) (int64, error) {
	return m.products().CountDocuments(ctx, bson.M{"isTopPick": true})
}

func (m *Mongo) TopPicks(ctx context.Context, activeOnly bool, limit int64) ([]models.Product, error) {
	filter := bson.M{"isTopPick": true}
	if activeOnly {
		filter["isActive"] = bson.M{"$ne": false}
	}

	findOptions := options.Find().SetSort(bson.D{
		{Key: "rank", Value: 1},
		{Key: "createdAt", Value: 1},
		{Key: "_id", Value: 1},
	})
	if limit > 0 {
		findOptions.SetLimit(limit)
	}

	cursor, err := m.products().Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products, err := decodeProducts(ctx, cursor)
	if err != nil {
		return nil, err
	}
	// rank may be stored with mixed numeric types; normalize order after decoding.
	models.SortByRank(products)
	return products, nil
}

func (m *Mongo) ApplyRanks(ctx context.Context, updates []RankUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	if !m.useTransactions {
		return m.applyRanksOrdered(ctx, updates)
	}

	session, err := m.db.Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		now := time.Now()
		for _, u := range updates {
			res, err := m.products().UpdateOne(
				sessCtx,
				bson.M{"_id": u.ProductID, "isTopPick": true},
				bson.M{"$set": bson.M{"rank": u.Rank, "updatedAt": now}},
			)
			if err != nil {
				return nil, err
			}
			if res.MatchedCount == 0 {
				return nil, fmt.Errorf("rank update %s: %w", u.ProductID.Hex(), ErrNotFound)
			}
		}
		return nil, nil
	})
	return err
}

// applyRanksOrdered is used when the deployment has no replica set. Writes stop at the
// first failure and earlier ones stay applied.
func (m *Mongo) applyRanksOrdered(ctx context.Context, updates []RankUpdate) error {
	now := time.Now()
	writes := make([]mongo.WriteModel, 0, len(updates))
	for _, u := range updates {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": u.ProductID, "isTopPick": true}).
			SetUpdate(bson.M{"$set": bson.M{"rank": u.Rank, "updatedAt": now}}))
	}

	res, err := m.products().BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true))
	if err != nil {
		return err
	}
	if res.MatchedCount != int64(len(updates)) {
		zap.L().Warn("rank update partially matched",
			zap.Int64("matched", res.MatchedCount),
			zap.Int("requested", len(updates)),
		)
		return fmt.Errorf("rank update matched %d of %d products: %w", res.MatchedCount, len(updates), ErrNotFound)
	}
	return nil
}

func (m *Mongo) SetActive(ctx context.Context, ids []primitive.ObjectID, active bool) (int64, error) {
	res, err := m.products().UpdateMany(
		ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"isActive": active, "updatedAt": time.Now()}},
	)
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

func (m *Mongo) DeleteProducts(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	filter := bson.M{"_id": bson.M{"$in": ids}}

	cursor, err := m.products().Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	doomed, err := decodeProducts(ctx, cursor)
	if err != nil {
		return nil, err
	}

	if _, err := m.products().DeleteMany(ctx, filter); err != nil {
		return nil, err
	}
	return doomed, nil
}

func (m *Mongo) Categories(ctx context.Context) ([]models.Category, error) {
	values, err := m.products().Distinct(ctx, "category", bson.M{"isActive": bson.M{"$ne": false}})
	if err != nil {
		return nil, err
	}

	seen := map[models.Category]struct{}{}
	for _, v := range values {
		if s, ok := v.(string); ok {
			if c, ok := models.ParseCategory(s); ok {
				seen[c] = struct{}{}
			}
		}
	}
	return sortCategoryNames(seen), nil
}

func (m *Mongo) Stats(ctx context.Context) (ProductStats, error) {
	var stats ProductStats
	var err error

	if stats.Total, err = m.products().CountDocuments(ctx, bson.M{}); err != nil {
		return ProductStats{}, err
	}
	if stats.Active, err = m.products().CountDocuments(ctx, bson.M{"isActive": true}); err != nil {
		return ProductStats{}, err
	}
	if stats.TopPicks, err = m.CountTopPicks(ctx); err != nil {
		return ProductStats{}, err
	}

	cursor, err := m.products().Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"isActive": true}}},
		{{Key: "$group", Value: bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	})
	if err != nil {
		return ProductStats{}, err
	}
	stats.ByCategory = []models.CategoryStat{}
	if err := cursor.All(ctx, &stats.ByCategory); err != nil {
		return ProductStats{}, err
	}

	recent, _, err := m.ListProducts(ctx, ListOptions{
		Filter:     ProductFilter{ActiveOnly: true},
		SortBy:     "createdAt",
		Descending: true,
		Limit:      5,
	})
	if err != nil {
		return ProductStats{}, err
	}
	stats.Recent = recent
	return stats, nil
}

func (m *Mongo) InsertUser(ctx context.Context, u *models.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	res, err := m.users().InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return err
	}
	u.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (m *Mongo) GetUser(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var user models.User
	err := m.users().FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrNotFound
	}
	return user, err
}

func (m *Mongo) FindUserByLogin(ctx context.Context, login string) (models.User, error) {
	login = strings.TrimSpace(login)

	var user models.User
	err := m.users().FindOne(ctx, bson.M{
		"$or": []bson.M{
			{"username": login},
			{"email": strings.ToLower(login)},
		},
		"isActive": true,
	}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrNotFound
	}
	return user, err
}

func (m *Mongo) TouchLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	res, err := m.users().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"lastLogin": at}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) CountUsers(ctx context.Context) (int64, error) {
	return m.users().CountDocuments(ctx, bson.M{})
}

func (m *Mongo) AdminExists(ctx context.Context) (bool, error) {
	n, err := m.users().CountDocuments(ctx, bson.M{"role": models.RoleAdmin}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
