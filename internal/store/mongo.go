package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/pengpongpang/deepbrain/pkg/mindmap"
)

// Collection names.
const (
	collUsers    = "users"
	collMindmaps = "mindmaps"
	collTasks    = "tasks"
)

// MongoStore is the production [Store] backed by MongoDB.
type MongoStore struct {
	client   *mongo.Client
	users    *mongo.Collection
	mindmaps *mongo.Collection
	tasks    *mongo.Collection
}

var _ Store = (*MongoStore)(nil)

// NewMongo connects to MongoDB, verifies the deployment is reachable,
// and ensures the indexes the queries rely on.
func NewMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(database)
	s := &MongoStore{
		client:   client,
		users:    db.Collection(collUsers),
		mindmaps: db.Collection(collMindmaps),
		tasks:    db.Collection(collTasks),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return err
	}

	_, err = s.mindmaps.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "title", Value: "text"}, {Key: "description", Value: "text"}}},
	})
	if err != nil {
		return err
	}

	_, err = s.tasks.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}

// Users returns the user collection.
func (s *MongoStore) Users() Users { return mongoUsers{s.users} }

// Mindmaps returns the mindmap collection.
func (s *MongoStore) Mindmaps() Mindmaps { return mongoMindmaps{s.mindmaps} }

// Tasks returns the task collection.
func (s *MongoStore) Tasks() Tasks { return mongoTasks{s.tasks} }

// Ping verifies the primary is reachable.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects from the deployment.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// newestFirst sorts query results by descending creation time.
func newestFirst() bson.D {
	return bson.D{{Key: "created_at", Value: -1}}
}

// =============================================================================
// Users
// =============================================================================

type mongoUsers struct{ coll *mongo.Collection }

var _ Users = mongoUsers{}

func (m mongoUsers) Create(ctx context.Context, u *User) error {
	stampUser(u, time.Now().UTC())
	_, err := m.coll.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return dupUserErr(err)
	}
	return err
}

func (m mongoUsers) ByID(ctx context.Context, id string) (*User, error) {
	return m.findOne(ctx, bson.M{"_id": id})
}

func (m mongoUsers) ByEmail(ctx context.Context, email string) (*User, error) {
	return m.findOne(ctx, bson.M{"email": email})
}

func (m mongoUsers) findOne(ctx context.Context, filter bson.M) (*User, error) {
	var u User
	err := m.coll.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (m mongoUsers) Update(ctx context.Context, u *User) error {
	u.UpdatedAt = time.Now().UTC()
	res, err := m.coll.ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if mongo.IsDuplicateKeyError(err) {
		return dupUserErr(err)
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// dupUserErr maps a duplicate-key error to the colliding field. The
// violated index name appears in the server message.
func dupUserErr(err error) error {
	if strings.Contains(err.Error(), "email") {
		return ErrEmailTaken
	}
	return ErrUsernameTaken
}

// =============================================================================
// Mindmaps
// =============================================================================

type mongoMindmaps struct{ coll *mongo.Collection }

var _ Mindmaps = mongoMindmaps{}

func (m mongoMindmaps) Create(ctx context.Context, doc *mindmap.Document) error {
	stampDocument(doc, time.Now().UTC())
	_, err := m.coll.InsertOne(ctx, doc)
	return err
}

func (m mongoMindmaps) Get(ctx context.Context, id string) (*mindmap.Document, error) {
	var d mindmap.Document
	err := m.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (m mongoMindmaps) Update(ctx context.Context, doc *mindmap.Document) error {
	doc.Version++
	doc.UpdatedAt = time.Now().UTC()
	res, err := m.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID, "user_id": doc.UserID}, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m mongoMindmaps) Delete(ctx context.Context, id, userID string) error {
	res, err := m.coll.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m mongoMindmaps) ListByUser(ctx context.Context, userID string, skip, limit int64) ([]*mindmap.Document, error) {
	if skip < 0 {
		skip = 0
	}
	opts := options.Find().SetSort(newestFirst()).SetSkip(skip).SetLimit(limit)
	cur, err := m.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}

	docs := []*mindmap.Document{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (m mongoMindmaps) SearchPublic(ctx context.Context, query string, limit int64) ([]*mindmap.Document, error) {
	filter := bson.M{
		"is_public": true,
		"$text":     bson.M{"$search": query},
	}
	opts := options.Find().SetSort(newestFirst()).SetLimit(limit)
	cur, err := m.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	docs := []*mindmap.Document{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (m mongoMindmaps) Stats(ctx context.Context, userID string, monthStart time.Time) (MindmapStats, error) {
	total, err := m.coll.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return MindmapStats{}, err
	}
	monthly, err := m.coll.CountDocuments(ctx, bson.M{
		"user_id":    userID,
		"created_at": bson.M{"$gte": monthStart},
	})
	if err != nil {
		return MindmapStats{}, err
	}
	return MindmapStats{Total: total, Monthly: monthly}, nil
}

// =============================================================================
// Tasks
// =============================================================================

type mongoTasks struct{ coll *mongo.Collection }

var _ Tasks = mongoTasks{}

func (m mongoTasks) Create(ctx context.Context, t *Task) error {
	stampTask(t, time.Now().UTC())
	_, err := m.coll.InsertOne(ctx, t)
	return err
}

func (m mongoTasks) Get(ctx context.Context, id, userID string) (*Task, error) {
	var t Task
	err := m.coll.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (m mongoTasks) Update(ctx context.Context, t *Task) error {
	now := time.Now().UTC()
	t.UpdatedAt = now
	if t.Status.Terminal() && t.CompletedAt == nil {
		t.CompletedAt = &now
	}
	res, err := m.coll.ReplaceOne(ctx, bson.M{"_id": t.ID}, t)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m mongoTasks) Delete(ctx context.Context, id, userID string) error {
	res, err := m.coll.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m mongoTasks) ListByUser(ctx context.Context, userID string, status TaskStatus, skip, limit int64) ([]*Task, error) {
	if skip < 0 {
		skip = 0
	}
	filter := bson.M{"user_id": userID}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(newestFirst()).SetSkip(skip).SetLimit(limit)
	cur, err := m.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	tasks := []*Task{}
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}
