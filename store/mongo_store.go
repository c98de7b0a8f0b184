package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/taskflowhq/taskflow/models"
	"github.com/taskflowhq/taskflow/types"
)

// MongoStore is the document-database variant. Filters translate to
// native query operators, search uses the collection's full-text index
// with relevance ranking, pagination happens server-side, and statistics
// run as a single aggregation pipeline.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore wraps an established client. The caller owns the client's
// lifecycle; Close disconnects it.
func NewMongoStore(client *mongo.Client, database, collection string) *MongoStore {
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}
}

// EnsureIndexes creates the indexes the query load expects. Safe to call
// on every startup; existing indexes are left alone.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "completed", Value: 1}}},
		{Keys: bson.D{{Key: "completed", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "priority", Value: 1}, {Key: "dueDate", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "completed", Value: 1}}},
		{Keys: bson.D{{Key: "dueDate", Value: 1}}, Options: options.Index().SetSparse(true)},
		{
			Keys: bson.D{
				{Key: "text", Value: "text"},
				{Key: "category", Value: "text"},
				{Key: "tags", Value: "text"},
			},
			Options: options.Index().SetName("task_text_search"),
		},
	}
	_, err := s.coll.Indexes().CreateMany(ctx, indexes)
	return s.wrapErr("ensure indexes", err)
}

func (s *MongoStore) Backend() string { return "mongodb" }

func (s *MongoStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return &types.ConnectionError{Op: "ping", Err: err}
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) List(ctx context.Context, q Query) ([]models.Task, int64, error) {
	q.Normalize()
	if err := q.Validate(); err != nil {
		return nil, 0, err
	}

	filter := buildFilter(q, time.Now())
	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, s.wrapErr("count tasks", err)
	}

	opts := options.Find().
		SetSort(buildSort(q)).
		SetSkip(q.Skip()).
		SetLimit(int64(q.Limit))
	if q.HasSearch() {
		// Surface the relevance score so it can drive the sort.
		opts.SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}})
	}

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, s.wrapErr("list tasks", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	tasks := []models.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, 0, s.wrapErr("decode tasks", err)
	}
	return tasks, total, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (models.Task, error) {
	if err := checkID(id); err != nil {
		return models.Task{}, err
	}
	var t models.Task
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Task{}, &types.NotFoundError{ID: id}
	}
	if err != nil {
		return models.Task{}, s.wrapErr("get task", err)
	}
	return t, nil
}

func (s *MongoStore) Create(ctx context.Context, input models.Task) (models.Task, error) {
	t, err := models.NewTask(input, time.Now())
	if err != nil {
		return models.Task{}, err
	}
	if _, err := s.coll.InsertOne(ctx, t); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.Task{}, &types.DuplicateError{ID: t.ID}
		}
		return models.Task{}, s.wrapErr("create task", err)
	}
	return t, nil
}

func (s *MongoStore) Update(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error) {
	// Fetch-merge-replace: the merged document is re-validated as a whole
	// before it is written back.
	existing, err := s.Get(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	updated, err := models.ApplyPatch(existing, patch, time.Now())
	if err != nil {
		return models.Task{}, err
	}
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": id}, updated)
	if err != nil {
		return models.Task{}, s.wrapErr("update task", err)
	}
	if res.MatchedCount == 0 {
		// Deleted between fetch and write.
		return models.Task{}, &types.NotFoundError{ID: id}
	}
	return updated, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) (models.Task, error) {
	if err := checkID(id); err != nil {
		return models.Task{}, err
	}
	var t models.Task
	err := s.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Task{}, &types.NotFoundError{ID: id}
	}
	if err != nil {
		return models.Task{}, s.wrapErr("delete task", err)
	}
	return t, nil
}

func (s *MongoStore) Count(ctx context.Context, q Query) (int64, error) {
	q.Normalize()
	if err := q.Validate(); err != nil {
		return 0, err
	}
	n, err := s.coll.CountDocuments(ctx, buildFilter(q, time.Now()))
	if err != nil {
		return 0, s.wrapErr("count tasks", err)
	}
	return n, nil
}

func (s *MongoStore) BulkUpdate(ctx context.Context, ids []string, patch models.TaskPatch) (BulkResult, error) {
	if err := checkIDs(ids); err != nil {
		return BulkResult{}, err
	}
	now := time.Now()
	if err := models.ValidatePatch(patch, now); err != nil {
		return BulkResult{}, err
	}

	res, err := s.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": buildSetDoc(patch, now)},
	)
	if err != nil {
		return BulkResult{}, s.wrapErr("bulk update", err)
	}
	return BulkResult{MatchedCount: res.MatchedCount, ModifiedCount: res.ModifiedCount}, nil
}

func (s *MongoStore) Stats(ctx context.Context) (models.TaskStats, error) {
	now := time.Now()
	weekAgo := now.AddDate(0, 0, -7)

	pipeline := mongo.Pipeline{
		{{Key: "$facet", Value: bson.M{
			"counts": bson.A{
				bson.M{"$group": bson.M{
					"_id":       nil,
					"total":     bson.M{"$sum": 1},
					"completed": bson.M{"$sum": bson.M{"$cond": bson.A{"$completed", 1, 0}}},
				}},
			},
			"overdue": bson.A{
				bson.M{"$match": bson.M{"completed": false, "dueDate": bson.M{"$lt": now}}},
				bson.M{"$count": "count"},
			},
			"priority": bson.A{
				bson.M{"$group": bson.M{"_id": "$priority", "count": bson.M{"$sum": 1}}},
			},
			"category": bson.A{
				bson.M{"$group": bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}},
				bson.M{"$sort": bson.M{"count": -1}},
				bson.M{"$limit": 10},
			},
			"recent": bson.A{
				bson.M{"$match": bson.M{"createdAt": bson.M{"$gte": weekAgo}}},
				bson.M{"$count": "count"},
			},
		}}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return models.TaskStats{}, s.wrapErr("aggregate stats", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var facets []struct {
		Counts []struct {
			Total     int64 `bson:"total"`
			Completed int64 `bson:"completed"`
		} `bson:"counts"`
		Overdue []struct {
			Count int64 `bson:"count"`
		} `bson:"overdue"`
		Priority []struct {
			ID    string `bson:"_id"`
			Count int64  `bson:"count"`
		} `bson:"priority"`
		Category []models.CategoryCount `bson:"category"`
		Recent   []struct {
			Count int64 `bson:"count"`
		} `bson:"recent"`
	}
	if err := cursor.All(ctx, &facets); err != nil {
		return models.TaskStats{}, s.wrapErr("decode stats", err)
	}

	stats := models.TaskStats{
		PriorityDistribution: make(map[string]int64),
		CategoryDistribution: []models.CategoryCount{},
	}
	if len(facets) > 0 {
		f := facets[0]
		if len(f.Counts) > 0 {
			stats.Total = f.Counts[0].Total
			stats.Completed = f.Counts[0].Completed
		}
		if len(f.Overdue) > 0 {
			stats.Overdue = f.Overdue[0].Count
		}
		for _, p := range f.Priority {
			stats.PriorityDistribution[p.ID] = p.Count
		}
		stats.CategoryDistribution = f.Category
		if len(f.Recent) > 0 {
			stats.RecentTasksCount = f.Recent[0].Count
		}
	}
	stats.Finalize()
	return stats, nil
}

// buildFilter translates the query into native operators.
func buildFilter(q Query, now time.Time) bson.M {
	filter := bson.M{}
	if q.Completed != nil {
		filter["completed"] = *q.Completed
	}
	if q.Priority != "" {
		filter["priority"] = q.Priority
	}
	if q.Category != "" {
		filter["category"] = bson.M{"$regex": regexp.QuoteMeta(q.Category), "$options": "i"}
	}
	if q.IncludeOverdue {
		// Overrides any completed filter: overdue means incomplete and
		// past due by definition.
		filter["completed"] = false
		filter["dueDate"] = bson.M{"$lt": now}
	}
	if q.HasSearch() {
		filter["$text"] = bson.M{"$search": q.Search}
	}
	return filter
}

// buildSort translates the sort spec. Text search sorts by relevance
// score; everything else sorts by the whitelisted field with a createdAt
// tiebreaker for stable paging.
func buildSort(q Query) bson.D {
	if q.HasSearch() {
		return bson.D{{Key: "score", Value: bson.M{"$meta": "textScore"}}}
	}
	dir := -1
	if q.SortOrder == SortAsc {
		dir = 1
	}
	sort := bson.D{{Key: q.SortBy, Value: dir}}
	if q.SortBy != "createdAt" {
		sort = append(sort, bson.E{Key: "createdAt", Value: -1})
	}
	return sort
}

// buildSetDoc renders a validated patch as a $set document, normalizing
// values the same way single-task writes do.
func buildSetDoc(p models.TaskPatch, now time.Time) bson.M {
	set := bson.M{"lastModified": now}
	if p.Text != nil {
		set["text"] = models.NormalizeText(*p.Text)
	}
	if p.Completed != nil {
		set["completed"] = *p.Completed
	}
	if p.Priority != nil {
		set["priority"] = models.TaskPriority(strings.ToLower(strings.TrimSpace(string(*p.Priority))))
	}
	if p.Category != nil {
		set["category"] = strings.TrimSpace(*p.Category)
	}
	if p.DueDate != nil {
		set["dueDate"] = *p.DueDate
	}
	if p.Tags != nil {
		set["tags"] = models.NormalizeTags(*p.Tags)
	}
	if p.Metadata != nil {
		meta := *p.Metadata
		meta.Difficulty = models.TaskDifficulty(strings.ToLower(strings.TrimSpace(string(meta.Difficulty))))
		if meta.Difficulty == "" {
			meta.Difficulty = models.DifficultyMedium
		}
		set["metadata"] = meta
	}
	if p.UserID != nil {
		set["userId"] = *p.UserID
	}
	return set
}

// wrapErr classifies driver failures into the shared taxonomy. Timeouts
// and transport errors become ConnectionError so the selector can route
// around them.
func (s *MongoStore) wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, mongo.ErrClientDisconnected) {
		return &types.ConnectionError{Op: op, Err: err}
	}
	return &types.InternalError{Err: fmt.Errorf("%s: %w", op, err)}
}
