package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/amishk599/jobsync/internal/model"
)

// Collection names.
const (
	JobsCollection   = "jobs"
	RunLogCollection = "automation_logs"
)

// MongoStore persists verified jobs and run logs in MongoDB.
type MongoStore struct {
	client *mongo.Client
	jobs   *mongo.Collection
	runs   *mongo.Collection
	now    func() time.Time
}

// NewMongoStore connects to uri, pings the server and ensures the unique
// contentHash index on the jobs collection.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}

	db := client.Database(database)
	s := &MongoStore{
		client: client,
		jobs:   db.Collection(JobsCollection),
		runs:   db.Collection(RunLogCollection),
		now:    time.Now,
	}

	_, err = s.jobs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "contentHash", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("contentHash_unique"),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("creating contentHash index: %w", err)
	}

	return s, nil
}

// ExistingFingerprints returns the subset of hashes already stored, in one query.
func (s *MongoStore) ExistingFingerprints(ctx context.Context, hashes []string) (map[string]bool, error) {
	found := make(map[string]bool, len(hashes))
	if len(hashes) == 0 {
		return found, nil
	}

	cursor, err := s.jobs.Find(ctx,
		bson.M{"contentHash": bson.M{"$in": hashes}},
		options.Find().SetProjection(bson.M{"contentHash": 1, "_id": 0}),
	)
	if err != nil {
		return nil, fmt.Errorf("querying content hashes: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc struct {
			ContentHash string `bson:"contentHash"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding content hash: %w", err)
		}
		found[doc.ContentHash] = true
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return found, nil
}

// HasFingerprint reports whether a job with hash is stored.
func (s *MongoStore) HasFingerprint(ctx context.Context, hash string) (bool, error) {
	n, err := s.jobs.CountDocuments(ctx, bson.M{"contentHash": hash}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("checking content hash %s: %w", hash, err)
	}
	return n > 0, nil
}

// InsertJob stores job with a fresh ID and timestamps. A job whose content
// hash is already stored yields model.ErrDuplicate.
func (s *MongoStore) InsertJob(ctx context.Context, job *model.VerifiedJob) error {
	now := s.now().UTC()
	job.ID = uuid.NewString()
	job.CreatedAt = now
	job.UpdatedAt = now

	if _, err := s.jobs.InsertOne(ctx, job); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("inserting job %s: %w", job.ContentHash, model.ErrDuplicate)
		}
		return fmt.Errorf("inserting job %s: %w", job.ContentHash, err)
	}
	return nil
}

// AppendRunLog appends entry to the run-log collection.
func (s *MongoStore) AppendRunLog(ctx context.Context, entry *model.RunLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if _, err := s.runs.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("appending run log: %w", err)
	}
	return nil
}

// RecentJobs returns up to limit jobs, newest first.
func (s *MongoStore) RecentJobs(ctx context.Context, limit int) ([]model.VerifiedJob, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(int64(limit))
	cursor, err := s.jobs.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("querying recent jobs: %w", err)
	}
	var jobs []model.VerifiedJob
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, fmt.Errorf("decoding recent jobs: %w", err)
	}
	return jobs, nil
}

// RecentRuns returns up to limit run logs, newest first.
func (s *MongoStore) RecentRuns(ctx context.Context, limit int) ([]model.RunLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(int64(limit))
	cursor, err := s.runs.Find(ctx, bson.M{"type": model.RunLogType}, opts)
	if err != nil {
		return nil, fmt.Errorf("querying recent runs: %w", err)
	}
	var runs []model.RunLog
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, fmt.Errorf("decoding recent runs: %w", err)
	}
	return runs, nil
}

// Close disconnects from the server.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
