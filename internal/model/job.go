package model

import (
	"context"
	"time"
)

// ItemKind tells which kind of source produced a RawItem.
type ItemKind string

const (
	KindRSS    ItemKind = "rss"
	KindScrape ItemKind = "scrape"
)

// RawItem is an unnormalized candidate posting as captured from a source.
// It is created fresh on every run and never persisted.
type RawItem struct {
	Source       string    // feed or site identifier
	Title        string    // headline
	Link         string    // canonical URL
	Description  string    // free-text body
	Organization string    // empty unless the source exposes it
	LastDate     string    // empty unless the source exposes it
	ScrapedAt    time.Time // our clock
	Kind         ItemKind
}

// Extracted holds the structured fields the verifier pulls out of a posting.
type Extracted struct {
	Organization  string `json:"organization"`
	PostName      string `json:"postName"`
	Vacancies     int    `json:"vacancies"`
	StartDate     string `json:"startDate"`
	LastDate      string `json:"lastDate"`
	ExamDate      string `json:"examDate"`
	Fee           string `json:"fee"`
	Qualification string `json:"qualification"`
	AgeLimit      string `json:"ageLimit"`
	OfficialLink  string `json:"officialLink"`
}

// VerificationResult is the verifier's verdict on one RawItem.
type VerificationResult struct {
	IsLegitimate bool
	Confidence   int // 0..100
	Extracted    Extracted
	Category     string
	RedFlags     []string
	Reasoning    string
	Fallback     bool // true when the AI response could not be used
}

// Job statuses.
const (
	StatusActive = "active"
)

// VerifiedJob is an accepted, structured posting. ContentHash is the natural
// key; ID is assigned by the store.
type VerifiedJob struct {
	ID            string    `json:"id" bson:"_id,omitempty"`
	ContentHash   string    `json:"contentHash" bson:"contentHash"`
	Organization  string    `json:"organization" bson:"organization"`
	PostName      string    `json:"postName" bson:"postName"`
	Vacancies     int       `json:"vacancies" bson:"vacancies"`
	StartDate     string    `json:"startDate,omitempty" bson:"startDate,omitempty"`
	LastDate      string    `json:"lastDate,omitempty" bson:"lastDate,omitempty"`
	ExamDate      string    `json:"examDate,omitempty" bson:"examDate,omitempty"`
	Fee           string    `json:"fee" bson:"fee"`
	Qualification string    `json:"qualification" bson:"qualification"`
	AgeLimit      string    `json:"ageLimit" bson:"ageLimit"`
	OfficialLink  string    `json:"officialLink" bson:"officialLink"`
	Category      string    `json:"category" bson:"category"`
	Source        string    `json:"source" bson:"source"`
	SourceLink    string    `json:"sourceLink" bson:"sourceLink"`
	AIConfidence  int       `json:"aiConfidence" bson:"aiConfidence"`
	Status        string    `json:"status" bson:"status"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt"`
}

// RunLogType is the fixed type of every pipeline run-log entry.
const RunLogType = "scrape_run"

// RunLog is the append-only record of one pipeline execution.
type RunLog struct {
	ID             string    `json:"id" bson:"_id,omitempty"`
	Type           string    `json:"type" bson:"type"`
	Timestamp      time.Time `json:"timestamp" bson:"timestamp"`
	Duration       float64   `json:"duration" bson:"duration"` // seconds
	ItemsCollected int       `json:"itemsCollected" bson:"itemsCollected"`
	ItemsProcessed int       `json:"itemsProcessed" bson:"itemsProcessed"`
	ItemsApproved  int       `json:"itemsApproved" bson:"itemsApproved"`
}

// RunSummary is what the trigger caller sees.
type RunSummary struct {
	Success        bool   `json:"success"`
	ItemsCollected int    `json:"itemsCollected"`
	ItemsVerified  int    `json:"itemsVerified"`
	Error          string `json:"error,omitempty"`
}

// SourceFetcher produces raw items from one external source.
type SourceFetcher interface {
	Name() string
	FetchItems(ctx context.Context) ([]RawItem, error)
}

// FingerprintIndex answers whether content fingerprints are already stored.
type FingerprintIndex interface {
	// ExistingFingerprints returns the subset of hashes already present.
	ExistingFingerprints(ctx context.Context, hashes []string) (map[string]bool, error)
	HasFingerprint(ctx context.Context, hash string) (bool, error)
}

// JobRepository is the persistence boundary the pipeline writes through.
type JobRepository interface {
	FingerprintIndex
	// InsertJob stores job, assigning ID, CreatedAt and UpdatedAt. Returns
	// ErrDuplicate when the content hash is already stored.
	InsertJob(ctx context.Context, job *VerifiedJob) error
	AppendRunLog(ctx context.Context, entry *RunLog) error
}

// JobLister is the read side used by operator tooling.
type JobLister interface {
	RecentJobs(ctx context.Context, limit int) ([]VerifiedJob, error)
	RecentRuns(ctx context.Context, limit int) ([]RunLog, error)
}

// Notifier announces newly accepted jobs to operators.
type Notifier interface {
	Notify(jobs []VerifiedJob) error
}

// ItemFilter decides whether a raw item is worth deduplicating and verifying.
type ItemFilter interface {
	Match(item RawItem) bool
}
