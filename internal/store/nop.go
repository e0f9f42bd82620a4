package store

import (
	"context"

	"github.com/amishk599/jobsync/internal/model"
)

// NopStore is a no-op store used in dry-run mode. It never reports a
// fingerprint as stored, so every item appears new on each run, and it
// writes nothing.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) ExistingFingerprints(context.Context, []string) (map[string]bool, error) {
	return map[string]bool{}, nil
}
func (s *NopStore) HasFingerprint(context.Context, string) (bool, error)         { return false, nil }
func (s *NopStore) InsertJob(context.Context, *model.VerifiedJob) error          { return nil }
func (s *NopStore) AppendRunLog(context.Context, *model.RunLog) error            { return nil }
func (s *NopStore) RecentJobs(context.Context, int) ([]model.VerifiedJob, error) { return nil, nil }
func (s *NopStore) RecentRuns(context.Context, int) ([]model.RunLog, error)      { return nil, nil }
func (s *NopStore) Close() error                                                 { return nil }
