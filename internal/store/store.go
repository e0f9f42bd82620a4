package store

import "github.com/amishk599/jobsync/internal/model"

// Store is the full surface a persistence backend provides.
type Store interface {
	model.JobRepository
	model.JobLister
	Close() error
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MongoStore)(nil)
	_ Store = (*NopStore)(nil)
)
