package dedup

import (
	"context"
	"log/slog"
	"time"

	"github.com/amishk599/jobsync/internal/model"
)

// Unique is a raw item that survived deduplication, paired with its fingerprint.
type Unique struct {
	Item model.RawItem
	Hash string
}

// Deduplicator filters out raw items whose fingerprint is already stored or
// was already emitted earlier in the same batch.
type Deduplicator struct {
	index   model.FingerprintIndex
	timeout time.Duration // per lookup; zero means no extra bound
	logger  *slog.Logger
}

// NewDeduplicator creates a Deduplicator backed by the given fingerprint index.
func NewDeduplicator(index model.FingerprintIndex, timeout time.Duration, logger *slog.Logger) *Deduplicator {
	return &Deduplicator{
		index:   index,
		timeout: timeout,
		logger:  logger,
	}
}

// Dedupe returns the unique items of items in input order.
//
// Store membership is looked up in one batch. If the batch fails, each item
// is checked on its own; an item whose lookup fails is passed through as
// unique, so a flaky store can only cause over-collection, never loss.
func (d *Deduplicator) Dedupe(ctx context.Context, items []model.RawItem) []Unique {
	if len(items) == 0 {
		return nil
	}

	hashes := make([]string, len(items))
	for i, item := range items {
		hashes[i] = Fingerprint(item.Title, item.Organization, item.LastDate)
	}

	existing, batchErr := d.lookupBatch(ctx, hashes)
	if batchErr != nil {
		d.logger.Warn("batch fingerprint lookup failed, checking items one by one", "error", batchErr)
	}

	seen := make(map[string]struct{}, len(items))
	unique := make([]Unique, 0, len(items))
	for i, item := range items {
		hash := hashes[i]
		if _, dup := seen[hash]; dup {
			d.logger.Debug("duplicate within batch", "title", item.Title, "source", item.Source)
			continue
		}
		seen[hash] = struct{}{}

		var stored bool
		if batchErr == nil {
			stored = existing[hash]
		} else {
			var err error
			stored, err = d.lookupOne(ctx, hash)
			if err != nil {
				d.logger.Warn("fingerprint lookup failed, treating item as unique",
					"title", item.Title,
					"source", item.Source,
					"error", err,
				)
			}
		}
		if stored {
			d.logger.Debug("already stored", "title", item.Title, "hash", hash)
			continue
		}
		unique = append(unique, Unique{Item: item, Hash: hash})
	}

	return unique
}

func (d *Deduplicator) lookupBatch(ctx context.Context, hashes []string) (map[string]bool, error) {
	ctx, cancel := d.bound(ctx)
	defer cancel()
	return d.index.ExistingFingerprints(ctx, hashes)
}

func (d *Deduplicator) lookupOne(ctx context.Context, hash string) (bool, error) {
	ctx, cancel := d.bound(ctx)
	defer cancel()
	return d.index.HasFingerprint(ctx, hash)
}

func (d *Deduplicator) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.timeout)
}
