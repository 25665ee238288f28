package repository

import (
	"context"

	"github.com/m2tx/solarshine/internal/model"
)

// TranscriptRepository persists the record of each chat exchange. It is an
// operator's log; the assistant never reads it back to build context.
type TranscriptRepository interface {
	// Save stores one exchange. Saving an ID twice replaces the first record.
	Save(ctx context.Context, t model.Transcript) error

	// Recent returns up to q.Limit transcripts matching q, newest first.
	Recent(ctx context.Context, q RecentQuery) ([]model.Transcript, error)
}

// RecentQuery selects transcripts for Recent. The filter is applied before
// the limit, so FailedOnly with Limit 10 yields the ten newest failures.
type RecentQuery struct {
	Limit      int
	FailedOnly bool
}

// MaxRecent caps the number of transcripts returned by Recent.
const MaxRecent = 200

func clampLimit(limit int) int {
	if limit <= 0 || limit > MaxRecent {
		return MaxRecent
	}
	return limit
}
