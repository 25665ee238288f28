package repository

import (
	"context"
	"sync"

	"github.com/m2tx/solarshine/internal/model"
)

// MemoryTranscriptRepository keeps the most recent transcripts in process
// memory. It is used when no MongoDB is configured.
type MemoryTranscriptRepository struct {
	mu          sync.RWMutex
	capacity    int
	transcripts []model.Transcript
}

// NewMemoryTranscriptRepository keeps at most capacity transcripts, dropping
// the oldest. A capacity <= 0 means MaxRecent.
func NewMemoryTranscriptRepository(capacity int) *MemoryTranscriptRepository {
	if capacity <= 0 {
		capacity = MaxRecent
	}
	return &MemoryTranscriptRepository{capacity: capacity}
}

func (r *MemoryTranscriptRepository) Save(_ context.Context, t model.Transcript) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.transcripts {
		if r.transcripts[i].ID == t.ID {
			r.transcripts[i] = t
			return nil
		}
	}

	r.transcripts = append(r.transcripts, t)
	if over := len(r.transcripts) - r.capacity; over > 0 {
		r.transcripts = append(r.transcripts[:0:0], r.transcripts[over:]...)
	}

	return nil
}

func (r *MemoryTranscriptRepository) Recent(_ context.Context, q RecentQuery) ([]model.Transcript, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit := clampLimit(q.Limit)
	if limit > len(r.transcripts) {
		limit = len(r.transcripts)
	}

	out := make([]model.Transcript, 0, limit)
	for i := len(r.transcripts) - 1; i >= 0 && len(out) < limit; i-- {
		if q.FailedOnly && !r.transcripts[i].Failed() {
			continue
		}
		out = append(out, r.transcripts[i])
	}

	return out, nil
}
