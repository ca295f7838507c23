package job

import (
	"context"
	"sort"
	"sync"
)

// DefaultHistoryLimit is the number of records MemoryRepository keeps by default.
const DefaultHistoryLimit = 200

// Compile-time check that MemoryRepository implements Repository.
var _ Repository = (*MemoryRepository)(nil)

// MemoryRepository is an in-memory implementation of Repository.
// Once it holds more than its limit, the oldest terminal records are evicted.
// Jobs still in flight are never evicted.
type MemoryRepository struct {
	mu    sync.RWMutex
	jobs  map[string]*Job
	order []string
	limit int
}

// NewMemoryRepository creates a new in-memory job repository keeping at most
// limit records. A non-positive limit selects DefaultHistoryLimit.
func NewMemoryRepository(limit int) *MemoryRepository {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &MemoryRepository{
		jobs:  make(map[string]*Job),
		limit: limit,
	}
}

// Save persists a clone of job.
func (r *MemoryRepository) Save(_ context.Context, job *Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[job.ID]; !ok {
		r.order = append(r.order, job.ID)
	}
	r.jobs[job.ID] = job.Clone()
	r.evictLocked()
	return nil
}

// evictLocked drops the oldest terminal records until the limit holds.
func (r *MemoryRepository) evictLocked() {
	excess := len(r.order) - r.limit
	if excess <= 0 {
		return
	}

	kept := r.order[:0]
	for _, id := range r.order {
		if excess > 0 && r.jobs[id].IsTerminal() {
			delete(r.jobs, id)
			excess--
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
}

// FindByID retrieves a job by its ID.
// Returns a clone to prevent external mutations.
func (r *MemoryRepository) FindByID(_ context.Context, id string) (*Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job.Clone(), nil
}

// List returns clones of all jobs, newest first.
func (r *MemoryRepository) List(_ context.Context) ([]*Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Job, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		result = append(result, r.jobs[r.order[i]].Clone())
	}
	sort.SliceStable(result, func(a, b int) bool {
		return result[a].CreatedAt.After(result[b].CreatedAt)
	})
	return result, nil
}

// Delete removes a job from storage.
func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[id]; !ok {
		return ErrJobNotFound
	}
	delete(r.jobs, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
