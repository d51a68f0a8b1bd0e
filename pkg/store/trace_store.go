package store

import (
	"context"
	"sync"

	"github.com/helixask/helixaskd/pkg/models"
)

// TraceStore is an append-only, tenant-scoped training-trace log with a
// monotonic seq cursor, mirroring the event bus's since(seq, ...) catch-up
// contract (§4.2/§4.6) so exportSince and the bus's Since share one idiom.
type TraceStore struct {
	mu      sync.Mutex
	records []models.TraceRecord
	counter uint64
}

// NewTraceStore constructs an empty trace log.
func NewTraceStore() *TraceStore {
	return &TraceStore{}
}

// Append adds one record, assigning it the next monotonic seq.
func (t *TraceStore) Append(ctx context.Context, tenantID string, rec models.TraceRecord) (models.TraceRecord, error) {
	if tenantID == "" {
		return models.TraceRecord{}, ErrForbidden
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.counter++
	rec.Seq = t.counter
	rec.TenantID = tenantID
	t.records = append(t.records, rec)
	return rec, nil
}

// ExportSince returns records with seq > since, in order, capped at limit.
func (t *TraceStore) ExportSince(ctx context.Context, tenantID string, since uint64, limit int) ([]models.TraceRecord, error) {
	if tenantID == "" {
		return nil, ErrForbidden
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var out []models.TraceRecord
	for _, rec := range t.records {
		if rec.TenantID != tenantID || rec.Seq <= since {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
