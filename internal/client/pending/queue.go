// Package pending implements the durable queue of not-yet-submitted reports.
//
// The whole queue is stored as one JSON blob under a single storage key and
// rewritten on every mutation, newest first. Callers must not interleave two
// concurrent read-modify-write cycles; the UI disables concurrent triggers
// instead of the store locking.
package pending

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/civilog/civilog-cli/internal/client/kvstore"
	"github.com/civilog/civilog-cli/internal/client/models"
	"github.com/google/uuid"
)

// StorageKey is the kvstore key holding the serialized queue.
const StorageKey = "kc-pending-reports"

// Queue is the pending-report store backed by a kvstore.Store.
type Queue struct {
	kv  kvstore.Store
	now func() time.Time // test seam
}

func New(kv kvstore.Store) *Queue {
	return &Queue{kv: kv, now: time.Now}
}

// newID generates a queue-local identifier: unix-millis plus a random
// suffix. Uniqueness is the generator's responsibility; collisions are
// not handled downstream.
func (q *Queue) newID() string {
	return fmt.Sprintf("%d-%s", q.now().UnixMilli(), uuid.NewString()[:8])
}

// Load reads the full queue, newest first. An absent or unreadable queue
// loads as empty; Load never fails.
func (q *Queue) Load(ctx context.Context) []models.PendingReport {
	raw, err := q.kv.Get(ctx, StorageKey)
	if err != nil || raw == nil {
		return []models.PendingReport{}
	}
	var list []models.PendingReport
	if err := json.Unmarshal(raw, &list); err != nil {
		return []models.PendingReport{}
	}
	if list == nil {
		return []models.PendingReport{}
	}
	return list
}

func (q *Queue) save(ctx context.Context, list []models.PendingReport) error {
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to encode pending queue: %w", err)
	}
	if err := q.kv.Set(ctx, StorageKey, raw); err != nil {
		return fmt.Errorf("failed to persist pending queue: %w", err)
	}
	return nil
}

// Add assigns a fresh id and creation timestamp to report, prepends it to
// the queue, persists, and returns the stored record. Any id or createdAt
// already set on report is discarded.
func (q *Queue) Add(ctx context.Context, report models.PendingReport) (*models.PendingReport, error) {
	report.ID = q.newID()
	report.CreatedAt = q.now().UnixMilli()
	if report.Media == nil {
		report.Media = []models.PendingMedia{}
	}

	list := append([]models.PendingReport{report}, q.Load(ctx)...)
	if err := q.save(ctx, list); err != nil {
		return nil, err
	}
	return &report, nil
}

// Remove filters id out of the queue and persists. A missing id is a
// silent no-op.
func (q *Queue) Remove(ctx context.Context, id string) error {
	list := q.Load(ctx)
	kept := make([]models.PendingReport, 0, len(list))
	for _, r := range list {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	return q.save(ctx, kept)
}

// UpdateMedia replaces the media list of the matching record. A missing id
// is a no-op.
func (q *Queue) UpdateMedia(ctx context.Context, id string, media []models.PendingMedia) error {
	list := q.Load(ctx)
	for i := range list {
		if list[i].ID == id {
			if media == nil {
				media = []models.PendingMedia{}
			}
			list[i].Media = media
			break
		}
	}
	return q.save(ctx, list)
}

// DetailsPatch carries the editable detail fields of a pending report.
// Nil fields are left unchanged.
type DetailsPatch struct {
	Name     *string
	Comment  *string
	Quantity *string
	UnitType *string
}

// UpdateDetails shallow-merges patch into the matching record, never
// touching id, createdAt, or media. A missing id is a no-op.
func (q *Queue) UpdateDetails(ctx context.Context, id string, patch DetailsPatch) error {
	list := q.Load(ctx)
	for i := range list {
		if list[i].ID != id {
			continue
		}
		if patch.Name != nil {
			list[i].Name = *patch.Name
		}
		if patch.Comment != nil {
			list[i].Comment = *patch.Comment
		}
		if patch.Quantity != nil {
			list[i].Quantity = *patch.Quantity
		}
		if patch.UnitType != nil {
			list[i].UnitType = *patch.UnitType
		}
		break
	}
	return q.save(ctx, list)
}
