package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/voltlab/designdex/internal/db"
	"github.com/voltlab/designdex/internal/domain"
	"github.com/voltlab/designdex/internal/domain/record"
)

// store is the consumer interface for the catalog (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	JSONGetMulti(ctx context.Context, keys []string) ([][]byte, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// Repo persists design records as JSON documents with a set index of ids.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates a catalog repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix}
}

// Upsert creates or updates a design record. Returns true if created.
func (r *Repo) Upsert(ctx context.Context, rec record.DesignRecord) (bool, error) {
	key := r.designKey(rec.ID())
	data, err := json.Marshal(toDTO(rec))
	if err != nil {
		return false, fmt.Errorf("marshal design: %w", err)
	}

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check exists %s: %w", key, err)
	}

	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return false, fmt.Errorf("json.set %s: %w", key, err)
	}
	if err := r.store.SAdd(ctx, r.indexKey(), rec.ID()); err != nil {
		return false, fmt.Errorf("index design %s: %w", rec.ID(), err)
	}

	return !exists, nil
}

// Get returns a design record by id.
func (r *Repo) Get(ctx context.Context, id string) (record.DesignRecord, error) {
	key := r.designKey(id)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return record.DesignRecord{}, domain.ErrNotFound
		}
		return record.DesignRecord{}, fmt.Errorf("json.get %s: %w", key, err)
	}
	return parseJSONGetResult(id, raw)
}

// LoadAll returns every design record, sorted by id so snapshots are
// reproducible. Stale index entries whose document vanished are skipped.
func (r *Repo) LoadAll(ctx context.Context) ([]record.DesignRecord, error) {
	ids, err := r.store.SMembers(ctx, r.indexKey())
	if err != nil {
		return nil, fmt.Errorf("list design ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	sort.Strings(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.designKey(id)
	}

	raws, err := r.store.JSONGetMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load designs: %w", err)
	}

	records := make([]record.DesignRecord, 0, len(ids))
	for i, raw := range raws {
		if raw == nil {
			continue
		}
		rec, err := parseJSONGetResult(ids[i], raw)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Delete removes a design record and its index entry.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := r.designKey(id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrNotFound
	}

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	if err := r.store.SRem(ctx, r.indexKey(), id); err != nil {
		return fmt.Errorf("unindex design %s: %w", id, err)
	}
	return nil
}

func (r *Repo) designKey(id string) string {
	return fmt.Sprintf("%sdesign:%s", r.keyPrefix, id)
}

func (r *Repo) indexKey() string {
	return r.keyPrefix + "designs"
}
