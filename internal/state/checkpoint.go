package state

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pdmirror/pdmirror/internal/recovery"
)

// DefaultCheckpointKey is where the update checkpoint lives.
const DefaultCheckpointKey = "updates.checkpoint"

// CheckpointStore keeps the single recovery checkpoint in the kv table.
type CheckpointStore struct {
	Key string
}

// NewCheckpointStore uses DefaultCheckpointKey.
func NewCheckpointStore() *CheckpointStore {
	return &CheckpointStore{Key: DefaultCheckpointKey}
}

// Load implements recovery.Store.
func (s *CheckpointStore) Load(ctx context.Context) (recovery.Checkpoint, bool, error) {
	raw, ok, err := Get(ctx, s.Key)
	if err != nil || !ok {
		return recovery.Checkpoint{}, false, err
	}
	var cp recovery.Checkpoint
	if err := json.Unmarshal(raw, &cp); err != nil {
		return recovery.Checkpoint{}, false, fmt.Errorf("corrupt checkpoint: %w", err)
	}
	return cp, true, nil
}

// Save implements recovery.Store.
func (s *CheckpointStore) Save(ctx context.Context, cp recovery.Checkpoint) error {
	raw, err := json.Marshal(cp)
	if err != nil {
		return err
	}
	return Put(ctx, s.Key, raw)
}

// Delete implements recovery.Store.
func (s *CheckpointStore) Delete(ctx context.Context) error {
	return Delete(ctx, s.Key)
}

var _ recovery.Store = (*CheckpointStore)(nil)
