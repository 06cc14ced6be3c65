package replay

import (
	"context"

	"curvepool/internal/storage/postgres"
)

// DBCheckpointStore persists checkpoints in the replay_state table.
type DBCheckpointStore struct {
	Store *postgres.Store
	Name  string
}

func (s *DBCheckpointStore) Load(ctx context.Context) (Checkpoint, bool, error) {
	if s == nil || s.Store == nil {
		return Checkpoint{}, false, nil
	}
	seq, ok, err := s.Store.LoadState(ctx, s.Name)
	if err != nil || !ok {
		return Checkpoint{}, false, err
	}
	return Checkpoint{LastAppliedSeq: seq}, true, nil
}

func (s *DBCheckpointStore) Save(ctx context.Context, lastApplied uint64) error {
	if s == nil || s.Store == nil {
		return nil
	}
	return s.Store.SaveState(ctx, s.Name, lastApplied)
}
