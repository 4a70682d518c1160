package store

import (
	"context"
	"time"

	"rotorgo/pkg/model"
	"rotorgo/pkg/rotator"
)

// QSOStore handles imported log entries.
type QSOStore interface {
	SaveQSO(ctx context.Context, q *model.QSO) (bool, error)
	SaveQSOs(ctx context.Context, qs []*model.QSO) (int, error)
	GetQSO(ctx context.Context, id int64) (*model.QSO, error)
	RecentQSOs(ctx context.Context, limit int) ([]*model.QSO, error)
	CountQSOs(ctx context.Context) (int, error)
}

// CommandStore handles the rotator command audit trail.
type CommandStore interface {
	RecordCommand(ctx context.Context, rec *rotator.CommandRecord) error
	RecentCommands(ctx context.Context, limit int) ([]*rotator.CommandRecord, error)
	PruneCommands(ctx context.Context, olderThan time.Duration) (int64, error)
}

// StateStore handles persistent bookkeeping such as import checkpoints.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, bool)
	SetState(ctx context.Context, key, val string) error
	DeleteState(ctx context.Context, key string) error
}
