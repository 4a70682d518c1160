package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"rotorgo/pkg/adif"
	"rotorgo/pkg/model"
	"rotorgo/pkg/store"
)

const adifStateKey = "adif_log_mtime"

// Store is the subset of the store maintenance needs.
type Store interface {
	store.QSOStore
	store.CommandStore
	store.StateStore
}

// SyncStore is what SyncADIF needs: QSO storage and the import checkpoint.
type SyncStore interface {
	store.QSOStore
	store.StateStore
}

// Run executes all maintenance tasks: ADIF import and history pruning.
// Failures are logged; startup continues. It blocks until completion.
func Run(ctx context.Context, s Store, adifPath string, historyMaxAge time.Duration) error {
	slog.Info("Starting database maintenance...")

	if adifPath != "" {
		if n, err := SyncADIF(ctx, s, adifPath); err != nil {
			slog.Error("ADIF import failed", "path", adifPath, "error", err)
		} else {
			slog.Info("ADIF import check completed", "new_qsos", n)
		}
	}

	if historyMaxAge > 0 {
		if n, err := s.PruneCommands(ctx, historyMaxAge); err != nil {
			slog.Error("Command history pruning failed", "error", err)
		} else {
			slog.Info("Command history pruning completed", "removed", n)
		}
	}

	return nil
}

// SyncADIF imports the ADIF log when its mtime differs from the last recorded import.
func SyncADIF(ctx context.Context, s SyncStore, path string) (int, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return 0, nil // Nothing to import
	}
	if err != nil {
		return 0, fmt.Errorf("failed to stat adif: %w", err)
	}

	fileMTime := info.ModTime().UTC().Format(time.RFC3339Nano)
	if stored, found := s.GetState(ctx, adifStateKey); found && stored == fileMTime {
		return 0, nil // Up to date
	}

	n, err := ImportADIF(ctx, s, path)
	if err != nil {
		return n, err
	}

	if err := s.SetState(ctx, adifStateKey, fileMTime); err != nil {
		return n, fmt.Errorf("failed to update state: %w", err)
	}
	return n, nil
}

// ImportADIF parses path and stores every QSO not already present.
// Records without a callsign are skipped with a warning.
func ImportADIF(ctx context.Context, s store.QSOStore, path string) (int, error) {
	slog.Info("Importing ADIF log", "path", path)

	recs, err := adif.ParseFile(path)
	if err != nil {
		return 0, err
	}

	qsos := make([]*model.QSO, 0, len(recs))
	for i := range recs {
		q, err := adif.ToQSO(&recs[i])
		if err != nil {
			slog.Warn("Skipping ADIF record", "index", i, "error", err)
			continue
		}
		qsos = append(qsos, q)
	}

	n, err := s.SaveQSOs(ctx, qsos)
	if err != nil {
		return 0, err
	}
	slog.Info("Imported QSOs", "parsed", len(recs), "new", n)
	return n, nil
}
