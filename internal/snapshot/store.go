// Package snapshot saves and reapplies whole priority vectors, one per
// colonist, independent of any slot override.
package snapshot

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"scheduleall/internal/domain"
	"scheduleall/internal/host"
)

var ErrNoSnapshot = errors.New("no snapshot found")

type Persister interface {
	ReplaceSnapshots(ctx context.Context, snaps []domain.Snapshot) error
	ListSnapshots(ctx context.Context) ([]domain.Snapshot, error)
}

// Suppressor runs fn as an internal operation so bulk writes are not seen as
// player edits.
type Suppressor interface {
	Suppress(fn func())
}

type Store struct {
	colony  host.Colony
	defs    host.Definitions
	persist Persister
	guard   Suppressor
	logger  *zap.Logger
}

func New(colony host.Colony, defs host.Definitions, persist Persister, guard Suppressor, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		colony:  colony,
		defs:    defs,
		persist: persist,
		guard:   guard,
		logger:  logger,
	}
}

// Capture reads every working colonist's full priority vector.
func (s *Store) Capture() []domain.Snapshot {
	works := s.defs.WorkTypes()
	var out []domain.Snapshot
	for _, a := range s.colony.Agents() {
		if a == nil || !a.CanEverWork() {
			continue
		}
		snap := domain.Snapshot{
			PawnName:     a.Name(),
			WorkDefNames: make([]string, 0, len(works)),
			Priorities:   make([]int, 0, len(works)),
		}
		for _, w := range works {
			snap.WorkDefNames = append(snap.WorkDefNames, w.DefName)
			snap.Priorities = append(snap.Priorities, a.Priority(w.DefName))
		}
		out = append(out, snap)
	}
	return out
}

// CaptureAll captures and persists, replacing whatever was stored before.
func (s *Store) CaptureAll(ctx context.Context) ([]domain.Snapshot, error) {
	snaps := s.Capture()
	if err := s.persist.ReplaceSnapshots(ctx, snaps); err != nil {
		return nil, fmt.Errorf("persist snapshots: %w", err)
	}
	s.logger.Info("saved priority snapshots", zap.Int("count", len(snaps)))
	return snaps, nil
}

// Restore applies snapshots to colonists with the same name. Unknown names
// and work types that no longer exist are skipped. Returns how many
// colonists matched.
func (s *Store) Restore(snaps []domain.Snapshot) int {
	byName := make(map[string]domain.Snapshot, len(snaps))
	for _, snap := range snaps {
		if _, dup := byName[snap.PawnName]; !dup {
			byName[snap.PawnName] = snap
		}
	}

	matched := 0
	s.suppress(func() {
		for _, a := range s.colony.Agents() {
			if a == nil || !a.CanEverWork() {
				continue
			}
			snap, ok := byName[a.Name()]
			if !ok {
				continue
			}
			n := min(len(snap.WorkDefNames), len(snap.Priorities))
			for i := 0; i < n; i++ {
				if _, ok := s.defs.WorkType(snap.WorkDefNames[i]); !ok {
					continue
				}
				a.SetPriority(snap.WorkDefNames[i], snap.Priorities[i])
			}
			matched++
		}
	})
	return matched
}

// RestoreAll loads the persisted snapshots and applies them.
func (s *Store) RestoreAll(ctx context.Context) (int, error) {
	snaps, err := s.persist.ListSnapshots(ctx)
	if err != nil {
		return 0, fmt.Errorf("load snapshots: %w", err)
	}
	if len(snaps) == 0 {
		return 0, ErrNoSnapshot
	}
	matched := s.Restore(snaps)
	s.logger.Info("restored priority snapshots", zap.Int("matched", matched), zap.Int("stored", len(snaps)))
	return matched, nil
}

func (s *Store) suppress(fn func()) {
	if s.guard == nil {
		fn()
		return
	}
	s.guard.Suppress(fn)
}
