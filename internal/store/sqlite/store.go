package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"scheduleall/internal/domain"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id TEXT PRIMARY KEY,
	pawn_name TEXT NOT NULL,
	position INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshot_priorities (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	snapshot_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	work_def TEXT NOT NULL,
	priority INTEGER NOT NULL,
	FOREIGN KEY(snapshot_id) REFERENCES snapshots(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_snapshot_priorities_lookup ON snapshot_priorities(snapshot_id, position);

CREATE TABLE IF NOT EXISTS decision_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	agent_id TEXT NOT NULL DEFAULT '',
	agent_name TEXT NOT NULL DEFAULT '',
	work TEXT NOT NULL DEFAULT '',
	from_priority INTEGER NOT NULL DEFAULT 0,
	to_priority INTEGER NOT NULL DEFAULT 0,
	count INTEGER NOT NULL DEFAULT 0,
	tick INTEGER NOT NULL DEFAULT 0,
	reason TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_decision_log_session ON decision_log(session_id, id);
`

type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set sqlite pragma %q: %w", stmt, err)
		}
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// ReplaceSnapshots drops every stored snapshot and writes snaps in one
// transaction.
func (s *Store) ReplaceSnapshots(ctx context.Context, snaps []domain.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots`); err != nil {
		return fmt.Errorf("clear snapshots: %w", err)
	}
	now := time.Now().UTC().Unix()
	for i, snap := range snaps {
		id := uuid.NewString()
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO snapshots(id, pawn_name, position, created_at) VALUES(?, ?, ?, ?)`,
			id, snap.PawnName, i, now,
		); err != nil {
			return fmt.Errorf("insert snapshot %q: %w", snap.PawnName, err)
		}
		n := min(len(snap.WorkDefNames), len(snap.Priorities))
		for j := 0; j < n; j++ {
			if _, err := tx.ExecContext(
				ctx,
				`INSERT INTO snapshot_priorities(snapshot_id, position, work_def, priority) VALUES(?, ?, ?, ?)`,
				id, j, snap.WorkDefNames[j], snap.Priorities[j],
			); err != nil {
				return fmt.Errorf("insert snapshot priority: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Store) ListSnapshots(ctx context.Context) ([]domain.Snapshot, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT s.id, s.pawn_name, p.work_def, p.priority
		FROM snapshots s
		LEFT JOIN snapshot_priorities p ON p.snapshot_id = s.id
		ORDER BY s.position ASC, p.position ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Snapshot, 0)
	lastID := ""
	for rows.Next() {
		var id, name string
		var work sql.NullString
		var priority sql.NullInt64
		if err := rows.Scan(&id, &name, &work, &priority); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		if id != lastID {
			result = append(result, domain.Snapshot{PawnName: name})
			lastID = id
		}
		if !work.Valid {
			continue
		}
		cur := &result[len(result)-1]
		cur.WorkDefNames = append(cur.WorkDefNames, work.String)
		cur.Priorities = append(cur.Priorities, int(priority.Int64))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return result, nil
}

func (s *Store) LogDecision(ctx context.Context, entry domain.DecisionLog) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO decision_log(session_id, kind, agent_id, agent_name, work, from_priority, to_priority, count, tick, reason, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.SessionID, string(entry.Kind), entry.AgentID, entry.AgentName, entry.Work,
		entry.From, entry.To, entry.Count, entry.Tick, entry.Reason, createdAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("log decision: %w", err)
	}
	return nil
}

// ListDecisions returns the newest entries first. An empty sessionID lists
// every session.
func (s *Store) ListDecisions(ctx context.Context, sessionID string, limit int) ([]domain.DecisionLog, error) {
	if limit <= 0 {
		limit = 300
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, session_id, kind, agent_id, agent_name, work, from_priority, to_priority, count, tick, reason, created_at
		FROM decision_log
		WHERE ? = '' OR session_id = ?
		ORDER BY id DESC
		LIMIT ?`,
		sessionID, sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	result := make([]domain.DecisionLog, 0)
	for rows.Next() {
		var item domain.DecisionLog
		var kind string
		var createdAt int64
		if err := rows.Scan(
			&item.ID, &item.SessionID, &kind, &item.AgentID, &item.AgentName, &item.Work,
			&item.From, &item.To, &item.Count, &item.Tick, &item.Reason, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		item.Kind = domain.EventKind(kind)
		item.CreatedAt = unixToTime(createdAt)
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decisions: %w", err)
	}
	return result, nil
}

func unixToTime(v int64) time.Time {
	return time.Unix(v, 0).UTC()
}
