package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/vovakirdan/gridbot/internal/script"
	"github.com/vovakirdan/gridbot/internal/sim"
	"github.com/vovakirdan/gridbot/internal/state"
)

// ErrNotFound is returned when a run ID is unknown.
var ErrNotFound = errors.New("storage: run not found")

// Run is a stored run without its state history.
type Run struct {
	ID         string       `json:"id"`
	LevelID    string       `json:"level"`
	StateIndex int          `json:"state_index"`
	Outcome    sim.Outcome  `json:"outcome"`
	Stats      script.Stats `json:"stats"`
	Script     string       `json:"script"`
	CreatedAt  time.Time    `json:"created_at"`
}

// history is the compressed part of a run record.
type history struct {
	States    []state.State `json:"states"`
	Positions []*script.Pos `json:"positions"`
}

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil)
)

func encodeHistory(res *script.Result) ([]byte, error) {
	raw, err := json.Marshal(history{States: res.States, Positions: res.Positions})
	if err != nil {
		return nil, err
	}
	return encoder.EncodeAll(raw, nil), nil
}

func decodeHistory(blob []byte) (history, error) {
	var h history
	raw, err := decoder.DecodeAll(blob, nil)
	if err != nil {
		return h, err
	}
	err = json.Unmarshal(raw, &h)
	return h, err
}

// SaveRun records a completed run and returns the stored record.
func (s *Store) SaveRun(levelID string, stateIdx int, src string, res *script.Result) (Run, error) {
	blob, err := encodeHistory(res)
	if err != nil {
		return Run{}, fmt.Errorf("storage: cannot encode history: %w", err)
	}

	run := Run{
		ID:         uuid.NewString(),
		LevelID:    levelID,
		StateIndex: stateIdx,
		Outcome:    res.Outcome,
		Stats:      res.Stats,
		Script:     src,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}
	_, err = s.db.Exec(
		`INSERT INTO runs
		 (id, level_id, state_index, outcome, reason, code_len, energy_used, ticks, script, history, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.LevelID,
		run.StateIndex,
		run.Outcome.Kind.String(),
		run.Outcome.Reason,
		run.Stats.CodeLen,
		run.Stats.EnergyUsed,
		run.Stats.TicksTaken,
		run.Script,
		blob,
		run.CreatedAt.Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return Run{}, fmt.Errorf("storage: cannot save run: %w", err)
	}
	return run, nil
}

const runColumns = `id, level_id, state_index, outcome, reason, code_len, energy_used, ticks, script, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner, extra ...any) (Run, error) {
	var r Run
	var kind string
	var createdAt any
	dest := append([]any{
		&r.ID,
		&r.LevelID,
		&r.StateIndex,
		&kind,
		&r.Outcome.Reason,
		&r.Stats.CodeLen,
		&r.Stats.EnergyUsed,
		&r.Stats.TicksTaken,
		&r.Script,
		&createdAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return r, err
	}
	if k, ok := sim.ParseOutcomeKind(kind); ok {
		r.Outcome.Kind = k
	}
	r.CreatedAt = parseTime(createdAt)
	return r, nil
}

// GetRun retrieves a run and its full result by ID.
func (s *Store) GetRun(id string) (Run, *script.Result, error) {
	var blob []byte
	run, err := scanRun(s.db.QueryRow(
		`SELECT `+runColumns+`, history FROM runs WHERE id = ?`, id,
	), &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, nil, ErrNotFound
	}
	if err != nil {
		return Run{}, nil, fmt.Errorf("storage: cannot query run: %w", err)
	}

	h, err := decodeHistory(blob)
	if err != nil {
		return Run{}, nil, fmt.Errorf("storage: cannot decode history of %s: %w", id, err)
	}
	return run, &script.Result{
		States:    h.States,
		Positions: h.Positions,
		Outcome:   run.Outcome,
		Stats:     run.Stats,
	}, nil
}

// RecentRuns retrieves the most recent runs, newest first. An empty
// levelID matches every level.
func (s *Store) RecentRuns(levelID string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.queryRuns(
		`SELECT `+runColumns+`
		 FROM runs
		 WHERE (? = '' OR level_id = ?)
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`,
		levelID, levelID, limit,
	)
}

// BestRuns retrieves the successful runs of a level, shortest code first
// and then fewest ticks.
func (s *Store) BestRuns(levelID string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.queryRuns(
		`SELECT `+runColumns+`
		 FROM runs
		 WHERE level_id = ? AND outcome = ?
		 ORDER BY code_len ASC, ticks ASC, created_at ASC, rowid ASC
		 LIMIT ?`,
		levelID, sim.Success.String(), limit,
	)
}

func (s *Store) queryRuns(query string, args ...any) ([]Run, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return runs, nil
}

// LevelStats contains aggregated statistics for a level.
type LevelStats struct {
	LevelID     string
	Runs        int
	Wins        int
	BestCodeLen int // 0 when the level was never won
	LastRun     time.Time
}

// AllLevelStats retrieves statistics for every level that has runs.
func (s *Store) AllLevelStats() (map[string]*LevelStats, error) {
	rows, err := s.db.Query(
		`SELECT level_id, COUNT(*),
		        SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END),
		        COALESCE(MIN(CASE WHEN outcome = ? THEN code_len END), 0),
		        MAX(created_at)
		 FROM runs
		 GROUP BY level_id`,
		sim.Success.String(), sim.Success.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get level stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]*LevelStats)
	for rows.Next() {
		var ls LevelStats
		var lastRun any
		if err := rows.Scan(&ls.LevelID, &ls.Runs, &ls.Wins, &ls.BestCodeLen, &lastRun); err != nil {
			return nil, fmt.Errorf("storage: cannot scan stats row: %w", err)
		}
		ls.LastRun = parseTime(lastRun)
		stats[ls.LevelID] = &ls
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return stats, nil
}
