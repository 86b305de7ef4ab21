package storage_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/vovakirdan/gridbot/internal/level"
	"github.com/vovakirdan/gridbot/internal/script"
	"github.com/vovakirdan/gridbot/internal/sim"
	"github.com/vovakirdan/gridbot/internal/storage"
)

const corridorYAML = `
id: corridor
name: Corridor
size: {w: 6, h: 1}
starts:
  - {x: 0, y: 0, facing: right, energy: 5}
goals:
  - {x: 5, y: 0}
`

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func runScript(t *testing.T, src string) *script.Result {
	t.Helper()
	lvl, err := level.Parse([]byte(corridorYAML))
	if err != nil {
		t.Fatalf("parse level: %v", err)
	}
	res, err := script.NewRunner().Run(context.Background(), lvl, 0, src)
	if err != nil {
		t.Fatalf("Run(%q): %v", src, err)
	}
	return res
}

func save(t *testing.T, store *storage.Store, levelID, src string, res *script.Result) storage.Run {
	t.Helper()
	run, err := store.SaveRun(levelID, 0, src, res)
	if err != nil {
		t.Fatalf("SaveRun() failed: %v", err)
	}
	return run
}

func TestStoreOpenCreatesFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "runs.db")
	store, err := storage.Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestSaveAndGetRun(t *testing.T) {
	store := openStore(t)
	src := "move_forward(2);\nwait(1);"
	res := runScript(t, src)

	saved := save(t, store, "corridor", src, res)
	if saved.ID == "" {
		t.Fatal("saved run has no ID")
	}

	run, got, err := store.GetRun(saved.ID)
	if err != nil {
		t.Fatalf("GetRun() failed: %v", err)
	}
	if run.Script != src || run.LevelID != "corridor" {
		t.Errorf("run = %+v", run)
	}
	if run.Stats != res.Stats {
		t.Errorf("stats = %+v, want %+v", run.Stats, res.Stats)
	}
	if diff := cmp.Diff(res, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestGetRunNotFound(t *testing.T) {
	store := openStore(t)
	if _, _, err := store.GetRun("missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetRun(missing) = %v, want ErrNotFound", err)
	}
}

func TestFailedRunKeepsReason(t *testing.T) {
	store := openStore(t)
	src := "move_forward(4);\nmove_backward(1);"
	res := runScript(t, src)
	if res.Outcome.Kind != sim.Failure {
		t.Fatalf("expected the rover to run out of energy, got %s", res.Outcome)
	}

	saved := save(t, store, "corridor", src, res)
	run, _, err := store.GetRun(saved.ID)
	if err != nil {
		t.Fatalf("GetRun() failed: %v", err)
	}
	if run.Outcome != res.Outcome {
		t.Errorf("outcome = %s, want %s", run.Outcome, res.Outcome)
	}
}

func TestRecentRuns(t *testing.T) {
	store := openStore(t)
	res := runScript(t, "wait(1);")
	first := save(t, store, "corridor", "wait(1);", res)
	second := save(t, store, "other", "wait(1);", res)
	third := save(t, store, "corridor", "wait(1);", res)

	all, err := store.RecentRuns("", 10)
	if err != nil {
		t.Fatalf("RecentRuns() failed: %v", err)
	}
	var ids []string
	for _, r := range all {
		ids = append(ids, r.ID)
	}
	if diff := cmp.Diff([]string{third.ID, second.ID, first.ID}, ids); diff != "" {
		t.Errorf("recent order (-want +got):\n%s", diff)
	}

	corridor, err := store.RecentRuns("corridor", 1)
	if err != nil {
		t.Fatalf("RecentRuns() failed: %v", err)
	}
	if len(corridor) != 1 || corridor[0].ID != third.ID {
		t.Errorf("RecentRuns(corridor, 1) = %+v", corridor)
	}
}

func TestBestRuns(t *testing.T) {
	store := openStore(t)

	long := "move_forward(1);\nmove_forward(1);\nmove_forward(1);\nmove_forward(1);\nmove_forward(1);"
	short := "move_forward(5);"
	slow := "wait(1);\nmove_forward(5);"

	longRun := save(t, store, "corridor", long, runScript(t, long))
	save(t, store, "corridor", "wait(1);", runScript(t, "wait(1);"))
	slowRun := save(t, store, "corridor", slow, runScript(t, slow))
	shortRun := save(t, store, "corridor", short, runScript(t, short))
	save(t, store, "other", short, runScript(t, short))

	best, err := store.BestRuns("corridor", 10)
	if err != nil {
		t.Fatalf("BestRuns() failed: %v", err)
	}
	var ids []string
	for _, r := range best {
		ids = append(ids, r.ID)
	}
	if diff := cmp.Diff([]string{shortRun.ID, slowRun.ID, longRun.ID}, ids); diff != "" {
		t.Errorf("best order (-want +got):\n%s", diff)
	}
}

func TestAllLevelStats(t *testing.T) {
	store := openStore(t)
	win := runScript(t, "move_forward(5);")
	loss := runScript(t, "wait(4);")

	save(t, store, "corridor", "move_forward(5);", win)
	save(t, store, "corridor", "wait(4);", loss)
	save(t, store, "other", "wait(4);", loss)

	stats, err := store.AllLevelStats()
	if err != nil {
		t.Fatalf("AllLevelStats() failed: %v", err)
	}
	c := stats["corridor"]
	if c == nil || c.Runs != 2 || c.Wins != 1 || c.BestCodeLen != 16 {
		t.Errorf("corridor stats = %+v", c)
	}
	o := stats["other"]
	if o == nil || o.Runs != 1 || o.Wins != 0 || o.BestCodeLen != 0 {
		t.Errorf("other stats = %+v", o)
	}
	if c != nil && c.LastRun.IsZero() {
		t.Error("last run time was not parsed")
	}
}
