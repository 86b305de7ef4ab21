package level_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/vovakirdan/gridbot/internal/actor"
	"github.com/vovakirdan/gridbot/internal/core"
	"github.com/vovakirdan/gridbot/internal/level"
	"github.com/vovakirdan/gridbot/internal/registry"
	"github.com/vovakirdan/gridbot/internal/sim"
	"github.com/vovakirdan/gridbot/internal/state"
)

const corridorYAML = `
id: corridor
name: Corridor
size: {w: 5, h: 3}
starts:
  - {x: 0, y: 1, facing: right, energy: 4}
  - {x: 0, y: 0, facing: down, energy: 9}
goals:
  - {x: 4, y: 1}
enemies:
  - {x: 4, y: 2}
hazards:
  - {x: 2, y: 2, period: 2, offset: 1}
disabled_functions: [say]
`

func TestParseBuildsLevel(t *testing.T) {
	lvl, err := level.Parse([]byte(corridorYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if lvl.ID() != "corridor" || lvl.Name() != "Corridor" {
		t.Errorf("unexpected id/name %q/%q", lvl.ID(), lvl.Name())
	}
	if lvl.Goal() != level.GoalReach {
		t.Errorf("expected default goal kind, got %q", lvl.Goal())
	}

	states := lvl.InitialStates()
	if len(states) != 2 {
		t.Fatalf("expected 2 start variants, got %d", len(states))
	}
	if states[1].Player.Pos != core.P(0, 0) || states[1].Player.Facing != core.OrientationDown {
		t.Errorf("variant 1 player = %+v", states[1].Player)
	}
	if states[0].Player.Energy != 4 || states[0].Player.HeldCrate != state.NoCrate {
		t.Errorf("variant 0 player = %+v", states[0].Player)
	}
	if len(states[0].Enemies) != 1 || states[0].Enemies[0].Facing != core.OrientationRight {
		t.Errorf("enemy should default to facing right, got %+v", states[0].Enemies)
	}
	// offset 1, period 2: (0+1)%2 != 0
	if states[0].Hazards[0].Active {
		t.Error("hazard should start inactive")
	}

	if got := len(lvl.Actors()); got != 2 {
		t.Errorf("expected 2 actors, got %d", got)
	}
}

func TestInitialStatesAreCopies(t *testing.T) {
	lvl, err := level.Parse([]byte(corridorYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	a := lvl.InitialStates()
	a[0].Goals[0].Pos = core.P(3, 3)
	b := lvl.InitialStates()
	if b[0].Goals[0].Pos != core.P(4, 1) {
		t.Error("mutating a returned state leaked into the level")
	}
}

func TestActorsAreFreshPerCall(t *testing.T) {
	lvl, err := level.Parse([]byte(corridorYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	a := lvl.Actors()
	b := lvl.Actors()
	if a[1] == b[1] {
		t.Error("hazard actors must not be shared between loads")
	}
	if _, ok := a[0].(*actor.Enemy); !ok {
		t.Errorf("expected enemies before hazards, got %T first", a[0])
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		code string
	}{
		{
			name: "unknown_key",
			yaml: "id: x\nname: X\nsize: {w: 3, h: 3}\nstarts: [{x: 0, y: 0, energy: 1}]\ngoals: [{x: 1, y: 1}]\nlava: true\n",
			code: level.CodeSchema,
		},
		{
			name: "missing_starts",
			yaml: "id: x\nname: X\nsize: {w: 3, h: 3}\ngoals: [{x: 1, y: 1}]\n",
			code: level.CodeSchema,
		},
		{
			name: "bad_facing",
			yaml: "id: x\nname: X\nsize: {w: 3, h: 3}\nstarts: [{x: 0, y: 0, energy: 1, facing: sideways}]\ngoals: [{x: 1, y: 1}]\n",
			code: level.CodeSchema,
		},
		{
			name: "out_of_bounds",
			yaml: "id: x\nname: X\nsize: {w: 3, h: 3}\nstarts: [{x: 0, y: 0, energy: 1}]\ngoals: [{x: 7, y: 1}]\n",
			code: level.CodeOutOfBounds,
		},
		{
			name: "no_goal",
			yaml: "id: x\nname: X\nsize: {w: 3, h: 3}\nstarts: [{x: 0, y: 0, energy: 1}]\n",
			code: level.CodeNoGoal,
		},
		{
			name: "overlap",
			yaml: "id: x\nname: X\ngoal: none\nsize: {w: 3, h: 3}\nstarts: [{x: 0, y: 0, energy: 1}]\nobstacles: [{x: 1, y: 1}]\ncrates: [{x: 1, y: 1}]\n",
			code: level.CodeOverlap,
		},
		{
			name: "start_on_obstacle",
			yaml: "id: x\nname: X\ngoal: none\nsize: {w: 3, h: 3}\nstarts: [{x: 1, y: 1, energy: 1}]\nobstacles: [{x: 1, y: 1}]\n",
			code: level.CodeOverlap,
		},
		{
			name: "bad_gate_ref",
			yaml: "id: x\nname: X\ngoal: none\nsize: {w: 3, h: 3}\nstarts: [{x: 0, y: 0, energy: 1}]\nbuttons: [{x: 1, y: 1, gate: 2}]\n",
			code: level.CodeBadGateRef,
		},
		{
			name: "unknown_disabled_function",
			yaml: "id: x\nname: X\ngoal: none\nsize: {w: 3, h: 3}\nstarts: [{x: 0, y: 0, energy: 1}]\ndisabled_functions: [teleport]\n",
			code: level.CodeUnknownFunction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := level.Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			var verr level.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %T: %v", err, err)
			}
			if verr.Code != tt.code {
				t.Errorf("expected code %s, got %s (%s)", tt.code, verr.Code, verr.Message)
			}
		})
	}
}

func TestCheckWin(t *testing.T) {
	lvl, err := level.Parse([]byte(corridorYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	base := lvl.InitialStates()[0]

	tests := []struct {
		name   string
		mutate func(s *state.State)
		want   sim.Outcome
	}{
		{"running", func(s *state.State) {}, sim.Continuing()},
		{"goal", func(s *state.State) { s.Player.Pos = core.P(4, 1) }, sim.Won()},
		{"caught", func(s *state.State) { s.Player.Pos = core.P(4, 2) }, sim.Lost(level.ReasonCaught)},
		{"hazard", func(s *state.State) {
			s.Player.Pos = core.P(2, 2)
			s.Hazards[0].Active = true
		}, sim.Lost(level.ReasonHazard)},
		{"inactive_hazard", func(s *state.State) { s.Player.Pos = core.P(2, 2) }, sim.Continuing()},
		{"out_of_energy", func(s *state.State) { s.Player.Energy = 0 }, sim.Lost(level.ReasonOutOfPower)},
		{"goal_with_no_energy", func(s *state.State) {
			s.Player.Pos = core.P(4, 1)
			s.Player.Energy = 0
		}, sim.Won()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base.Clone()
			tt.mutate(&s)
			if got := lvl.CheckWin(s); got != tt.want {
				t.Errorf("CheckWin = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNoObjectiveLevel(t *testing.T) {
	lvl, err := registry.Create("hello")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	s := lvl.InitialStates()[0]
	if got := lvl.CheckWin(s); got.Kind != sim.NoObjective {
		t.Errorf("expected NoObjective, got %v", got)
	}
	s.Player.Energy = 0
	if got := lvl.CheckWin(s); got.Kind != sim.NoObjective {
		t.Errorf("energy must not matter without an objective, got %v", got)
	}
}

func TestIsAvailable(t *testing.T) {
	lvl, err := level.Parse([]byte(corridorYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if level.IsAvailable(lvl, "say") {
		t.Error("say should be disabled")
	}
	if !level.IsAvailable(lvl, "move_forward") {
		t.Error("move_forward should be available")
	}
}

func TestBuiltinLevelsRegistered(t *testing.T) {
	want := []string{"crates", "enemy", "energy", "first-steps", "hazards", "hello", "password", "turns"}
	for _, id := range want {
		if !registry.Exists(id) {
			t.Errorf("built-in level %q not registered", id)
		}
	}

	list := registry.List()
	for i := 1; i < len(list); i++ {
		if list[i-1].ID >= list[i].ID {
			t.Errorf("List not sorted: %s before %s", list[i-1].ID, list[i].ID)
		}
	}
}

func TestLoaderSkipsInvalidFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "corridor.yaml"), corridorYAML)
	writeFile(t, filepath.Join(sub, "broken.yml"), "id: [\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "not a level")

	l := level.NewLoader(nil, dir, filepath.Join(dir, "missing"))
	levels, err := l.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(levels) != 1 || levels[0].ID() != "corridor" {
		t.Fatalf("expected only corridor, got %d levels", len(levels))
	}
	if levels[0].FilePath != filepath.Join(dir, "corridor.yaml") {
		t.Errorf("unexpected FilePath %q", levels[0].FilePath)
	}
}

func TestSchemaJSON(t *testing.T) {
	data, err := level.SchemaJSON()
	if err != nil {
		t.Fatalf("SchemaJSON failed: %v", err)
	}
	if len(data) == 0 || data[0] != '{' {
		t.Errorf("unexpected schema output %q", data)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
