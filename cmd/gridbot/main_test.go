package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// execute runs the root command with args in an isolated home and working
// directory and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		flagSave, flagJSON, flagWatch, flagBest = false, false, false, false
		flagDBPath, flagState = "", 0
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func writeScript(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.js")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLevelsCommand(t *testing.T) {
	out, err := execute(t, "levels")
	if err != nil {
		t.Fatalf("levels: %v", err)
	}
	for _, id := range []string{"first-steps", "crates", "hazards"} {
		if !strings.Contains(out, id) {
			t.Errorf("levels output is missing %s:\n%s", id, out)
		}
	}
}

func TestRunCommandJSON(t *testing.T) {
	path := writeScript(t, "move_forward(5);")
	out, err := execute(t, "run", "first-steps", path, "--json")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var res struct {
		Outcome struct {
			Kind string `json:"kind"`
		} `json:"outcome"`
		Stats struct {
			Ticks int `json:"ticks_taken"`
		} `json:"stats"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if res.Outcome.Kind != "success" || res.Stats.Ticks != 5 {
		t.Errorf("result = %+v", res)
	}
}

func TestRunSaveThenList(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	db := filepath.Join(t.TempDir(), "runs.db")
	path := writeScript(t, "move_forward(5);")

	out, err := execute(t, "--db", db, "run", "first-steps", path, "--save")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "saved as") {
		t.Errorf("run output does not mention the saved run:\n%s", out)
	}

	out, err = execute(t, "--db", db, "runs", "first-steps", "--best")
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if !strings.Contains(out, "first-steps") || !strings.Contains(out, "success") {
		t.Errorf("runs output:\n%s", out)
	}
}

func TestRunCommandScriptError(t *testing.T) {
	path := writeScript(t, "move_up(1);")
	_, err := execute(t, "run", "first-steps", path)
	if err == nil || !strings.Contains(err.Error(), "move_up") {
		t.Errorf("run with a locked function = %v", err)
	}
}
