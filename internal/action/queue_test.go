package action_test

import (
	"testing"

	"github.com/vovakirdan/gridbot/internal/action"
	"github.com/vovakirdan/gridbot/internal/core"
)

func TestQueueFIFO(t *testing.T) {
	q := action.NewQueue()

	if _, ok := q.TryReceive(); ok {
		t.Fatal("expected empty queue")
	}

	q.Send(action.Move(action.Forward))
	q.Send(action.Turn(core.TurnLeft))
	q.Send(action.Say("hi"))

	if q.Len() != 3 {
		t.Fatalf("expected 3 pending, got %d", q.Len())
	}

	want := []action.Action{
		action.Move(action.Forward),
		action.Turn(core.TurnLeft),
		action.Say("hi"),
	}
	for i, w := range want {
		got, ok := q.TryReceive()
		if !ok {
			t.Fatalf("receive %d: queue empty", i)
		}
		if got != w {
			t.Errorf("receive %d: got %v, want %v", i, got, w)
		}
	}

	if _, ok := q.TryReceive(); ok {
		t.Error("expected queue to be empty after draining all actions")
	}
}

func TestQueueDrain(t *testing.T) {
	q := action.NewQueue()
	q.Send(action.Wait())
	q.Send(action.Wait())

	if n := q.Drain(); n != 2 {
		t.Errorf("expected 2 drained, got %d", n)
	}
	if q.Len() != 0 {
		t.Errorf("expected empty queue, got %d", q.Len())
	}

	// Queue stays usable after a drain
	q.Send(action.ReadData())
	if a, ok := q.TryReceive(); !ok || a.Kind != action.KindReadData {
		t.Errorf("expected read_data after drain, got %v (%v)", a, ok)
	}
}

func TestActionString(t *testing.T) {
	tests := []struct {
		a    action.Action
		want string
	}{
		{action.Move(action.Forward), "move(forward)"},
		{action.Move(action.Backward), "move(backward)"},
		{action.Turn(core.TurnRight), "turn(right)"},
		{action.Say("abc"), `say("abc")`},
		{action.Wait(), "wait"},
		{action.Drop(), "drop"},
	}
	for _, tt := range tests {
		if got := tt.a.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
