package push

import "testing"

func TestHub_DisabledIsNoOp(t *testing.T) {
	h := NewHub(false)
	c := &Client{id: "c1", send: make(chan map[string]any, 1)}
	h.join("job-1", c)

	h.EmitProgress("job-1", map[string]any{"percentage": 50})

	select {
	case <-c.send:
		t.Fatal("expected no frame when hub disabled")
	default:
	}
}

func TestHub_JoinLeaveBroadcast(t *testing.T) {
	h := NewHub(true)
	c := &Client{id: "c1", send: make(chan map[string]any, 1)}
	h.join("job-1", c)

	h.EmitProgress("job-1", map[string]any{"percentage": 50})

	frame := <-c.send
	if frame["type"] != "job_progress" || frame["job_id"] != "job-1" {
		t.Errorf("unexpected frame: %+v", frame)
	}

	h.leave("job-1", c)
	h.EmitProgress("job-1", map[string]any{"percentage": 60})

	select {
	case <-c.send:
		t.Fatal("expected no frame after leaving room")
	default:
	}
}

func TestHub_LeaveAll(t *testing.T) {
	h := NewHub(true)
	c := &Client{id: "c1", send: make(chan map[string]any, 1)}
	h.join("job-1", c)
	h.join("job-2", c)

	h.leaveAll(c)

	if len(h.rooms) != 0 {
		t.Errorf("expected all rooms pruned, got %+v", h.rooms)
	}
}
