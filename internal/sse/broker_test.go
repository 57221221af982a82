package sse

import (
	"strings"
	"testing"
	"time"
)

func recv(t *testing.T, ch chan []byte) string {
	t.Helper()
	select {
	case msg, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return string(msg)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
		return ""
	}
}

func TestBroker_PublishNoteEvent(t *testing.T) {
	b := NewBroker(time.Hour) // graph throttle effectively off after first event
	defer b.Close()

	ch := b.Subscribe()
	b.PublishNoteEvent("indexed", "data/note1.org")

	msg := recv(t, ch)
	if !strings.Contains(msg, "event: note.indexed") {
		t.Errorf("msg = %q", msg)
	}
	if !strings.Contains(msg, `"path":"data/note1.org"`) {
		t.Errorf("msg = %q", msg)
	}

	// First note event also triggers graph.updated.
	msg = recv(t, ch)
	if !strings.Contains(msg, "event: graph.updated") {
		t.Errorf("msg = %q", msg)
	}
}

func TestBroker_GraphThrottled(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()

	ch := b.Subscribe()
	b.PublishNoteEvent("indexed", "a.org")
	recv(t, ch) // note.indexed
	recv(t, ch) // graph.updated

	b.PublishNoteEvent("removed", "a.org")
	msg := recv(t, ch)
	if !strings.Contains(msg, "event: note.removed") {
		t.Errorf("msg = %q", msg)
	}

	// No second graph.updated inside the throttle window.
	select {
	case extra := <-ch:
		t.Errorf("unexpected extra event: %q", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBroker_PublishConverted(t *testing.T) {
	b := NewBroker(0)
	defer b.Close()

	ch := b.Subscribe()
	b.PublishConverted(7)

	msg := recv(t, ch)
	if !strings.Contains(msg, "event: vault.converted") || !strings.Contains(msg, `"notes":7`) {
		t.Errorf("msg = %q", msg)
	}
}

func TestBroker_UnsubscribeClosesChannel(t *testing.T) {
	b := NewBroker(0)
	defer b.Close()

	ch := b.Subscribe()
	b.Unsubscribe(ch)

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel, got event")
		}
	case <-time.After(2 * time.Second):
		t.Error("channel not closed after unsubscribe")
	}
}

func TestBroker_ClientCount(t *testing.T) {
	b := NewBroker(0)
	defer b.Close()

	if n := b.ClientCount(); n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
	ch1 := b.Subscribe()
	ch2 := b.Subscribe()
	if n := b.ClientCount(); n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
	b.Unsubscribe(ch1)
	_ = ch2
	// ClientCount goes through the loop, so the unsubscribe above has been
	// processed once it returns.
	if n := b.ClientCount(); n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestBroker_PublishAfterCloseIsNoop(t *testing.T) {
	b := NewBroker(0)
	b.Close()

	// Must not panic or block.
	b.PublishNoteEvent("indexed", "x.org")
	b.PublishConverted(1)

	ch := b.Subscribe()
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("subscribe after close should yield a closed channel")
		}
	case <-time.After(time.Second):
		t.Error("channel not closed")
	}
}
