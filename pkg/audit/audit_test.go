package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestEmitAssignsStrictlyIncreasingSequence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	e, err := NewEmitter(path, nil)
	if err != nil {
		t.Fatalf("NewEmitter: %v", err)
	}
	defer e.Close()

	for i := 0; i < 5; i++ {
		entry, err := e.Emit(EventStepStart, map[string]any{"i": i}, false)
		if err != nil {
			t.Fatalf("Emit: %v", err)
		}
		if entry.Sequence != uint64(i+1) {
			t.Fatalf("expected sequence %d, got %d", i+1, entry.Sequence)
		}
	}
}

func TestAuditLogIsNewlineDelimitedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	e, err := NewEmitter(path, nil)
	if err != nil {
		t.Fatalf("NewEmitter: %v", err)
	}
	if _, err := e.Emit(EventStepStart, nil, false); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if _, err := e.Emit(EventStepEnd, nil, false); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	e.Close()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var seqs []uint64
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("unmarshal line: %v", err)
		}
		seqs = append(seqs, entry.Sequence)
	}
	if len(seqs) != 2 || seqs[0] != 1 || seqs[1] != 2 {
		t.Fatalf("expected sequences [1 2], got %v", seqs)
	}
}

func TestNewEmitterSeedsSequenceFromExistingLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")

	first, err := NewEmitter(path, nil)
	if err != nil {
		t.Fatalf("NewEmitter: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := first.Emit(EventStepStart, nil, false); err != nil {
			t.Fatalf("Emit: %v", err)
		}
	}
	first.Close()

	second, err := NewEmitter(path, nil)
	if err != nil {
		t.Fatalf("NewEmitter (reopen): %v", err)
	}
	defer second.Close()

	entry, err := second.Emit(EventStepEnd, nil, false)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if entry.Sequence != 4 {
		t.Fatalf("expected sequence 4 continuing the existing log, got %d", entry.Sequence)
	}
}

func TestSinkDropsOldestWhenFull(t *testing.T) {
	s := NewSink(2)
	s.Send(Entry{Sequence: 1})
	s.Send(Entry{Sequence: 2})
	s.Send(Entry{Sequence: 3})

	if s.Dropped() != 1 {
		t.Fatalf("expected 1 dropped entry, got %d", s.Dropped())
	}

	first := <-s.Chan()
	second := <-s.Chan()
	if first.Sequence != 2 || second.Sequence != 3 {
		t.Fatalf("expected [2 3] to survive, got [%d %d]", first.Sequence, second.Sequence)
	}
}

func TestSinkSendNeverBlocks(t *testing.T) {
	s := NewSink(1)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			s.Send(Entry{Sequence: uint64(i)})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-make(chan struct{}):
		t.Fatalf("Send blocked")
	}
}
