package store

import (
	"errors"
	"testing"
	"time"
)

func TestTraceWriteRead(t *testing.T) {
	dir := t.TempDir()
	writer, err := NewTraceWriter(dir, "run-1")
	if err != nil {
		t.Fatalf("NewTraceWriter: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	entries := []TraceEntry{
		{Evaluation: 1, Score: 100.5, Timestamp: now},
		{Evaluation: 2, Score: 140.25, Timestamp: now.Add(time.Second)},
		{Evaluation: 3, Score: 140.25, Timestamp: now.Add(2 * time.Second), Params: []float64{1, 0, 0.5}},
	}
	for _, entry := range entries {
		if err := writer.Write(entry); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := ReadTrace(dir, "run-1")
	if err != nil {
		t.Fatalf("ReadTrace: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("read %d entries, want %d", len(got), len(entries))
	}
	for i, want := range entries {
		if got[i].Evaluation != want.Evaluation || got[i].Score != want.Score {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want)
		}
		if !got[i].Timestamp.Equal(want.Timestamp) {
			t.Errorf("entry %d timestamp = %v, want %v", i, got[i].Timestamp, want.Timestamp)
		}
	}
	if len(got[2].Params) != 3 {
		t.Errorf("entry 2 params = %v, want 3 values", got[2].Params)
	}
	if got[0].Params != nil {
		t.Errorf("entry 0 params = %v, want none", got[0].Params)
	}
}

func TestTraceFlushMakesEntriesVisible(t *testing.T) {
	dir := t.TempDir()
	writer, err := NewTraceWriter(dir, "run-1")
	if err != nil {
		t.Fatalf("NewTraceWriter: %v", err)
	}
	defer writer.Close()

	if err := writer.Write(TraceEntry{Evaluation: 1, Score: 5, Timestamp: time.Now()}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := writer.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	got, err := ReadTrace(dir, "run-1")
	if err != nil {
		t.Fatalf("ReadTrace: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("read %d entries after flush, want 1", len(got))
	}
}

func TestReadTraceNotFound(t *testing.T) {
	var nfe *NotFoundError
	if _, err := ReadTrace(t.TempDir(), "missing"); !errors.As(err, &nfe) {
		t.Fatalf("ReadTrace: error = %v, want NotFoundError", err)
	}
}
