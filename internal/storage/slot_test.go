package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSlotReadAbsent(t *testing.T) {
	slot, err := NewFileSlot(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSlot: %v", err)
	}

	data, ok, err := slot.Read("transactions")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if ok {
		t.Error("expected ok=false for a slot that was never written")
	}
	if data != nil {
		t.Errorf("expected nil data, got %q", data)
	}
}

func TestFileSlotRoundTrip(t *testing.T) {
	slot, err := NewFileSlot(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSlot: %v", err)
	}

	want := []byte(`[{"id":"abc"}]`)
	if err := slot.Write("transactions", want); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, ok, err := slot.Read("transactions")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true after write")
	}
	if string(got) != string(want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFileSlotOverwrite(t *testing.T) {
	dir := t.TempDir()
	slot, err := NewFileSlot(dir)
	if err != nil {
		t.Fatalf("NewFileSlot: %v", err)
	}

	if err := slot.Write("settings", []byte(`{"apiKey":"old"}`)); err != nil {
		t.Fatalf("first Write: %v", err)
	}
	if err := slot.Write("settings", []byte(`{"apiKey":"new"}`)); err != nil {
		t.Fatalf("second Write: %v", err)
	}

	got, _, err := slot.Read("settings")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != `{"apiKey":"new"}` {
		t.Errorf("got %q, want the second value", got)
	}

	// The rename must not leave the temp file behind.
	if _, err := os.Stat(filepath.Join(dir, "settings.json.tmp")); !os.IsNotExist(err) {
		t.Error("temp file left behind after write")
	}
}

func TestNewFileSlotCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	if _, err := NewFileSlot(dir); err != nil {
		t.Fatalf("NewFileSlot: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected a directory")
	}
}
