package watchset

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReportsWriteToNetlistJSON(t *testing.T) {
	dir := t.TempDir()

	watcher, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		t.Fatalf("Add: %v", err)
	}

	path := filepath.Join(dir, "top.netlist.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	select {
	case ev := <-watcher.Events():
		if ev.Path != path {
			t.Fatalf("expected event for %s, got %s", path, ev.Path)
		}
	case err := <-watcher.Errors():
		t.Fatalf("unexpected watcher error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for a watch event on %s", path)
	}
}

func TestIsNetlistJSONFiltersNonMatchingNames(t *testing.T) {
	cases := map[string]bool{
		"top.netlist.json":  true,
		"top.sv":            false,
		"top.netlist.json~": false,
		".top.netlist.json": true,
	}

	for name, want := range cases {
		if got := isNetlistJSON(name); got != want {
			t.Errorf("isNetlistJSON(%q) = %v, want %v", name, got, want)
		}
	}
}
