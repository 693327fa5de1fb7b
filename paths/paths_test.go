package paths

import (
	"testing"

	"github.com/gimsops/gims-mcp/gims"
)

func ptr[T any](v T) *T { return &v }

func TestAttach(t *testing.T) {
	folders := []gims.Folder{
		{ID: 1, Name: "Polling"},
		{ID: 2, Name: "SNMP", ParentFolderID: ptr(int64(1))},
		{ID: 3, Name: "v3", ParentFolderID: ptr(int64(2))},
		{ID: 4, Name: "Orphaned", ParentFolderID: ptr(int64(99))},
	}

	entries := Attach(folders, true)
	if len(entries) != 5 {
		t.Fatalf("len(entries) = %d, want 5", len(entries))
	}
	root := entries[0]
	if !root.IsRoot || root.ID != nil || root.Path != "/" || root.Note == "" {
		t.Errorf("root entry = %+v", root)
	}

	wantPaths := map[int64]string{
		1: "/Polling",
		2: "/Polling/SNMP",
		3: "/Polling/SNMP/v3",
		4: "/Orphaned",
	}
	for _, e := range entries[1:] {
		if want := wantPaths[*e.ID]; e.Path != want {
			t.Errorf("path of folder %d = %q, want %q", *e.ID, e.Path, want)
		}
	}

	if got := Attach(folders, false); len(got) != 4 || got[0].IsRoot {
		t.Errorf("Attach without root = %+v", got)
	}
}

func TestAttachTerminatesOnCycle(t *testing.T) {
	folders := []gims.Folder{
		{ID: 1, Name: "a", ParentFolderID: ptr(int64(2))},
		{ID: 2, Name: "b", ParentFolderID: ptr(int64(1))},
	}

	// Must return despite the parent cycle.
	entries := Attach(folders, false)
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
}

func TestItemPath(t *testing.T) {
	entries := Attach([]gims.Folder{
		{ID: 1, Name: "Jobs"},
	}, true)

	tests := []struct {
		name     string
		folderID *int64
		want     string
	}{
		{"in folder", ptr(int64(1)), "/Jobs/task"},
		{"no folder", nil, "/task"},
		{"unknown folder", ptr(int64(42)), "/task"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ItemPath("task", tt.folderID, entries); got != tt.want {
				t.Errorf("ItemPath = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	entries := Attach([]gims.Folder{
		{ID: 1, Name: "Jobs"},
		{ID: 2, Name: "Daily", ParentFolderID: ptr(int64(1))},
	}, false)

	if got := Lookup(ptr(int64(2)), entries); got != "/Jobs/Daily" {
		t.Errorf("Lookup(2) = %q, want /Jobs/Daily", got)
	}
	if got := Lookup(nil, entries); got != "/" {
		t.Errorf("Lookup(nil) = %q, want /", got)
	}
	if got := Lookup(ptr(int64(42)), entries); got != "/" {
		t.Errorf("Lookup(42) = %q, want /", got)
	}
}
