// Package gitsync moves GIMS components between a live instance and their
// Git storage layout. Exports resolve folder paths and render document
// sets; imports validate Python before touching the instance and reconcile
// against components that already exist under the same name.
package gitsync

import (
	"context"
	"fmt"
	"time"

	"github.com/gimsops/gims-mcp/gims"
)

// Import reconciliation actions.
const (
	ActionCreated  = "created"
	ActionUpdated  = "updated"
	ActionConflict = "conflict"
)

// Syncer performs export and import operations against one GIMS instance.
type Syncer struct {
	client *gims.Client

	// now is stubbed in tests for deterministic export stamps.
	now func() time.Time
}

// NewSyncer returns a Syncer bound to client.
func NewSyncer(client *gims.Client) *Syncer {
	return &Syncer{client: client, now: time.Now}
}

// ExportResult is the outcome of an export: the rendered documents plus a
// directory name suggestion derived from the component name.
type ExportResult struct {
	Files           map[string]string `json:"files"`
	SuggestedFolder string            `json:"suggested_folder"`
}

// ImportOptions adjust how an import reconciles with the target instance.
type ImportOptions struct {
	// TargetName overrides the name from meta.yaml.
	TargetName string

	// TargetFolderID places the component in a folder. Scripts only.
	TargetFolderID *int64

	// UpdateExisting allows overwriting a component that already exists
	// under the resolved name. Without it a name collision is reported as
	// a conflict and nothing is modified.
	UpdateExisting bool
}

// Outcome reports what an import did. Action is one of ActionCreated,
// ActionUpdated or ActionConflict; a conflict carries the existing
// component's id and a suggestion, and mutates nothing.
type Outcome struct {
	Action      string   `json:"action"`
	ID          int64    `json:"id,omitempty"`
	Name        string   `json:"name"`
	Note        string   `json:"note,omitempty"`
	ExistingID  int64    `json:"existing_id,omitempty"`
	Suggestion  string   `json:"suggestion,omitempty"`
	ChildErrors []string `json:"child_errors,omitempty"`
}

const conflictSuggestion = "pass target_name to create under a different name, or update_existing=true to overwrite"

func conflictOutcome(name string, existingID int64) *Outcome {
	return &Outcome{
		Action:     ActionConflict,
		Name:       name,
		ExistingID: existingID,
		Suggestion: conflictSuggestion,
	}
}

// refTables maps reference display names to the numeric ids of the target
// instance. Documents store value types and sections by name, so every
// import resolves them against the tables once.
type refTables struct {
	valueTypes map[string]int64
	sections   map[string]int64
}

func (s *Syncer) loadRefTables(ctx context.Context) (*refTables, error) {
	vts, err := s.client.ListValueTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load value types: %w", err)
	}
	secs, err := s.client.ListPropertySections(ctx)
	if err != nil {
		return nil, fmt.Errorf("load property sections: %w", err)
	}
	t := &refTables{
		valueTypes: make(map[string]int64, len(vts)),
		sections:   make(map[string]int64, len(secs)),
	}
	for _, vt := range vts {
		t.valueTypes[vt.Name] = vt.ID
	}
	for _, sec := range secs {
		t.sections[sec.Name] = sec.ID
	}
	return t, nil
}

func (t *refTables) valueTypeID(name string) (int64, error) {
	id, ok := t.valueTypes[name]
	if !ok {
		return 0, fmt.Errorf("unknown value type %q", name)
	}
	return id, nil
}

func (t *refTables) sectionID(name string) (int64, error) {
	id, ok := t.sections[name]
	if !ok {
		return 0, fmt.Errorf("unknown property section %q", name)
	}
	return id, nil
}
