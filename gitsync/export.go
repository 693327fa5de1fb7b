package gitsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/gimsops/gims-mcp/bundle"
	"github.com/gimsops/gims-mcp/gims"
	"github.com/gimsops/gims-mcp/paths"
)

// ErrNoSelector is returned when an export is requested without an id or a
// name to resolve.
var ErrNoSelector = errors.New("an id or a name is required")

// ExportScript renders a script as a document set. Exactly one of id or
// name selects the script; selection by name matches exactly.
func (s *Syncer) ExportScript(ctx context.Context, id *int64, name string) (*ExportResult, error) {
	scriptID, err := s.resolveScriptID(ctx, id, name)
	if err != nil {
		return nil, err
	}
	script, err := s.client.GetScript(ctx, scriptID)
	if err != nil {
		return nil, err
	}
	folderPath, err := s.folderPath(ctx, script.FolderID, s.client.ListScriptFolders)
	if err != nil {
		return nil, err
	}
	docs, err := bundle.ExportScript(&script, folderPath, s.client.BaseURL(), s.now())
	if err != nil {
		return nil, err
	}
	return &ExportResult{Files: docs, SuggestedFolder: bundle.Slug(script.Name)}, nil
}

// ExportDatasourceType renders a datasource type together with its
// properties, methods and method parameters.
func (s *Syncer) ExportDatasourceType(ctx context.Context, id *int64, name string) (*ExportResult, error) {
	typeID, err := s.resolveDatasourceTypeID(ctx, id, name)
	if err != nil {
		return nil, err
	}
	dt, err := s.client.GetDatasourceType(ctx, typeID)
	if err != nil {
		return nil, err
	}
	props, err := s.client.ListDatasourceTypeProperties(ctx, dt.ID)
	if err != nil {
		return nil, err
	}
	methods, err := s.client.ListDatasourceTypeMethods(ctx, dt.ID)
	if err != nil {
		return nil, err
	}
	exports := make([]bundle.MethodExport, 0, len(methods))
	for _, m := range methods {
		params, err := s.client.ListMethodParameters(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("method %q parameters: %w", m.Label, err)
		}
		exports = append(exports, bundle.MethodExport{Method: m, Parameters: params})
	}
	folderPath, err := s.folderPath(ctx, dt.Folder, s.client.ListDatasourceTypeFolders)
	if err != nil {
		return nil, err
	}
	docs, err := bundle.ExportDatasourceType(&dt, folderPath, props, exports, s.client.BaseURL(), s.now())
	if err != nil {
		return nil, err
	}
	return &ExportResult{Files: docs, SuggestedFolder: bundle.Slug(dt.Name)}, nil
}

// ExportActivatorType renders an activator type together with its code body
// and properties.
func (s *Syncer) ExportActivatorType(ctx context.Context, id *int64, name string) (*ExportResult, error) {
	typeID, err := s.resolveActivatorTypeID(ctx, id, name)
	if err != nil {
		return nil, err
	}
	at, err := s.client.GetActivatorType(ctx, typeID)
	if err != nil {
		return nil, err
	}
	props, err := s.client.ListActivatorTypeProperties(ctx, &at.ID)
	if err != nil {
		return nil, err
	}
	folderPath, err := s.folderPath(ctx, at.Folder, s.client.ListActivatorTypeFolders)
	if err != nil {
		return nil, err
	}
	docs, err := bundle.ExportActivatorType(&at, folderPath, props, s.client.BaseURL(), s.now())
	if err != nil {
		return nil, err
	}
	return &ExportResult{Files: docs, SuggestedFolder: bundle.Slug(at.Name)}, nil
}

func (s *Syncer) resolveScriptID(ctx context.Context, id *int64, name string) (int64, error) {
	if id != nil {
		return *id, nil
	}
	if name == "" {
		return 0, ErrNoSelector
	}
	scripts, err := s.client.ListScripts(ctx, nil)
	if err != nil {
		return 0, err
	}
	for _, sc := range scripts {
		if sc.Name == name {
			return sc.ID, nil
		}
	}
	return 0, fmt.Errorf("script %q: %w", name, gims.ErrNotFound)
}

func (s *Syncer) resolveDatasourceTypeID(ctx context.Context, id *int64, name string) (int64, error) {
	if id != nil {
		return *id, nil
	}
	if name == "" {
		return 0, ErrNoSelector
	}
	types, err := s.client.ListDatasourceTypes(ctx)
	if err != nil {
		return 0, err
	}
	for _, t := range types {
		if t.Name == name {
			return t.ID, nil
		}
	}
	return 0, fmt.Errorf("datasource type %q: %w", name, gims.ErrNotFound)
}

func (s *Syncer) resolveActivatorTypeID(ctx context.Context, id *int64, name string) (int64, error) {
	if id != nil {
		return *id, nil
	}
	if name == "" {
		return 0, ErrNoSelector
	}
	types, err := s.client.ListActivatorTypes(ctx)
	if err != nil {
		return 0, err
	}
	for _, t := range types {
		if t.Name == name {
			return t.ID, nil
		}
	}
	return 0, fmt.Errorf("activator type %q: %w", name, gims.ErrNotFound)
}

// folderPath resolves a folder id to its absolute path using the hierarchy
// returned by list. Items without a folder map to the root path.
func (s *Syncer) folderPath(ctx context.Context, folderID *int64, list func(context.Context) ([]gims.Folder, error)) (string, error) {
	folders, err := list(ctx)
	if err != nil {
		return "", err
	}
	return paths.Lookup(folderID, paths.Attach(folders, false)), nil
}
