package tools

import (
	"context"

	"github.com/gimsops/gims-mcp/gims"
	"github.com/gimsops/gims-mcp/paths"
	"github.com/gimsops/gims-mcp/search"
)

type activatorTypeIDInput struct {
	ActivatorTypeID int64 `json:"activator_type_id" jsonschema:"Activator type ID"`
}

type createActivatorTypeInput struct {
	Name        string `json:"name" jsonschema:"Type name (unique)"`
	Code        string `json:"code,omitempty" jsonschema:"Python code of the activator"`
	Description string `json:"description,omitempty" jsonschema:"Type description"`
	Version     string `json:"version,omitempty" jsonschema:"Type version (default: 1.0)"`
	FolderID    *int64 `json:"folder_id,omitempty" jsonschema:"Folder ID (optional)"`
}

type updateActivatorTypeInput struct {
	TypeID      int64   `json:"type_id" jsonschema:"Type ID to update"`
	Name        *string `json:"name,omitempty" jsonschema:"New name"`
	Code        *string `json:"code,omitempty" jsonschema:"New Python code"`
	Description *string `json:"description,omitempty" jsonschema:"New description"`
	Version     *string `json:"version,omitempty" jsonschema:"New version"`
	FolderID    *int64  `json:"folder_id,omitempty" jsonschema:"New folder ID"`
}

type createActivatorPropertyInput struct {
	ActivatorTypeID int64 `json:"activator_type_id" jsonschema:"Activator type ID"`
	createPropertyInput
}

type activatorTypeDetail struct {
	Type       gims.ActivatorType `json:"type"`
	Properties []gims.Property    `json:"properties"`
}

func (s *Server) registerActivatorTools() {
	addTool(s, "list_activator_type_folders", "List all activator type folders with their hierarchy paths", s.listActivatorTypeFolders)
	addTool(s, "create_activator_type_folder", "Create a new activator type folder", s.createActivatorTypeFolder)
	addTool(s, "update_activator_type_folder", "Update an existing activator type folder", s.updateActivatorTypeFolder)
	addTool(s, "delete_activator_type_folder", "Delete an activator type folder", s.deleteActivatorTypeFolder)
	addTool(s, "list_activator_types", "List all activator types with their folder paths", s.listActivatorTypes)
	addTool(s, "get_activator_type", "Get an activator type with its code and properties", s.getActivatorType)
	addTool(s, "create_activator_type", "Create a new activator type", s.createActivatorType)
	addTool(s, "update_activator_type", "Update an existing activator type", s.updateActivatorType)
	addTool(s, "delete_activator_type", "Delete an activator type", s.deleteActivatorType)
	addTool(s, "list_activator_type_properties", "List properties of an activator type", s.listActivatorTypeProperties)
	addTool(s, "create_activator_type_property", "Create a property on an activator type", s.createActivatorTypeProperty)
	addTool(s, "update_activator_type_property", "Update an activator type property", s.updateActivatorTypeProperty)
	addTool(s, "delete_activator_type_property", "Delete an activator type property", s.deleteActivatorTypeProperty)
	addTool(s, "search_activator_types", "Search activator types by name and/or code", s.searchActivatorTypes)
}

func (s *Server) listActivatorTypeFolders(ctx context.Context, _ emptyInput) (any, error) {
	folders, err := s.client.ListActivatorTypeFolders(ctx)
	if err != nil {
		return nil, err
	}
	return folderList{Folders: paths.Attach(folders, true)}, nil
}

func (s *Server) createActivatorTypeFolder(ctx context.Context, in createFolderInput) (any, error) {
	return s.client.CreateActivatorTypeFolder(ctx, gims.CreateFolderParams{
		Name:           in.Name,
		ParentFolderID: in.ParentFolderID,
	})
}

func (s *Server) updateActivatorTypeFolder(ctx context.Context, in updateFolderInput) (any, error) {
	return s.client.UpdateActivatorTypeFolder(ctx, in.FolderID, gims.UpdateFolderParams{
		Name:           in.Name,
		ParentFolderID: in.ParentFolderID,
	})
}

func (s *Server) deleteActivatorTypeFolder(ctx context.Context, in deleteFolderInput) (any, error) {
	if err := s.client.DeleteActivatorTypeFolder(ctx, in.FolderID); err != nil {
		return nil, err
	}
	return rawText("Folder deleted successfully"), nil
}

func (s *Server) listActivatorTypes(ctx context.Context, in listTypesInput) (any, error) {
	folders, err := s.client.ListActivatorTypeFolders(ctx)
	if err != nil {
		return nil, err
	}
	entries := paths.Attach(folders, true)
	types, err := s.client.ListActivatorTypes(ctx)
	if err != nil {
		return nil, err
	}
	out := typeList{Types: make([]typeEntry, 0, len(types))}
	for _, t := range types {
		if in.FolderID != nil && (t.Folder == nil || *t.Folder != *in.FolderID) {
			continue
		}
		out.Types = append(out.Types, typeEntry{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			Version:     t.Version,
			Folder:      t.Folder,
			FolderPath:  paths.ItemPath(t.Name, t.Folder, entries),
			UpdatedAt:   t.UpdatedAt,
		})
	}
	return out, nil
}

func (s *Server) getActivatorType(ctx context.Context, in typeIDInput) (any, error) {
	at, err := s.client.GetActivatorType(ctx, in.TypeID)
	if err != nil {
		return nil, err
	}
	props, err := s.client.ListActivatorTypeProperties(ctx, &in.TypeID)
	if err != nil {
		return nil, err
	}
	return activatorTypeDetail{Type: at, Properties: props}, nil
}

func (s *Server) createActivatorType(ctx context.Context, in createActivatorTypeInput) (any, error) {
	version := in.Version
	if version == "" {
		version = "1.0"
	}
	return s.client.CreateActivatorType(ctx, gims.CreateActivatorTypeParams{
		Name:        in.Name,
		Code:        in.Code,
		Description: in.Description,
		Version:     version,
		Folder:      in.FolderID,
	})
}

func (s *Server) updateActivatorType(ctx context.Context, in updateActivatorTypeInput) (any, error) {
	return s.client.UpdateActivatorType(ctx, in.TypeID, gims.UpdateActivatorTypeParams{
		Name:        in.Name,
		Code:        in.Code,
		Description: in.Description,
		Version:     in.Version,
		Folder:      in.FolderID,
	})
}

func (s *Server) deleteActivatorType(ctx context.Context, in typeIDInput) (any, error) {
	if err := s.client.DeleteActivatorType(ctx, in.TypeID); err != nil {
		return nil, err
	}
	return rawText("Activator type deleted successfully"), nil
}

func (s *Server) listActivatorTypeProperties(ctx context.Context, in activatorTypeIDInput) (any, error) {
	props, err := s.client.ListActivatorTypeProperties(ctx, &in.ActivatorTypeID)
	if err != nil {
		return nil, err
	}
	return map[string][]gims.Property{"properties": props}, nil
}

func (s *Server) createActivatorTypeProperty(ctx context.Context, in createActivatorPropertyInput) (any, error) {
	return s.client.CreateActivatorTypeProperty(ctx, gims.CreatePropertyParams{
		ActivatorTypeID: &in.ActivatorTypeID,
		Name:            in.Name,
		Label:           in.Label,
		ValueTypeID:     in.ValueTypeID,
		SectionNameID:   in.SectionNameID,
		Description:     in.Description,
		DefaultValue:    in.DefaultValue,
		IsRequired:      in.IsRequired,
		IsHidden:        in.IsHidden,
	})
}

func (s *Server) updateActivatorTypeProperty(ctx context.Context, in updatePropertyInput) (any, error) {
	return s.client.UpdateActivatorTypeProperty(ctx, in.PropertyID, gims.UpdatePropertyParams{
		Name:          in.Name,
		Label:         in.Label,
		ValueTypeID:   in.ValueTypeID,
		SectionNameID: in.SectionNameID,
		Description:   in.Description,
		DefaultValue:  in.DefaultValue,
		IsRequired:    in.IsRequired,
		IsHidden:      in.IsHidden,
		IsInner:       in.IsInner,
	})
}

func (s *Server) deleteActivatorTypeProperty(ctx context.Context, in propertyIDInput) (any, error) {
	if err := s.client.DeleteActivatorTypeProperty(ctx, in.PropertyID); err != nil {
		return nil, err
	}
	return rawText("Property deleted successfully"), nil
}

// searchActivatorTypes matches type names locally; with search_in=code it
// fetches each remaining type's code body and scans that too.
func (s *Server) searchActivatorTypes(ctx context.Context, in searchTypesInput) (any, error) {
	where := in.SearchIn
	if where == "" {
		where = "name"
	}
	opts := search.Options{CaseSensitive: in.CaseSensitive}

	var results []typeMatch
	seen := map[int64]bool{}

	if where == "name" || where == "both" {
		types, err := s.client.ListActivatorTypes(ctx)
		if err != nil {
			return nil, err
		}
		candidates := make([]search.Candidate, 0, len(types))
		for _, t := range types {
			candidates = append(candidates, search.Candidate{Item: t, Text: t.Name})
		}
		for _, m := range search.Run(candidates, in.Query, opts) {
			t := m.Item.(gims.ActivatorType)
			if seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			results = append(results, typeMatch{
				ID:          t.ID,
				Name:        t.Name,
				Description: t.Description,
				MatchedIn:   "name",
				MatchCount:  m.Count,
				Matches:     m.Windows,
			})
		}
	}

	if where == "code" || where == "both" {
		types, err := s.client.ListActivatorTypes(ctx)
		if err != nil {
			return nil, err
		}
		for _, t := range types {
			if seen[t.ID] {
				continue
			}
			full, err := s.client.GetActivatorType(ctx, t.ID)
			if err != nil {
				return nil, err
			}
			hits := search.Run([]search.Candidate{{Item: full, Text: full.Code}}, in.Query, opts)
			if len(hits) == 0 {
				continue
			}
			seen[t.ID] = true
			results = append(results, typeMatch{
				ID:          t.ID,
				Name:        t.Name,
				Description: t.Description,
				MatchedIn:   "code",
				MatchCount:  hits[0].Count,
				Matches:     hits[0].Windows,
			})
		}
	}

	return typeSearchResults{Results: results}, nil
}
