package tools

import (
	"context"

	"github.com/gimsops/gims-mcp/gims"
	"github.com/gimsops/gims-mcp/paths"
	"github.com/gimsops/gims-mcp/search"
)

type listTypesInput struct {
	FolderID *int64 `json:"folder_id,omitempty" jsonschema:"Filter by folder ID (optional)"`
}

type typeIDInput struct {
	TypeID int64 `json:"type_id" jsonschema:"Type ID"`
}

type getDatasourceTypeInput struct {
	TypeID            int64 `json:"type_id" jsonschema:"Type ID"`
	IncludeProperties *bool `json:"include_properties,omitempty" jsonschema:"Include properties (default: true)"`
	IncludeMethods    *bool `json:"include_methods,omitempty" jsonschema:"Include methods with parameters (default: true)"`
}

type createTypeInput struct {
	Name        string `json:"name" jsonschema:"Type name (unique)"`
	Description string `json:"description,omitempty" jsonschema:"Type description"`
	Version     string `json:"version,omitempty" jsonschema:"Type version (default: 1.0)"`
	FolderID    *int64 `json:"folder_id,omitempty" jsonschema:"Folder ID (optional)"`
}

type updateTypeInput struct {
	TypeID      int64   `json:"type_id" jsonschema:"Type ID to update"`
	Name        *string `json:"name,omitempty" jsonschema:"New name"`
	Description *string `json:"description,omitempty" jsonschema:"New description"`
	Version     *string `json:"version,omitempty" jsonschema:"New version"`
	FolderID    *int64  `json:"folder_id,omitempty" jsonschema:"New folder ID"`
}

type mdsTypeIDInput struct {
	MDSTypeID int64 `json:"mds_type_id" jsonschema:"Datasource type ID"`
}

type createPropertyInput struct {
	Name          string `json:"name" jsonschema:"Property name"`
	Label         string `json:"label" jsonschema:"Property label"`
	ValueTypeID   int64  `json:"value_type_id" jsonschema:"Value type ID (use list_value_types)"`
	SectionNameID int64  `json:"section_name_id" jsonschema:"Section ID (use list_property_sections)"`
	Description   string `json:"description,omitempty" jsonschema:"Property description"`
	DefaultValue  string `json:"default_value,omitempty" jsonschema:"Default value"`
	IsRequired    bool   `json:"is_required,omitempty" jsonschema:"Whether the property is required"`
	IsHidden      bool   `json:"is_hidden,omitempty" jsonschema:"Whether the property is hidden"`
}

type createDatasourcePropertyInput struct {
	MDSTypeID int64 `json:"mds_type_id" jsonschema:"Datasource type ID"`
	createPropertyInput
}

type updatePropertyInput struct {
	PropertyID    int64   `json:"property_id" jsonschema:"Property ID to update"`
	Name          *string `json:"name,omitempty" jsonschema:"New name"`
	Label         *string `json:"label,omitempty" jsonschema:"New label"`
	ValueTypeID   *int64  `json:"value_type_id,omitempty" jsonschema:"New value type ID"`
	SectionNameID *int64  `json:"section_name_id,omitempty" jsonschema:"New section ID"`
	Description   *string `json:"description,omitempty" jsonschema:"New description"`
	DefaultValue  *string `json:"default_value,omitempty" jsonschema:"New default value"`
	IsRequired    *bool   `json:"is_required,omitempty" jsonschema:"New required flag"`
	IsHidden      *bool   `json:"is_hidden,omitempty" jsonschema:"New hidden flag"`
	IsInner       *bool   `json:"is_inner,omitempty" jsonschema:"New inner flag"`
}

type propertyIDInput struct {
	PropertyID int64 `json:"property_id" jsonschema:"Property ID"`
}

type methodIDInput struct {
	MethodID int64 `json:"method_id" jsonschema:"Method ID"`
}

type createMethodInput struct {
	MDSTypeID   int64  `json:"mds_type_id" jsonschema:"Datasource type ID"`
	Name        string `json:"name" jsonschema:"Method name"`
	Label       string `json:"label" jsonschema:"Method label"`
	Code        string `json:"code,omitempty" jsonschema:"Python code of the method"`
	Description string `json:"description,omitempty" jsonschema:"Method description"`
}

type updateMethodInput struct {
	MethodID    int64   `json:"method_id" jsonschema:"Method ID to update"`
	Name        *string `json:"name,omitempty" jsonschema:"New name"`
	Label       *string `json:"label,omitempty" jsonschema:"New label"`
	Code        *string `json:"code,omitempty" jsonschema:"New Python code"`
	Description *string `json:"description,omitempty" jsonschema:"New description"`
}

type createParameterInput struct {
	MethodID     int64  `json:"method_id" jsonschema:"Method ID"`
	Label        string `json:"label" jsonschema:"Parameter label"`
	ValueTypeID  int64  `json:"value_type_id" jsonschema:"Value type ID (use list_value_types)"`
	InputType    bool   `json:"input_type,omitempty" jsonschema:"True for input, false for output"`
	DefaultValue string `json:"default_value,omitempty" jsonschema:"Default value"`
	Description  string `json:"description,omitempty" jsonschema:"Parameter description"`
	IsHidden     bool   `json:"is_hidden,omitempty" jsonschema:"Whether the parameter is hidden"`
}

type updateParameterInput struct {
	ParameterID  int64   `json:"parameter_id" jsonschema:"Parameter ID to update"`
	Label        *string `json:"label,omitempty" jsonschema:"New label"`
	ValueTypeID  *int64  `json:"value_type_id,omitempty" jsonschema:"New value type ID"`
	InputType    *bool   `json:"input_type,omitempty" jsonschema:"New direction flag"`
	DefaultValue *string `json:"default_value,omitempty" jsonschema:"New default value"`
	Description  *string `json:"description,omitempty" jsonschema:"New description"`
	IsHidden     *bool   `json:"is_hidden,omitempty" jsonschema:"New hidden flag"`
}

type parameterIDInput struct {
	ParameterID int64 `json:"parameter_id" jsonschema:"Parameter ID"`
}

type searchTypesInput struct {
	Query         string `json:"query" jsonschema:"Search query (substring or regex)"`
	SearchIn      string `json:"search_in,omitempty" jsonschema:"Where to search: name, code or both (default: name)"`
	CaseSensitive bool   `json:"case_sensitive,omitempty" jsonschema:"Case-sensitive search (default: false)"`
}

// typeEntry is a typed entity joined with its resolved folder path. Code
// bodies are withheld from listings.
type typeEntry struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version,omitempty"`
	Folder      *int64 `json:"folder"`
	FolderPath  string `json:"folder_path"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

type typeList struct {
	Types []typeEntry `json:"types"`
}

type datasourceTypeDetail struct {
	Type       gims.DatasourceType `json:"type"`
	Properties []gims.Property     `json:"properties,omitempty"`
	Methods    []methodDetail      `json:"methods,omitempty"`
}

type methodDetail struct {
	gims.Method
	Parameters []gims.Parameter `json:"parameters"`
}

type methodMatch struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	MatchCount int    `json:"match_count"`
}

// typeMatch is one type search result.
type typeMatch struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	MatchedIn      string          `json:"matched_in"`
	MatchCount     int             `json:"match_count,omitempty"`
	Matches        []search.Window `json:"matches,omitempty"`
	MatchedMethods []methodMatch   `json:"matched_methods,omitempty"`
}

type typeSearchResults struct {
	Results []typeMatch `json:"results"`
}

func (s *Server) registerDatasourceTools() {
	addTool(s, "list_datasource_type_folders", "List all datasource type folders with their hierarchy paths", s.listDatasourceTypeFolders)
	addTool(s, "create_datasource_type_folder", "Create a new datasource type folder", s.createDatasourceTypeFolder)
	addTool(s, "update_datasource_type_folder", "Update an existing datasource type folder", s.updateDatasourceTypeFolder)
	addTool(s, "delete_datasource_type_folder", "Delete a datasource type folder", s.deleteDatasourceTypeFolder)
	addTool(s, "list_datasource_types", "List all datasource types with their folder paths", s.listDatasourceTypes)
	addTool(s, "get_datasource_type", "Get a datasource type with its properties and methods", s.getDatasourceType)
	addTool(s, "create_datasource_type", "Create a new datasource type", s.createDatasourceType)
	addTool(s, "update_datasource_type", "Update an existing datasource type", s.updateDatasourceType)
	addTool(s, "delete_datasource_type", "Delete a datasource type", s.deleteDatasourceType)
	addTool(s, "list_datasource_type_properties", "List properties of a datasource type", s.listDatasourceTypeProperties)
	addTool(s, "create_datasource_type_property", "Create a property on a datasource type", s.createDatasourceTypeProperty)
	addTool(s, "update_datasource_type_property", "Update a datasource type property", s.updateDatasourceTypeProperty)
	addTool(s, "delete_datasource_type_property", "Delete a datasource type property", s.deleteDatasourceTypeProperty)
	addTool(s, "list_datasource_type_methods", "List methods of a datasource type", s.listDatasourceTypeMethods)
	addTool(s, "get_datasource_type_method", "Get a datasource type method, including its code", s.getDatasourceTypeMethod)
	addTool(s, "create_datasource_type_method", "Create a method on a datasource type", s.createDatasourceTypeMethod)
	addTool(s, "update_datasource_type_method", "Update a datasource type method", s.updateDatasourceTypeMethod)
	addTool(s, "delete_datasource_type_method", "Delete a datasource type method", s.deleteDatasourceTypeMethod)
	addTool(s, "list_method_parameters", "List parameters of a method", s.listMethodParameters)
	addTool(s, "create_method_parameter", "Create a parameter on a method", s.createMethodParameter)
	addTool(s, "update_method_parameter", "Update a method parameter", s.updateMethodParameter)
	addTool(s, "delete_method_parameter", "Delete a method parameter", s.deleteMethodParameter)
	addTool(s, "search_datasource_types", "Search datasource types by name and/or method code", s.searchDatasourceTypes)
}

func (s *Server) listDatasourceTypeFolders(ctx context.Context, _ emptyInput) (any, error) {
	folders, err := s.client.ListDatasourceTypeFolders(ctx)
	if err != nil {
		return nil, err
	}
	return folderList{Folders: paths.Attach(folders, true)}, nil
}

func (s *Server) createDatasourceTypeFolder(ctx context.Context, in createFolderInput) (any, error) {
	return s.client.CreateDatasourceTypeFolder(ctx, gims.CreateFolderParams{
		Name:           in.Name,
		ParentFolderID: in.ParentFolderID,
	})
}

func (s *Server) updateDatasourceTypeFolder(ctx context.Context, in updateFolderInput) (any, error) {
	return s.client.UpdateDatasourceTypeFolder(ctx, in.FolderID, gims.UpdateFolderParams{
		Name:           in.Name,
		ParentFolderID: in.ParentFolderID,
	})
}

func (s *Server) deleteDatasourceTypeFolder(ctx context.Context, in deleteFolderInput) (any, error) {
	if err := s.client.DeleteDatasourceTypeFolder(ctx, in.FolderID); err != nil {
		return nil, err
	}
	return rawText("Folder deleted successfully"), nil
}

func (s *Server) listDatasourceTypes(ctx context.Context, in listTypesInput) (any, error) {
	folders, err := s.client.ListDatasourceTypeFolders(ctx)
	if err != nil {
		return nil, err
	}
	entries := paths.Attach(folders, true)
	types, err := s.client.ListDatasourceTypes(ctx)
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

func (s *Server) getDatasourceType(ctx context.Context, in getDatasourceTypeInput) (any, error) {
	dt, err := s.client.GetDatasourceType(ctx, in.TypeID)
	if err != nil {
		return nil, err
	}
	out := datasourceTypeDetail{Type: dt}

	if in.IncludeProperties == nil || *in.IncludeProperties {
		props, err := s.client.ListDatasourceTypeProperties(ctx, in.TypeID)
		if err != nil {
			return nil, err
		}
		out.Properties = props
	}
	if in.IncludeMethods == nil || *in.IncludeMethods {
		methods, err := s.client.ListDatasourceTypeMethods(ctx, in.TypeID)
		if err != nil {
			return nil, err
		}
		for _, m := range methods {
			params, err := s.client.ListMethodParameters(ctx, m.ID)
			if err != nil {
				return nil, err
			}
			out.Methods = append(out.Methods, methodDetail{Method: m, Parameters: params})
		}
	}
	return out, nil
}

func (s *Server) createDatasourceType(ctx context.Context, in createTypeInput) (any, error) {
	version := in.Version
	if version == "" {
		version = "1.0"
	}
	return s.client.CreateDatasourceType(ctx, gims.CreateDatasourceTypeParams{
		Name:        in.Name,
		Description: in.Description,
		Version:     version,
		Folder:      in.FolderID,
	})
}

func (s *Server) updateDatasourceType(ctx context.Context, in updateTypeInput) (any, error) {
	return s.client.UpdateDatasourceType(ctx, in.TypeID, gims.UpdateDatasourceTypeParams{
		Name:        in.Name,
		Description: in.Description,
		Version:     in.Version,
		Folder:      in.FolderID,
	})
}

func (s *Server) deleteDatasourceType(ctx context.Context, in typeIDInput) (any, error) {
	if err := s.client.DeleteDatasourceType(ctx, in.TypeID); err != nil {
		return nil, err
	}
	return rawText("Datasource type deleted successfully"), nil
}

func (s *Server) listDatasourceTypeProperties(ctx context.Context, in mdsTypeIDInput) (any, error) {
	props, err := s.client.ListDatasourceTypeProperties(ctx, in.MDSTypeID)
	if err != nil {
		return nil, err
	}
	return map[string][]gims.Property{"properties": props}, nil
}

func (s *Server) createDatasourceTypeProperty(ctx context.Context, in createDatasourcePropertyInput) (any, error) {
	return s.client.CreateDatasourceTypeProperty(ctx, gims.CreatePropertyParams{
		MDSTypeID:     &in.MDSTypeID,
		Name:          in.Name,
		Label:         in.Label,
		ValueTypeID:   in.ValueTypeID,
		SectionNameID: in.SectionNameID,
		Description:   in.Description,
		DefaultValue:  in.DefaultValue,
		IsRequired:    in.IsRequired,
		IsHidden:      in.IsHidden,
	})
}

func (s *Server) updateDatasourceTypeProperty(ctx context.Context, in updatePropertyInput) (any, error) {
	return s.client.UpdateDatasourceTypeProperty(ctx, in.PropertyID, gims.UpdatePropertyParams{
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

func (s *Server) deleteDatasourceTypeProperty(ctx context.Context, in propertyIDInput) (any, error) {
	if err := s.client.DeleteDatasourceTypeProperty(ctx, in.PropertyID); err != nil {
		return nil, err
	}
	return rawText("Property deleted successfully"), nil
}

func (s *Server) listDatasourceTypeMethods(ctx context.Context, in mdsTypeIDInput) (any, error) {
	methods, err := s.client.ListDatasourceTypeMethods(ctx, in.MDSTypeID)
	if err != nil {
		return nil, err
	}
	return map[string][]gims.Method{"methods": methods}, nil
}

func (s *Server) getDatasourceTypeMethod(ctx context.Context, in methodIDInput) (any, error) {
	return s.client.GetDatasourceTypeMethod(ctx, in.MethodID)
}

func (s *Server) createDatasourceTypeMethod(ctx context.Context, in createMethodInput) (any, error) {
	return s.client.CreateDatasourceTypeMethod(ctx, gims.CreateMethodParams{
		MDSTypeID:   in.MDSTypeID,
		Name:        in.Name,
		Label:       in.Label,
		Code:        in.Code,
		Description: in.Description,
	})
}

func (s *Server) updateDatasourceTypeMethod(ctx context.Context, in updateMethodInput) (any, error) {
	return s.client.UpdateDatasourceTypeMethod(ctx, in.MethodID, gims.UpdateMethodParams{
		Name:        in.Name,
		Label:       in.Label,
		Code:        in.Code,
		Description: in.Description,
	})
}

func (s *Server) deleteDatasourceTypeMethod(ctx context.Context, in methodIDInput) (any, error) {
	if err := s.client.DeleteDatasourceTypeMethod(ctx, in.MethodID); err != nil {
		return nil, err
	}
	return rawText("Method deleted successfully"), nil
}

func (s *Server) listMethodParameters(ctx context.Context, in methodIDInput) (any, error) {
	params, err := s.client.ListMethodParameters(ctx, in.MethodID)
	if err != nil {
		return nil, err
	}
	return map[string][]gims.Parameter{"parameters": params}, nil
}

func (s *Server) createMethodParameter(ctx context.Context, in createParameterInput) (any, error) {
	return s.client.CreateMethodParameter(ctx, gims.CreateParameterParams{
		MethodID:     in.MethodID,
		Label:        in.Label,
		ValueTypeID:  in.ValueTypeID,
		InputType:    in.InputType,
		DefaultValue: in.DefaultValue,
		Description:  in.Description,
		IsHidden:     in.IsHidden,
	})
}

func (s *Server) updateMethodParameter(ctx context.Context, in updateParameterInput) (any, error) {
	return s.client.UpdateMethodParameter(ctx, in.ParameterID, gims.UpdateParameterParams{
		Label:        in.Label,
		ValueTypeID:  in.ValueTypeID,
		InputType:    in.InputType,
		DefaultValue: in.DefaultValue,
		Description:  in.Description,
		IsHidden:     in.IsHidden,
	})
}

func (s *Server) deleteMethodParameter(ctx context.Context, in parameterIDInput) (any, error) {
	if err := s.client.DeleteMethodParameter(ctx, in.ParameterID); err != nil {
		return nil, err
	}
	return rawText("Parameter deleted successfully"), nil
}

// searchDatasourceTypes matches type names locally; with search_in=code it
// also scans method code, one method listing per type, and reports which
// methods matched instead of their code.
func (s *Server) searchDatasourceTypes(ctx context.Context, in searchTypesInput) (any, error) {
	where := in.SearchIn
	if where == "" {
		where = "name"
	}
	opts := search.Options{CaseSensitive: in.CaseSensitive}

	var results []typeMatch
	seen := map[int64]bool{}

	if where == "name" || where == "both" {
		types, err := s.client.ListDatasourceTypes(ctx)
		if err != nil {
			return nil, err
		}
		candidates := make([]search.Candidate, 0, len(types))
		for _, t := range types {
			candidates = append(candidates, search.Candidate{Item: t, Text: t.Name})
		}
		for _, m := range search.Run(candidates, in.Query, opts) {
			t := m.Item.(gims.DatasourceType)
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
		types, err := s.client.ListDatasourceTypes(ctx)
		if err != nil {
			return nil, err
		}
		for _, t := range types {
			if seen[t.ID] {
				continue
			}
			methods, err := s.client.ListDatasourceTypeMethods(ctx, t.ID)
			if err != nil {
				return nil, err
			}
			candidates := make([]search.Candidate, 0, len(methods))
			for _, m := range methods {
				candidates = append(candidates, search.Candidate{Item: m, Text: m.Code})
			}
			hits := search.Run(candidates, in.Query, opts)
			if len(hits) == 0 {
				continue
			}
			matched := make([]methodMatch, 0, len(hits))
			for _, h := range hits {
				m := h.Item.(gims.Method)
				matched = append(matched, methodMatch{ID: m.ID, Name: m.Name, MatchCount: h.Count})
			}
			seen[t.ID] = true
			results = append(results, typeMatch{
				ID:             t.ID,
				Name:           t.Name,
				Description:    t.Description,
				MatchedIn:      "code",
				MatchedMethods: matched,
			})
		}
	}

	return typeSearchResults{Results: results}, nil
}
