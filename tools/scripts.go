package tools

import (
	"context"

	"github.com/gimsops/gims-mcp/gims"
	"github.com/gimsops/gims-mcp/paths"
	"github.com/gimsops/gims-mcp/search"
)

type emptyInput struct{}

type createFolderInput struct {
	Name           string `json:"name" jsonschema:"Folder name"`
	ParentFolderID *int64 `json:"parent_folder_id,omitempty" jsonschema:"Parent folder ID (optional)"`
}

type updateFolderInput struct {
	FolderID       int64   `json:"folder_id" jsonschema:"Folder ID to update"`
	Name           *string `json:"name,omitempty" jsonschema:"New folder name"`
	ParentFolderID *int64  `json:"parent_folder_id,omitempty" jsonschema:"New parent folder ID"`
}

type deleteFolderInput struct {
	FolderID int64 `json:"folder_id" jsonschema:"Folder ID to delete"`
}

type folderList struct {
	Folders []paths.Entry `json:"folders"`
}

type listScriptsInput struct {
	FolderID *int64 `json:"folder_id,omitempty" jsonschema:"Filter by folder ID (optional)"`
}

type scriptIDInput struct {
	ScriptID int64 `json:"script_id" jsonschema:"Script ID"`
}

type createScriptInput struct {
	Name     string `json:"name" jsonschema:"Script name (unique)"`
	Code     string `json:"code,omitempty" jsonschema:"Python code for the script"`
	FolderID *int64 `json:"folder_id,omitempty" jsonschema:"Folder ID (optional)"`
}

type updateScriptInput struct {
	ScriptID int64   `json:"script_id" jsonschema:"Script ID to update"`
	Name     *string `json:"name,omitempty" jsonschema:"New script name"`
	Code     *string `json:"code,omitempty" jsonschema:"New Python code"`
	FolderID *int64  `json:"folder_id,omitempty" jsonschema:"New folder ID"`
}

type searchScriptsInput struct {
	Query         string `json:"query" jsonschema:"Search query (substring or regex)"`
	SearchIn      string `json:"search_in,omitempty" jsonschema:"Where to search: code, name or both (default: both)"`
	CaseSensitive bool   `json:"case_sensitive,omitempty" jsonschema:"Case-sensitive search (default: false)"`
}

// scriptEntry is a script joined with its resolved folder path. The code
// body is withheld from listings to keep responses small.
type scriptEntry struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	FolderID    *int64 `json:"folder_id"`
	FolderPath  string `json:"folder_path"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

type scriptList struct {
	Scripts []scriptEntry `json:"scripts"`
}

// scriptMatch is one search result. Matches carry context windows for name
// searches; API code search reports the hit without positions.
type scriptMatch struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	FolderID    *int64          `json:"folder_id"`
	MatchedIn   string          `json:"matched_in"`
	MatchCount  int             `json:"match_count,omitempty"`
	Matches     []search.Window `json:"matches,omitempty"`
}

type scriptSearchResults struct {
	Results []scriptMatch `json:"results"`
}

func (s *Server) registerScriptTools() {
	addTool(s, "list_script_folders", "List all script folders with their hierarchy paths", s.listScriptFolders)
	addTool(s, "create_script_folder", "Create a new script folder", s.createScriptFolder)
	addTool(s, "update_script_folder", "Update an existing script folder", s.updateScriptFolder)
	addTool(s, "delete_script_folder", "Delete a script folder", s.deleteScriptFolder)
	addTool(s, "list_scripts", "List all scripts with their folder paths", s.listScripts)
	addTool(s, "get_script", "Get a script by ID, including its code", s.getScript)
	addTool(s, "create_script", "Create a new script", s.createScript)
	addTool(s, "update_script", "Update an existing script", s.updateScript)
	addTool(s, "delete_script", "Delete a script", s.deleteScript)
	addTool(s, "search_scripts", "Search scripts by code content and/or name", s.searchScripts)
}

func (s *Server) listScriptFolders(ctx context.Context, _ emptyInput) (any, error) {
	folders, err := s.client.ListScriptFolders(ctx)
	if err != nil {
		return nil, err
	}
	return folderList{Folders: paths.Attach(folders, true)}, nil
}

func (s *Server) createScriptFolder(ctx context.Context, in createFolderInput) (any, error) {
	return s.client.CreateScriptFolder(ctx, gims.CreateFolderParams{
		Name:           in.Name,
		ParentFolderID: in.ParentFolderID,
	})
}

func (s *Server) updateScriptFolder(ctx context.Context, in updateFolderInput) (any, error) {
	return s.client.UpdateScriptFolder(ctx, in.FolderID, gims.UpdateFolderParams{
		Name:           in.Name,
		ParentFolderID: in.ParentFolderID,
	})
}

func (s *Server) deleteScriptFolder(ctx context.Context, in deleteFolderInput) (any, error) {
	if err := s.client.DeleteScriptFolder(ctx, in.FolderID); err != nil {
		return nil, err
	}
	return rawText("Folder deleted successfully"), nil
}

func (s *Server) listScripts(ctx context.Context, in listScriptsInput) (any, error) {
	folders, err := s.client.ListScriptFolders(ctx)
	if err != nil {
		return nil, err
	}
	entries := paths.Attach(folders, true)
	scripts, err := s.client.ListScripts(ctx, in.FolderID)
	if err != nil {
		return nil, err
	}
	out := scriptList{Scripts: make([]scriptEntry, 0, len(scripts))}
	for _, sc := range scripts {
		out.Scripts = append(out.Scripts, scriptEntry{
			ID:          sc.ID,
			Name:        sc.Name,
			Description: sc.Description,
			FolderID:    sc.FolderID,
			FolderPath:  paths.ItemPath(sc.Name, sc.FolderID, entries),
			UpdatedAt:   sc.UpdatedAt,
		})
	}
	return out, nil
}

func (s *Server) getScript(ctx context.Context, in scriptIDInput) (any, error) {
	return s.client.GetScript(ctx, in.ScriptID)
}

func (s *Server) createScript(ctx context.Context, in createScriptInput) (any, error) {
	return s.client.CreateScript(ctx, gims.CreateScriptParams{
		Name:     in.Name,
		Code:     in.Code,
		FolderID: in.FolderID,
	})
}

func (s *Server) updateScript(ctx context.Context, in updateScriptInput) (any, error) {
	return s.client.UpdateScript(ctx, in.ScriptID, gims.UpdateScriptParams{
		Name:     in.Name,
		Code:     in.Code,
		FolderID: in.FolderID,
	})
}

func (s *Server) deleteScript(ctx context.Context, in scriptIDInput) (any, error) {
	if err := s.client.DeleteScript(ctx, in.ScriptID); err != nil {
		return nil, err
	}
	return rawText("Script deleted successfully"), nil
}

// searchScripts combines the server-side code search with a local search
// over script names. Code hits win on duplicate ids.
func (s *Server) searchScripts(ctx context.Context, in searchScriptsInput) (any, error) {
	where := in.SearchIn
	if where == "" {
		where = "both"
	}

	var results []scriptMatch
	seen := map[int64]bool{}

	if where == "code" || where == "both" {
		hits, err := s.client.SearchScriptCode(ctx, in.Query, in.CaseSensitive, false)
		if err != nil {
			return nil, err
		}
		for _, h := range hits {
			if seen[h.ID] {
				continue
			}
			seen[h.ID] = true
			results = append(results, scriptMatch{
				ID:          h.ID,
				Name:        h.Name,
				Description: h.Description,
				FolderID:    h.FolderID,
				MatchedIn:   "code",
			})
		}
	}

	if where == "name" || where == "both" {
		scripts, err := s.client.ListScripts(ctx, nil)
		if err != nil {
			return nil, err
		}
		candidates := make([]search.Candidate, 0, len(scripts))
		for _, sc := range scripts {
			candidates = append(candidates, search.Candidate{Item: sc, Text: sc.Name})
		}
		for _, m := range search.Run(candidates, in.Query, search.Options{CaseSensitive: in.CaseSensitive}) {
			sc := m.Item.(gims.Script)
			if seen[sc.ID] {
				continue
			}
			seen[sc.ID] = true
			results = append(results, scriptMatch{
				ID:          sc.ID,
				Name:        sc.Name,
				Description: sc.Description,
				FolderID:    sc.FolderID,
				MatchedIn:   "name",
				MatchCount:  m.Count,
				Matches:     m.Windows,
			})
		}
	}

	return scriptSearchResults{Results: results}, nil
}
