package tools

import (
	"context"
	"errors"

	"github.com/gimsops/gims-mcp/bundle"
	"github.com/gimsops/gims-mcp/gitsync"
	"github.com/gimsops/gims-mcp/pysyntax"
)

type exportScriptInput struct {
	ScriptID   *int64 `json:"script_id,omitempty" jsonschema:"Script ID in GIMS"`
	ScriptName string `json:"script_name,omitempty" jsonschema:"Script name (used when script_id is not given)"`
}

type exportTypeInput struct {
	TypeID   *int64 `json:"type_id,omitempty" jsonschema:"Type ID in GIMS"`
	TypeName string `json:"type_name,omitempty" jsonschema:"Type name (used when type_id is not given)"`
}

type importScriptInput struct {
	MetaYAML       string `json:"meta_yaml" jsonschema:"Contents of meta.yaml"`
	Code           string `json:"code" jsonschema:"Contents of code.py"`
	TargetName     string `json:"target_name,omitempty" jsonschema:"Create/update under this name instead of the one in meta.yaml"`
	TargetFolderID *int64 `json:"target_folder_id,omitempty" jsonschema:"Folder ID to create the script in"`
	UpdateExisting bool   `json:"update_existing,omitempty" jsonschema:"Overwrite an existing component with the same name (default: false)"`
}

type importBundleInput struct {
	Files          map[string]string `json:"files" jsonschema:"Bundle files keyed by relative path (meta.yaml, code.py, properties.yaml, methods/...)"`
	TargetName     string            `json:"target_name,omitempty" jsonschema:"Create/update under this name instead of the one in meta.yaml"`
	UpdateExisting bool              `json:"update_existing,omitempty" jsonschema:"Overwrite an existing component with the same name (default: false)"`
}

type validateCodeInput struct {
	Code string `json:"code" jsonschema:"Python source to check"`
}

type compareInput struct {
	ComponentType string `json:"component_type" jsonschema:"One of: script, datasource_type, activator_type"`
	Name          string `json:"name" jsonschema:"Component name in GIMS"`
	GitExportedAt string `json:"git_exported_at" jsonschema:"exported_at value from the Git copy's meta.yaml"`
}

type validationReport struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
	Line  int    `json:"line,omitempty"`
}

func (s *Server) registerSyncTools() {
	addTool(s, "export_script",
		"Export a script as a Git-ready file set (meta.yaml + code.py). "+
			"Pass script_id or script_name.",
		s.exportScript)
	addTool(s, "import_script",
		"Import a script from its Git file set. Validates the Python code first. "+
			"A name collision is reported as a conflict unless update_existing is set.",
		s.importScript)
	addTool(s, "export_datasource_type",
		"Export a datasource type with its properties and methods as a Git-ready "+
			"file set. Pass type_id or type_name.",
		s.exportDatasourceType)
	addTool(s, "import_datasource_type",
		"Import a datasource type from its Git file set, recreating properties, "+
			"methods and parameters on create. Validates all method code first.",
		s.importDatasourceType)
	addTool(s, "export_activator_type",
		"Export an activator type with its properties as a Git-ready file set. "+
			"Pass type_id or type_name.",
		s.exportActivatorType)
	addTool(s, "import_activator_type",
		"Import an activator type from its Git file set, recreating properties "+
			"on create. Validates the code first.",
		s.importActivatorType)
	addTool(s, "validate_python_code",
		"Check Python source for syntax errors without contacting GIMS.",
		s.validatePythonCode)
	addTool(s, "compare_with_git",
		"Compare a component's updated_at in GIMS against the exported_at stamp "+
			"of its Git copy and recommend a sync direction.",
		s.compareWithGit)
}

func (s *Server) exportScript(ctx context.Context, in exportScriptInput) (any, error) {
	return s.syncer.ExportScript(ctx, in.ScriptID, in.ScriptName)
}

func (s *Server) importScript(ctx context.Context, in importScriptInput) (any, error) {
	return s.syncer.ImportScript(ctx, in.MetaYAML, in.Code, gitsync.ImportOptions{
		TargetName:     in.TargetName,
		TargetFolderID: in.TargetFolderID,
		UpdateExisting: in.UpdateExisting,
	})
}

func (s *Server) exportDatasourceType(ctx context.Context, in exportTypeInput) (any, error) {
	return s.syncer.ExportDatasourceType(ctx, in.TypeID, in.TypeName)
}

func (s *Server) importDatasourceType(ctx context.Context, in importBundleInput) (any, error) {
	return s.syncer.ImportDatasourceType(ctx, bundle.DocumentSet(in.Files), gitsync.ImportOptions{
		TargetName:     in.TargetName,
		UpdateExisting: in.UpdateExisting,
	})
}

func (s *Server) exportActivatorType(ctx context.Context, in exportTypeInput) (any, error) {
	return s.syncer.ExportActivatorType(ctx, in.TypeID, in.TypeName)
}

func (s *Server) importActivatorType(ctx context.Context, in importBundleInput) (any, error) {
	return s.syncer.ImportActivatorType(ctx, bundle.DocumentSet(in.Files), gitsync.ImportOptions{
		TargetName:     in.TargetName,
		UpdateExisting: in.UpdateExisting,
	})
}

func (s *Server) validatePythonCode(ctx context.Context, in validateCodeInput) (any, error) {
	if err := pysyntax.Validate(in.Code); err != nil {
		report := validationReport{Valid: false, Error: err.Error()}
		var serr *pysyntax.SyntaxError
		if errors.As(err, &serr) {
			report.Line = serr.Line
		}
		return report, nil
	}
	return validationReport{Valid: true}, nil
}

func (s *Server) compareWithGit(ctx context.Context, in compareInput) (any, error) {
	return s.syncer.Compare(ctx, in.ComponentType, in.Name, in.GitExportedAt)
}
