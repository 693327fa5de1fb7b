package gitsync

import (
	"context"
	"fmt"

	"github.com/gimsops/gims-mcp/bundle"
	"github.com/gimsops/gims-mcp/gims"
	"github.com/gimsops/gims-mcp/pysyntax"
)

// Fallback names for documents whose meta.yaml carries no name.
const (
	unnamedScript = "Unnamed Script"
	unnamedType   = "Unnamed Type"
)

// ImportScript reconciles a script document against the instance. The code
// is validated before anything is sent; a name collision without
// UpdateExisting is reported as a conflict and mutates nothing.
func (s *Syncer) ImportScript(ctx context.Context, metaYAML, code string, opts ImportOptions) (*Outcome, error) {
	if err := pysyntax.Validate(code); err != nil {
		return nil, fmt.Errorf("python syntax: %w", err)
	}
	meta, err := bundle.ParseMeta(metaYAML)
	if err != nil {
		return nil, err
	}
	name := pickName(opts.TargetName, meta.Name, unnamedScript)

	scripts, err := s.client.ListScripts(ctx, nil)
	if err != nil {
		return nil, err
	}
	var existing *gims.Script
	for i := range scripts {
		if scripts[i].Name == name {
			existing = &scripts[i]
			break
		}
	}

	switch {
	case existing != nil && !opts.UpdateExisting:
		return conflictOutcome(name, existing.ID), nil
	case existing != nil:
		updated, err := s.client.UpdateScript(ctx, existing.ID, gims.UpdateScriptParams{Code: &code})
		if err != nil {
			return nil, err
		}
		return &Outcome{Action: ActionUpdated, ID: updated.ID, Name: name}, nil
	default:
		created, err := s.client.CreateScript(ctx, gims.CreateScriptParams{
			Name:     name,
			Code:     code,
			FolderID: opts.TargetFolderID,
		})
		if err != nil {
			return nil, err
		}
		return &Outcome{Action: ActionCreated, ID: created.ID, Name: name}, nil
	}
}

// ImportDatasourceType reconciles a datasource type document set. Every
// method code body is validated up front; one bad method fails the whole
// import before any request is made. On create the type's properties,
// methods and parameters are recreated on the target, resolving value type
// and section names against its reference tables; failures of individual
// children are collected rather than aborting the import.
func (s *Syncer) ImportDatasourceType(ctx context.Context, docs bundle.DocumentSet, opts ImportOptions) (*Outcome, error) {
	b, err := bundle.ParseDatasourceType(docs)
	if err != nil {
		return nil, err
	}
	for _, m := range b.Methods {
		if err := pysyntax.Validate(m.Code); err != nil {
			return nil, fmt.Errorf("method %q: python syntax: %w", m.Meta.Label, err)
		}
	}
	name := pickName(opts.TargetName, b.Meta.Name, unnamedType)

	types, err := s.client.ListDatasourceTypes(ctx)
	if err != nil {
		return nil, err
	}
	var existing *gims.DatasourceType
	for i := range types {
		if types[i].Name == name {
			existing = &types[i]
			break
		}
	}

	if existing != nil && !opts.UpdateExisting {
		return conflictOutcome(name, existing.ID), nil
	}

	version := b.Meta.Version
	if version == "" {
		version = bundle.DefaultVersion
	}

	if existing != nil {
		_, err := s.client.UpdateDatasourceType(ctx, existing.ID, gims.UpdateDatasourceTypeParams{
			Description: &b.Meta.Description,
			Version:     &version,
		})
		if err != nil {
			return nil, err
		}
		return &Outcome{
			Action: ActionUpdated,
			ID:     existing.ID,
			Name:   name,
			Note:   "description and version updated; existing properties and methods were not modified",
		}, nil
	}

	created, err := s.client.CreateDatasourceType(ctx, gims.CreateDatasourceTypeParams{
		Name:        name,
		Description: b.Meta.Description,
		Version:     version,
	})
	if err != nil {
		return nil, err
	}

	childErrs := s.createDatasourceChildren(ctx, created.ID, b)
	out := &Outcome{Action: ActionCreated, ID: created.ID, Name: name, ChildErrors: childErrs}
	if len(childErrs) > 0 {
		out.Note = "created, but some properties or methods could not be recreated"
	}
	return out, nil
}

// ImportActivatorType reconciles an activator type document set. The code
// body is validated up front. On create the properties are recreated on
// the target the same way ImportDatasourceType does it.
func (s *Syncer) ImportActivatorType(ctx context.Context, docs bundle.DocumentSet, opts ImportOptions) (*Outcome, error) {
	b, err := bundle.ParseActivatorType(docs)
	if err != nil {
		return nil, err
	}
	if err := pysyntax.Validate(b.Code); err != nil {
		return nil, fmt.Errorf("python syntax: %w", err)
	}
	name := pickName(opts.TargetName, b.Meta.Name, unnamedType)

	types, err := s.client.ListActivatorTypes(ctx)
	if err != nil {
		return nil, err
	}
	var existing *gims.ActivatorType
	for i := range types {
		if types[i].Name == name {
			existing = &types[i]
			break
		}
	}

	if existing != nil && !opts.UpdateExisting {
		return conflictOutcome(name, existing.ID), nil
	}

	version := b.Meta.Version
	if version == "" {
		version = bundle.DefaultVersion
	}

	if existing != nil {
		_, err := s.client.UpdateActivatorType(ctx, existing.ID, gims.UpdateActivatorTypeParams{
			Code:        &b.Code,
			Description: &b.Meta.Description,
			Version:     &version,
		})
		if err != nil {
			return nil, err
		}
		return &Outcome{
			Action: ActionUpdated,
			ID:     existing.ID,
			Name:   name,
			Note:   "code, description and version updated; existing properties were not modified",
		}, nil
	}

	created, err := s.client.CreateActivatorType(ctx, gims.CreateActivatorTypeParams{
		Name:        name,
		Code:        b.Code,
		Description: b.Meta.Description,
		Version:     version,
	})
	if err != nil {
		return nil, err
	}

	var childErrs []string
	if len(b.Properties) > 0 {
		tables, err := s.loadRefTables(ctx)
		if err != nil {
			childErrs = append(childErrs, err.Error())
		} else {
			for _, p := range b.Properties {
				params, err := propertyParams(p, tables)
				if err != nil {
					childErrs = append(childErrs, fmt.Sprintf("property %q: %v", p.Name, err))
					continue
				}
				params.ActivatorTypeID = &created.ID
				if _, err := s.client.CreateActivatorTypeProperty(ctx, params); err != nil {
					childErrs = append(childErrs, fmt.Sprintf("property %q: %v", p.Name, err))
				}
			}
		}
	}
	out := &Outcome{Action: ActionCreated, ID: created.ID, Name: name, ChildErrors: childErrs}
	if len(childErrs) > 0 {
		out.Note = "created, but some properties could not be recreated"
	}
	return out, nil
}

// createDatasourceChildren recreates properties, methods and method
// parameters under a freshly created type. Each failure is recorded and the
// rest of the children still get their chance.
func (s *Syncer) createDatasourceChildren(ctx context.Context, typeID int64, b *bundle.DatasourceBundle) []string {
	if len(b.Properties) == 0 && len(b.Methods) == 0 {
		return nil
	}
	tables, err := s.loadRefTables(ctx)
	if err != nil {
		return []string{err.Error()}
	}

	var errs []string
	for _, p := range b.Properties {
		params, err := propertyParams(p, tables)
		if err != nil {
			errs = append(errs, fmt.Sprintf("property %q: %v", p.Name, err))
			continue
		}
		params.MDSTypeID = &typeID
		if _, err := s.client.CreateDatasourceTypeProperty(ctx, params); err != nil {
			errs = append(errs, fmt.Sprintf("property %q: %v", p.Name, err))
		}
	}

	for _, m := range b.Methods {
		created, err := s.client.CreateDatasourceTypeMethod(ctx, gims.CreateMethodParams{
			MDSTypeID:   typeID,
			Name:        m.Meta.Name,
			Label:       m.Meta.Label,
			Code:        m.Code,
			Description: m.Meta.Description,
		})
		if err != nil {
			errs = append(errs, fmt.Sprintf("method %q: %v", m.Meta.Label, err))
			continue
		}
		for _, p := range m.Parameters {
			vt, err := tables.valueTypeID(p.ValueType)
			if err != nil {
				errs = append(errs, fmt.Sprintf("method %q parameter %q: %v", m.Meta.Label, p.Label, err))
				continue
			}
			_, err = s.client.CreateMethodParameter(ctx, gims.CreateParameterParams{
				MethodID:     created.ID,
				Label:        p.Label,
				ValueTypeID:  vt,
				InputType:    p.InputType,
				DefaultValue: p.DefaultValue,
				Description:  p.Description,
				IsHidden:     p.IsHidden,
			})
			if err != nil {
				errs = append(errs, fmt.Sprintf("method %q parameter %q: %v", m.Meta.Label, p.Label, err))
			}
		}
	}
	return errs
}

// propertyParams resolves a property document's reference names against the
// target instance's tables. An empty section falls back to the default.
func propertyParams(p bundle.PropertyDoc, tables *refTables) (gims.CreatePropertyParams, error) {
	section := p.Section
	if section == "" {
		section = bundle.DefaultSection
	}
	vt, err := tables.valueTypeID(p.ValueType)
	if err != nil {
		return gims.CreatePropertyParams{}, err
	}
	sec, err := tables.sectionID(section)
	if err != nil {
		return gims.CreatePropertyParams{}, err
	}
	return gims.CreatePropertyParams{
		Name:          p.Name,
		Label:         p.Label,
		ValueTypeID:   vt,
		SectionNameID: sec,
		Description:   p.Description,
		DefaultValue:  p.DefaultValue,
		IsRequired:    p.IsRequired,
		IsHidden:      p.IsHidden,
	}, nil
}

func pickName(override, fromMeta, fallback string) string {
	if override != "" {
		return override
	}
	if fromMeta != "" {
		return fromMeta
	}
	return fallback
}
