// Package bundle converts GIMS components to and from their Git storage
// layout: a set of small YAML and Python documents keyed by relative path.
// The layout is stable so that diffs in version control stay readable.
package bundle

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/gimsops/gims-mcp/gims"
)

// Well-known document names and fallback values.
const (
	MetaFile       = "meta.yaml"
	CodeFile       = "code.py"
	PropertiesFile = "properties.yaml"
	ParamsFile     = "params.yaml"

	// NoCode marks a component whose code body was empty on export.
	NoCode = "# No code"

	// DefaultSection is the property section used when the source did not
	// name one.
	DefaultSection = "Основные"

	// DefaultVersion is used when a component carries no version of its own.
	DefaultVersion = "1.0"
)

// DocumentSet maps relative paths to file content. Method documents live
// under "methods/<label>/".
type DocumentSet map[string]string

// Meta is the top-level meta.yaml of an exported component.
type Meta struct {
	Name          string `yaml:"name"`
	Description   string `yaml:"description"`
	Version       string `yaml:"version"`
	GimsFolder    string `yaml:"gims_folder"`
	CodeFile      string `yaml:"code_file,omitempty"`
	ExportedAt    string `yaml:"exported_at"`
	ExportedFrom  string `yaml:"exported_from"`
	GimsUpdatedAt string `yaml:"gims_updated_at,omitempty"`
}

// PropertyDoc is one entry of properties.yaml. Value types and sections are
// stored by display name so the document survives moves between instances
// with different reference table ids.
type PropertyDoc struct {
	Name          string `yaml:"name"`
	Label         string `yaml:"label"`
	ValueType     string `yaml:"value_type"`
	DefaultValue  string `yaml:"default_value"`
	Section       string `yaml:"section"`
	IsRequired    bool   `yaml:"is_required"`
	IsHidden      bool   `yaml:"is_hidden"`
	IsInner       bool   `yaml:"is_inner"`
	Description   string `yaml:"description"`
	GimsUpdatedAt string `yaml:"gims_updated_at,omitempty"`
}

// ParameterDoc is one entry of a method's params.yaml.
type ParameterDoc struct {
	Label         string `yaml:"label"`
	InputType     bool   `yaml:"input_type"`
	ValueType     string `yaml:"value_type"`
	DefaultValue  string `yaml:"default_value"`
	Description   string `yaml:"description"`
	IsHidden      bool   `yaml:"is_hidden"`
	GimsUpdatedAt string `yaml:"gims_updated_at,omitempty"`
}

// MethodMeta is the meta.yaml of a datasource type method.
type MethodMeta struct {
	Name          string `yaml:"name"`
	Label         string `yaml:"label"`
	Description   string `yaml:"description"`
	CodeFile      string `yaml:"code_file"`
	ParamsFile    string `yaml:"params_file"`
	GimsUpdatedAt string `yaml:"gims_updated_at,omitempty"`
}

type propertiesDoc struct {
	Properties []PropertyDoc `yaml:"properties"`
}

type parametersDoc struct {
	Parameters []ParameterDoc `yaml:"parameters"`
}

// MethodExport pairs a method with its parameters for export.
type MethodExport struct {
	Method     gims.Method
	Parameters []gims.Parameter
}

// MethodBundle is a parsed method directory.
type MethodBundle struct {
	Meta       MethodMeta
	Code       string
	Parameters []ParameterDoc
}

// DatasourceBundle is a parsed datasource type document set.
type DatasourceBundle struct {
	Meta       Meta
	Properties []PropertyDoc
	Methods    []MethodBundle
}

// ActivatorBundle is a parsed activator type document set.
type ActivatorBundle struct {
	Meta       Meta
	Code       string
	Properties []PropertyDoc
}

var lower = cases.Lower(language.Und)

// Slug derives a Git directory name from a component name: lowercased with
// spaces replaced by underscores. Lowercasing is Unicode-aware so Cyrillic
// names produce usable slugs.
func Slug(name string) string {
	return strings.ReplaceAll(lower.String(name), " ", "_")
}

// ExportScript renders a script as meta.yaml plus code.py. folderPath is the
// script's resolved folder path and sourceURL the instance it came from.
func ExportScript(s *gims.Script, folderPath, sourceURL string, now time.Time) (DocumentSet, error) {
	meta := Meta{
		Name:          s.Name,
		Description:   s.Description,
		Version:       DefaultVersion,
		GimsFolder:    orRoot(folderPath),
		CodeFile:      CodeFile,
		ExportedAt:    now.UTC().Format(time.RFC3339),
		ExportedFrom:  sourceURL,
		GimsUpdatedAt: s.UpdatedAt,
	}
	metaYAML, err := yaml.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal script meta: %w", err)
	}
	return DocumentSet{
		MetaFile: string(metaYAML),
		CodeFile: s.Code,
	}, nil
}

// ExportDatasourceType renders a datasource type with its properties and
// methods. Methods are emitted in label order so repeated exports produce
// identical document sets.
func ExportDatasourceType(t *gims.DatasourceType, folderPath string, props []gims.Property, methods []MethodExport, sourceURL string, now time.Time) (DocumentSet, error) {
	meta := Meta{
		Name:          t.Name,
		Description:   t.Description,
		Version:       orVersion(t.Version),
		GimsFolder:    orRoot(folderPath),
		ExportedAt:    now.UTC().Format(time.RFC3339),
		ExportedFrom:  sourceURL,
		GimsUpdatedAt: t.UpdatedAt,
	}
	docs := DocumentSet{}
	metaYAML, err := yaml.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal type meta: %w", err)
	}
	docs[MetaFile] = string(metaYAML)

	propsYAML, err := marshalProperties(props)
	if err != nil {
		return nil, err
	}
	docs[PropertiesFile] = propsYAML

	sorted := make([]MethodExport, len(methods))
	copy(sorted, methods)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Method.Label < sorted[j].Method.Label })

	for _, m := range sorted {
		dir := "methods/" + m.Method.Label
		mm := MethodMeta{
			Name:          m.Method.Name,
			Label:         m.Method.Label,
			Description:   m.Method.Description,
			CodeFile:      CodeFile,
			ParamsFile:    ParamsFile,
			GimsUpdatedAt: m.Method.UpdatedAt,
		}
		mmYAML, err := yaml.Marshal(mm)
		if err != nil {
			return nil, fmt.Errorf("marshal method %q meta: %w", m.Method.Label, err)
		}
		docs[dir+"/"+MetaFile] = string(mmYAML)
		docs[dir+"/"+CodeFile] = orNoCode(m.Method.Code)

		params := parametersDoc{Parameters: make([]ParameterDoc, 0, len(m.Parameters))}
		for _, p := range m.Parameters {
			params.Parameters = append(params.Parameters, ParameterDoc{
				Label:         p.Label,
				InputType:     p.InputType,
				ValueType:     p.ValueTypeName,
				DefaultValue:  p.DefaultValue,
				Description:   p.Description,
				IsHidden:      p.IsHidden,
				GimsUpdatedAt: p.UpdatedAt,
			})
		}
		paramsYAML, err := yaml.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal method %q params: %w", m.Method.Label, err)
		}
		docs[dir+"/"+ParamsFile] = string(paramsYAML)
	}
	return docs, nil
}

// ExportActivatorType renders an activator type with its code body and
// properties.
func ExportActivatorType(t *gims.ActivatorType, folderPath string, props []gims.Property, sourceURL string, now time.Time) (DocumentSet, error) {
	meta := Meta{
		Name:          t.Name,
		Description:   t.Description,
		Version:       orVersion(t.Version),
		GimsFolder:    orRoot(folderPath),
		CodeFile:      CodeFile,
		ExportedAt:    now.UTC().Format(time.RFC3339),
		ExportedFrom:  sourceURL,
		GimsUpdatedAt: t.UpdatedAt,
	}
	metaYAML, err := yaml.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal type meta: %w", err)
	}
	propsYAML, err := marshalProperties(props)
	if err != nil {
		return nil, err
	}
	return DocumentSet{
		MetaFile:       string(metaYAML),
		CodeFile:       orNoCode(t.Code),
		PropertiesFile: propsYAML,
	}, nil
}

func marshalProperties(props []gims.Property) (string, error) {
	doc := propertiesDoc{Properties: make([]PropertyDoc, 0, len(props))}
	for _, p := range props {
		doc.Properties = append(doc.Properties, PropertyDoc{
			Name:          p.Name,
			Label:         p.Label,
			ValueType:     p.ValueTypeName,
			DefaultValue:  p.DefaultValue,
			Section:       orSection(p.SectionName),
			IsRequired:    p.IsRequired,
			IsHidden:      p.IsHidden,
			IsInner:       p.IsInner,
			Description:   p.Description,
			GimsUpdatedAt: p.UpdatedAt,
		})
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal properties: %w", err)
	}
	return string(out), nil
}

// ParseMeta decodes a meta.yaml document.
func ParseMeta(metaYAML string) (*Meta, error) {
	var meta Meta
	if err := yaml.Unmarshal([]byte(metaYAML), &meta); err != nil {
		return nil, fmt.Errorf("parse %s: %w", MetaFile, err)
	}
	return &meta, nil
}

// ParseDatasourceType reassembles a datasource type from its document set.
// Method directories without a meta.yaml are skipped; methods come back in
// label order.
func ParseDatasourceType(docs DocumentSet) (*DatasourceBundle, error) {
	b := &DatasourceBundle{}
	if raw, ok := docs[MetaFile]; ok {
		meta, err := ParseMeta(raw)
		if err != nil {
			return nil, err
		}
		b.Meta = *meta
	}
	props, err := parseProperties(docs)
	if err != nil {
		return nil, err
	}
	b.Properties = props

	labels := methodLabels(docs)
	for _, label := range labels {
		dir := "methods/" + label
		rawMeta, ok := docs[dir+"/"+MetaFile]
		if !ok {
			continue
		}
		var mm MethodMeta
		if err := yaml.Unmarshal([]byte(rawMeta), &mm); err != nil {
			return nil, fmt.Errorf("parse method %q meta: %w", label, err)
		}
		if mm.Name == "" {
			mm.Name = label
		}
		if mm.Label == "" {
			mm.Label = label
		}
		mb := MethodBundle{Meta: mm, Code: NoCode}
		if code, ok := docs[dir+"/"+CodeFile]; ok {
			mb.Code = code
		}
		if rawParams, ok := docs[dir+"/"+ParamsFile]; ok {
			var pd parametersDoc
			if err := yaml.Unmarshal([]byte(rawParams), &pd); err != nil {
				return nil, fmt.Errorf("parse method %q params: %w", label, err)
			}
			mb.Parameters = pd.Parameters
		}
		b.Methods = append(b.Methods, mb)
	}
	return b, nil
}

// ParseActivatorType reassembles an activator type from its document set.
func ParseActivatorType(docs DocumentSet) (*ActivatorBundle, error) {
	b := &ActivatorBundle{Code: NoCode}
	if raw, ok := docs[MetaFile]; ok {
		meta, err := ParseMeta(raw)
		if err != nil {
			return nil, err
		}
		b.Meta = *meta
	}
	if code, ok := docs[CodeFile]; ok {
		b.Code = code
	}
	props, err := parseProperties(docs)
	if err != nil {
		return nil, err
	}
	b.Properties = props
	return b, nil
}

func parseProperties(docs DocumentSet) ([]PropertyDoc, error) {
	raw, ok := docs[PropertiesFile]
	if !ok {
		return nil, nil
	}
	var pd propertiesDoc
	if err := yaml.Unmarshal([]byte(raw), &pd); err != nil {
		return nil, fmt.Errorf("parse %s: %w", PropertiesFile, err)
	}
	return pd.Properties, nil
}

// methodLabels collects the distinct method directory names, sorted.
func methodLabels(docs DocumentSet) []string {
	seen := map[string]bool{}
	for path := range docs {
		rest, ok := strings.CutPrefix(path, "methods/")
		if !ok {
			continue
		}
		label, _, ok := strings.Cut(rest, "/")
		if !ok || label == "" {
			continue
		}
		seen[label] = true
	}
	labels := make([]string, 0, len(seen))
	for label := range seen {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

func orRoot(path string) string {
	if path == "" {
		return "/"
	}
	return path
}

func orSection(s string) string {
	if s == "" {
		return DefaultSection
	}
	return s
}

func orVersion(v string) string {
	if v == "" {
		return DefaultVersion
	}
	return v
}

func orNoCode(code string) string {
	if code == "" {
		return NoCode
	}
	return code
}
