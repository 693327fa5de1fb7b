package tools

import (
	"context"

	"github.com/gimsops/gims-mcp/gims"
)

func (s *Server) registerReferenceTools() {
	addTool(s, "list_value_types", "List the value types available for properties and parameters", s.listValueTypes)
	addTool(s, "list_property_sections", "List the sections available for grouping properties", s.listPropertySections)
}

func (s *Server) listValueTypes(ctx context.Context, _ emptyInput) (any, error) {
	vts, err := s.client.ListValueTypes(ctx)
	if err != nil {
		return nil, err
	}
	return map[string][]gims.ValueType{"value_types": vts}, nil
}

func (s *Server) listPropertySections(ctx context.Context, _ emptyInput) (any, error) {
	secs, err := s.client.ListPropertySections(ctx)
	if err != nil {
		return nil, err
	}
	return map[string][]gims.PropertySection{"property_sections": secs}, nil
}
