package gitsync

import (
	"context"
	"fmt"
	"time"
)

// Component kinds accepted by Compare.
const (
	ComponentScript         = "script"
	ComponentDatasourceType = "datasource_type"
	ComponentActivatorType  = "activator_type"
)

// Compare statuses.
const (
	StatusGimsNewer   = "gims_newer"
	StatusGitNewer    = "git_newer"
	StatusInSync      = "in_sync"
	StatusNotFound    = "not_found_in_gims"
	StatusNoUpdatedAt = "no_updated_at"
	StatusBadGimsDate = "invalid_gims_date"
)

// CompareResult reports which side of a Git export is fresher.
type CompareResult struct {
	Status         string `json:"status"`
	GimsUpdatedAt  string `json:"gims_updated_at,omitempty"`
	GitExportedAt  string `json:"git_exported_at,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
	Message        string `json:"message"`
}

// Compare checks a component's updated_at in GIMS against the exported_at
// stamp recorded in its Git meta.yaml. A malformed git stamp is an error;
// problems on the GIMS side come back as statuses so the caller can still
// act on them.
func (s *Syncer) Compare(ctx context.Context, componentType, name, gitExportedAt string) (*CompareResult, error) {
	gitDate, err := parseStamp(gitExportedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid git export date %q: %w", gitExportedAt, err)
	}

	updatedAt, found, err := s.componentUpdatedAt(ctx, componentType, name)
	if err != nil {
		return nil, err
	}
	if !found {
		return &CompareResult{
			Status:         StatusNotFound,
			Recommendation: "import",
			Message:        fmt.Sprintf("component %q does not exist in GIMS; import it", name),
		}, nil
	}
	if updatedAt == "" {
		return &CompareResult{
			Status:         StatusNoUpdatedAt,
			Recommendation: "manual_check",
			Message:        "the GIMS component has no updated_at stamp; comparison is not possible",
		}, nil
	}
	gimsDate, err := parseStamp(updatedAt)
	if err != nil {
		return &CompareResult{
			Status:         StatusBadGimsDate,
			Recommendation: "manual_check",
			Message:        fmt.Sprintf("GIMS reports a malformed updated_at stamp: %q", updatedAt),
		}, nil
	}

	res := &CompareResult{GimsUpdatedAt: updatedAt, GitExportedAt: gitExportedAt}
	switch {
	case gimsDate.After(gitDate):
		res.Status = StatusGimsNewer
		res.Recommendation = "export"
		res.Message = "the GIMS version is newer; export it to Git"
	case gimsDate.Before(gitDate):
		res.Status = StatusGitNewer
		res.Recommendation = "import"
		res.Message = "the Git version is newer; import it into GIMS"
	default:
		res.Status = StatusInSync
		res.Message = "both versions carry the same stamp"
	}
	return res, nil
}

func (s *Syncer) componentUpdatedAt(ctx context.Context, componentType, name string) (updatedAt string, found bool, err error) {
	switch componentType {
	case ComponentScript:
		scripts, err := s.client.ListScripts(ctx, nil)
		if err != nil {
			return "", false, err
		}
		for _, c := range scripts {
			if c.Name == name {
				return c.UpdatedAt, true, nil
			}
		}
	case ComponentDatasourceType:
		types, err := s.client.ListDatasourceTypes(ctx)
		if err != nil {
			return "", false, err
		}
		for _, c := range types {
			if c.Name == name {
				return c.UpdatedAt, true, nil
			}
		}
	case ComponentActivatorType:
		types, err := s.client.ListActivatorTypes(ctx)
		if err != nil {
			return "", false, err
		}
		for _, c := range types {
			if c.Name == name {
				return c.UpdatedAt, true, nil
			}
		}
	default:
		return "", false, fmt.Errorf("unknown component type %q", componentType)
	}
	return "", false, nil
}

// parseStamp accepts RFC 3339 stamps and zone-less ISO stamps, which some
// instances emit. Zone-less stamps are read as UTC.
func parseStamp(stamp string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, stamp); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05.999999999", stamp, time.UTC)
}
