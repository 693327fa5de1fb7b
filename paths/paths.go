// Package paths reconstructs hierarchical folder paths from the flat
// parent-pointer lists the GIMS API returns, and attaches the computed
// paths to dependent items for human-readable addressing.
package paths

import (
	"strings"

	"github.com/gimsops/gims-mcp/gims"
)

// maxDepth bounds the upward parent walk. The remote system is assumed to
// prevent cycles, but a corrupted parent chain must not hang the resolver.
const maxDepth = 64

// RootNote explains the synthetic root entry to tool consumers.
const RootNote = "Root folder. Items with folder_id=null are placed here."

// Entry is a folder with its computed absolute path. The synthetic root
// entry has a nil ID and path "/".
type Entry struct {
	ID             *int64 `json:"id"`
	Name           string `json:"name"`
	ParentFolderID *int64 `json:"parent_folder_id"`
	Path           string `json:"path"`
	IsRoot         bool   `json:"is_root,omitempty"`
	Note           string `json:"note,omitempty"`
}

// Attach computes absolute paths for a flat folder list. Each folder's path
// is "/" followed by its ancestor names root-to-leaf and its own name. When
// includeRoot is set, a synthetic root entry (nil id, path "/") is prepended
// so items without a folder reference can be addressed uniformly.
func Attach(folders []gims.Folder, includeRoot bool) []Entry {
	byID := make(map[int64]gims.Folder, len(folders))
	for _, f := range folders {
		byID[f.ID] = f
	}

	out := make([]Entry, 0, len(folders)+1)
	if includeRoot {
		out = append(out, Entry{Name: "/", Path: "/", IsRoot: true, Note: RootNote})
	}
	for _, f := range folders {
		id := f.ID
		out = append(out, Entry{
			ID:             &id,
			Name:           f.Name,
			ParentFolderID: f.ParentFolderID,
			Path:           folderPath(f, byID),
		})
	}
	return out
}

// folderPath walks the parent chain upward, prepending ancestor names. The
// walk is depth-bounded so a self-referential chain terminates.
func folderPath(f gims.Folder, byID map[int64]gims.Folder) string {
	parts := []string{f.Name}
	parent := f.ParentFolderID
	for depth := 0; parent != nil && depth < maxDepth; depth++ {
		p, ok := byID[*parent]
		if !ok {
			break
		}
		parts = append([]string{p.Name}, parts...)
		parent = p.ParentFolderID
	}
	return "/" + strings.Join(parts, "/")
}

// ItemPath returns the absolute path of an item: its folder's path plus the
// item name. An item with no folder reference, or one whose reference does
// not resolve, falls back to root-relative.
func ItemPath(name string, folderID *int64, entries []Entry) string {
	if folderID != nil {
		for _, e := range entries {
			if e.ID != nil && *e.ID == *folderID {
				return e.Path + "/" + name
			}
		}
	}
	return "/" + name
}

// Lookup returns the path of the folder with the given id, or "/" when the
// id is nil or unknown.
func Lookup(folderID *int64, entries []Entry) string {
	if folderID == nil {
		return "/"
	}
	for _, e := range entries {
		if e.ID != nil && *e.ID == *folderID {
			return e.Path
		}
	}
	return "/"
}
