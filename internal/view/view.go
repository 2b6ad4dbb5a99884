// Package view turns store state into terminal output. It sorts and
// filters client-side, so server ordering never matters.
package view

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/transferdesk/transferdesk/pkg/models"
)

// Crumb is one breadcrumb segment.
type Crumb struct {
	Name string
	Path string
}

// Breadcrumbs splits p into navigable segments, starting with the root.
func Breadcrumbs(p string) []Crumb {
	crumbs := []Crumb{{Name: "Home", Path: "/"}}
	cur := "/"
	for _, part := range strings.Split(path.Clean("/"+p), "/") {
		if part == "" {
			continue
		}
		cur = path.Join(cur, part)
		crumbs = append(crumbs, Crumb{Name: part, Path: cur})
	}
	return crumbs
}

// FormatBreadcrumbs renders crumbs as "Home > a > b".
func FormatBreadcrumbs(p string) string {
	crumbs := Breadcrumbs(p)
	names := make([]string, len(crumbs))
	for i, c := range crumbs {
		names[i] = c.Name
	}
	return strings.Join(names, " > ")
}

// SortField is the column a listing is sorted by.
type SortField string

const (
	SortName SortField = "name"
	SortSize SortField = "size"
	SortDate SortField = "date"
)

// Order is a sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// ParseSort parses "name", "size", "date", optionally followed by
// ":asc" or ":desc".
func ParseSort(s string) (SortField, Order, error) {
	field, order, _ := strings.Cut(strings.ToLower(strings.TrimSpace(s)), ":")
	if order == "" {
		order = string(Asc)
	}
	switch SortField(field) {
	case SortName, SortSize, SortDate:
	default:
		return "", "", fmt.Errorf("unknown sort field %q (want name, size or date)", field)
	}
	switch Order(order) {
	case Asc, Desc:
	default:
		return "", "", fmt.Errorf("unknown sort order %q (want asc or desc)", order)
	}
	return SortField(field), Order(order), nil
}

// Sort returns entries ordered by field. Folders always come first.
func Sort(entries []models.FileEntry, field SortField, order Order) []models.FileEntry {
	out := append([]models.FileEntry(nil), entries...)
	less := func(a, b models.FileEntry) bool {
		switch field {
		case SortSize:
			if a.Size != b.Size {
				return a.Size < b.Size
			}
		case SortDate:
			if !a.ModifiedAt.Equal(b.ModifiedAt.Time) {
				return a.ModifiedAt.Before(b.ModifiedAt.Time)
			}
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.IsFolder() != b.IsFolder() {
			return a.IsFolder()
		}
		if order == Desc {
			return less(b, a)
		}
		return less(a, b)
	})
	return out
}

// TypeFilter limits a listing to one kind of entry.
type TypeFilter string

const (
	FilterAll       TypeFilter = "all"
	FilterFolders   TypeFilter = "folders"
	FilterFiles     TypeFilter = "files"
	FilterImages    TypeFilter = "images"
	FilterDocuments TypeFilter = "documents"
	FilterArchives  TypeFilter = "archives"
	FilterMedia     TypeFilter = "media"
)

var categories = map[TypeFilter][]string{
	FilterImages:    {"jpg", "jpeg", "png", "gif", "bmp", "svg", "webp", "tiff", "ico"},
	FilterDocuments: {"pdf", "doc", "docx", "txt", "rtf", "odt", "xls", "xlsx", "csv", "ppt", "pptx", "md"},
	FilterArchives:  {"zip", "rar", "7z", "tar", "gz", "bz2", "xz", "tgz"},
	FilterMedia:     {"mp3", "wav", "flac", "ogg", "aac", "mp4", "avi", "mov", "mkv", "webm"},
}

// ParseFilter validates a filter name.
func ParseFilter(s string) (TypeFilter, error) {
	f := TypeFilter(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterFolders, FilterFiles, FilterImages, FilterDocuments, FilterArchives, FilterMedia:
		return f, nil
	}
	return "", fmt.Errorf("unknown filter %q", s)
}

// Matches reports whether e passes the filter.
func (f TypeFilter) Matches(e models.FileEntry) bool {
	switch f {
	case FilterAll, "":
		return true
	case FilterFolders:
		return e.IsFolder()
	case FilterFiles:
		return !e.IsFolder()
	}
	if e.IsFolder() {
		return false
	}
	ext := e.Ext()
	for _, x := range categories[f] {
		if x == ext {
			return true
		}
	}
	return false
}

// Filter returns the entries that pass f.
func Filter(entries []models.FileEntry, f TypeFilter) []models.FileEntry {
	out := make([]models.FileEntry, 0, len(entries))
	for _, e := range entries {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}

// Size formats a byte count with binary units.
func Size(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 4; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTP"[exp])
}
