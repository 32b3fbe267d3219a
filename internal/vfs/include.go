package vfs

import (
	"errors"
	"io/fs"
	"path"

	"github.com/roach88/packc/internal/diag"
	"github.com/roach88/packc/internal/span"
)

// Include copies resource, a file or directory of fsys, into the folder at
// dest. at is the span of the include statement and is attached to every
// error.
func (t *Tree) Include(fsys fs.FS, resource, dest string, at span.Span) error {
	resource = path.Clean(resource)
	info, err := fs.Stat(fsys, resource)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
			return diag.Conversionf(diag.ErrIncludeMissing, at, "include resource %q does not exist", resource)
		}
		return diag.Conversionf(diag.ErrIncludeMissing, at, "include resource %q cannot be read: %v", resource, err)
	}

	folder := t.Root()
	for _, seg := range splitPath(dest) {
		next, ok := t.Child(folder, seg)
		if !ok {
			next = t.NewFolder(seg)
			t.Attach(folder, next)
		}
		if t.Kind(next) != Folder {
			return diag.Conversionf(diag.ErrIncludeNotFolder, at, "include destination %q is a file", t.Path(next))
		}
		folder = next
	}

	name := path.Base(resource)
	if _, clash := t.ChildFile(folder, name); clash {
		return diag.Conversionf(diag.ErrIncludeClash, at, "path clash: %s already exists", path.Join(t.Path(folder), name))
	}
	if !info.IsDir() {
		data, err := fs.ReadFile(fsys, resource)
		if err != nil {
			return diag.Conversionf(diag.ErrIncludeMissing, at, "include resource %q cannot be read: %v", resource, err)
		}
		t.Attach(folder, t.NewFile(name, data))
		return nil
	}
	return t.includeDir(fsys, resource, folder, at)
}

func (t *Tree) includeDir(fsys fs.FS, dir string, parent NodeID, at span.Span) error {
	top := t.NewFolder(path.Base(dir))
	t.Attach(parent, top)
	folders := map[string]NodeID{dir: top}
	return fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return diag.Conversionf(diag.ErrIncludeMissing, at, "include resource %q cannot be read: %v", p, err)
		}
		if p == dir {
			return nil
		}
		owner := folders[path.Dir(p)]
		if d.IsDir() {
			id := t.NewFolder(d.Name())
			t.Attach(owner, id)
			folders[p] = id
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return diag.Conversionf(diag.ErrIncludeMissing, at, "include resource %q cannot be read: %v", p, err)
		}
		t.Attach(owner, t.NewFile(d.Name(), data))
		return nil
	})
}
