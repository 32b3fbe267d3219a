// Package output materialises a generated tree on disk.
package output

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/roach88/packc/internal/codegen"
	"github.com/roach88/packc/internal/session"
	"github.com/roach88/packc/internal/vfs"
)

// ErrUnsafeOverwrite is returned when the target directory exists but was
// not produced by packc. Nothing is touched in that case.
var ErrUnsafeOverwrite = errors.New("refusing to overwrite a directory that was not generated by packc")

// Now is the clock used for backup names.
var Now = time.Now

// Write materialises tree at <OutputDir>/<Name> and returns that path.
// An existing pack is replaced, after being zipped beside it when the
// configuration asks for a backup.
func Write(sess *session.Session, tree *vfs.Tree) (string, error) {
	cfg := sess.Config
	target := filepath.Join(cfg.OutputDir, cfg.Name)

	info, err := os.Stat(target)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return "", fmt.Errorf("stat %s: %w", target, err)
	case !info.IsDir():
		return "", fmt.Errorf("%s: %w", target, ErrUnsafeOverwrite)
	default:
		if err := checkMarkers(target); err != nil {
			return "", err
		}
		if cfg.Backup {
			archive := filepath.Join(cfg.OutputDir, fmt.Sprintf("%s-%s.zip", cfg.Name, Now().UTC().Format("20060102T150405Z")))
			if err := Backup(target, archive); err != nil {
				return "", err
			}
			sess.Logger.Info("backed up", "archive", archive)
		}
		if err := os.RemoveAll(target); err != nil {
			return "", fmt.Errorf("remove %s: %w", target, err)
		}
	}

	files := 0
	var werr error
	tree.Walk(func(id vfs.NodeID, p string) bool {
		if werr != nil {
			return false
		}
		dst := filepath.Join(target, filepath.FromSlash(p))
		if tree.Kind(id) == vfs.Folder {
			werr = os.MkdirAll(dst, 0o755)
			return true
		}
		if werr = os.MkdirAll(filepath.Dir(dst), 0o755); werr == nil {
			werr = os.WriteFile(dst, tree.Data(id), 0o644)
			files++
		}
		return true
	})
	if werr != nil {
		return "", fmt.Errorf("write %s: %w", target, werr)
	}
	sess.Logger.Info("written", "path", target, "files", files)
	return target, nil
}

// checkMarkers requires both generated marker files in dir.
func checkMarkers(dir string) error {
	for _, name := range []string{codegen.MetaFile, codegen.MarkerFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("%s has no %s: %w", dir, name, ErrUnsafeOverwrite)
		}
	}
	data, err := os.ReadFile(filepath.Join(dir, codegen.MarkerFile))
	if err != nil {
		return fmt.Errorf("read marker: %w", err)
	}
	if _, err := codegen.ReadMarker(data); err != nil {
		return fmt.Errorf("%s: %v: %w", dir, err, ErrUnsafeOverwrite)
	}
	return nil
}

// Backup zips the directory dir into archive, with paths relative to dir.
func Backup(dir, archive string) (err error) {
	f, err := os.Create(archive)
	if err != nil {
		return fmt.Errorf("create backup: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close backup: %w", cerr)
		}
	}()

	zw := zip.NewWriter(f)
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		src, err := os.Open(p)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(w, src)
		return err
	})
	if err != nil {
		return fmt.Errorf("backup %s: %w", dir, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("backup %s: %w", dir, err)
	}
	return nil
}
