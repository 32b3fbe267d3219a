package output

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/packc/internal/codegen"
	"github.com/roach88/packc/internal/config"
	"github.com/roach88/packc/internal/session"
	"github.com/roach88/packc/internal/testutil"
	"github.com/roach88/packc/internal/vfs"
)

const marker = `{"build_id":"b1","compiler":"packc test","fingerprint":"abc","namespace":"ns"}`

func testTree(lines ...string) *vfs.Tree {
	tree := vfs.New()
	tree.Attach(tree.Root(), tree.NewFile(codegen.MetaFile, []byte(`{"pack":{}}`)))
	tree.Attach(tree.Root(), tree.NewFile(codegen.MarkerFile, []byte(marker)))
	dir := tree.MkdirAll("data/ns/functions")
	tree.Attach(dir, tree.NewCommandFile("load", lines))
	return tree
}

func testSession(t *testing.T, backup bool) *session.Session {
	t.Helper()
	cfg := config.Defaults()
	cfg.Name = "demo"
	cfg.OutputDir = t.TempDir()
	cfg.Backup = backup
	return session.New(cfg, nil)
}

func readFile(t *testing.T, p string) string {
	t.Helper()
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	return string(data)
}

func TestWriteFreshTarget(t *testing.T) {
	sess := testSession(t, false)
	target, err := Write(sess, testTree("say hi"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(sess.Config.OutputDir, "demo"), target)
	assert.Equal(t, "say hi\n", readFile(t, filepath.Join(target, "data/ns/functions/load.mcfunction")))
	assert.Equal(t, marker, readFile(t, filepath.Join(target, codegen.MarkerFile)))
}

func TestWriteReplacesGeneratedPack(t *testing.T) {
	sess := testSession(t, false)
	target, err := Write(sess, testTree("say one"))
	require.NoError(t, err)
	stale := filepath.Join(target, "stale.txt")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o644))

	_, err = Write(sess, testTree("say two"))
	require.NoError(t, err)
	assert.Equal(t, "say two\n", readFile(t, filepath.Join(target, "data/ns/functions/load.mcfunction")))
	assert.NoFileExists(t, stale, "the old pack is removed first")
}

func TestWriteRefusesForeignDirectory(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{"no markers", map[string]string{"notes.txt": "mine"}},
		{"meta only", map[string]string{codegen.MetaFile: "{}", "notes.txt": "mine"}},
		{"bad marker", map[string]string{codegen.MetaFile: "{}", codegen.MarkerFile: "{}", "notes.txt": "mine"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := testSession(t, true)
			target := filepath.Join(sess.Config.OutputDir, "demo")
			require.NoError(t, os.MkdirAll(target, 0o755))
			for name, content := range tt.files {
				require.NoError(t, os.WriteFile(filepath.Join(target, name), []byte(content), 0o644))
			}

			_, err := Write(sess, testTree("say hi"))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnsafeOverwrite), err.Error())

			assert.Equal(t, "mine", readFile(t, filepath.Join(target, "notes.txt")), "nothing is touched")
			entries, err := os.ReadDir(sess.Config.OutputDir)
			require.NoError(t, err)
			assert.Len(t, entries, 1, "no backup is written")
		})
	}
}

func TestWriteRefusesFile(t *testing.T) {
	sess := testSession(t, false)
	require.NoError(t, os.WriteFile(filepath.Join(sess.Config.OutputDir, "demo"), []byte("x"), 0o644))
	_, err := Write(sess, testTree())
	assert.ErrorIs(t, err, ErrUnsafeOverwrite)
}

func TestWriteBackup(t *testing.T) {
	Now = testutil.NewDeterministicClock().Now
	t.Cleanup(func() { Now = time.Now })

	sess := testSession(t, true)
	_, err := Write(sess, testTree("say old"))
	require.NoError(t, err)
	_, err = Write(sess, testTree("say new"))
	require.NoError(t, err)

	archive := filepath.Join(sess.Config.OutputDir, "demo-20260102T030405Z.zip")
	zr, err := zip.OpenReader(archive)
	require.NoError(t, err)
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{codegen.MetaFile, codegen.MarkerFile, "data/ns/functions/load.mcfunction"}, names)
}
