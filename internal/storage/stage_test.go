package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sir_venger/omnifileserve/internal/models"
)

func stage(t *testing.T, root *Root, rel, content string) (*Staged, ResolvedPath) {
	t.Helper()
	target, err := root.Resolve(rel)
	require.NoError(t, err)
	s, err := root.Stage(target)
	require.NoError(t, err)
	_, err = s.Fill(context.Background(), strings.NewReader(content))
	require.NoError(t, err)
	return s, target
}

func stagingFiles(t *testing.T, root *Root) []string {
	t.Helper()
	var out []string
	err := filepath.Walk(root.Dir(), func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if isStagingName(info.Name()) {
			out = append(out, p)
		}
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestStaged_CommitCreatesParents(t *testing.T) {
	root := newTestRoot(t)
	s, target := stage(t, root, "x/y/z.txt", "hello")

	require.NoError(t, s.Commit(target, false))
	s.Discard()

	b, err := os.ReadFile(target.Abs())
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
	assert.Empty(t, stagingFiles(t, root))
}

func TestStaged_NoOverwrite(t *testing.T) {
	root := newTestRoot(t)
	first, target := stage(t, root, "a.txt", "one")
	require.NoError(t, first.Commit(target, false))

	second, _ := stage(t, root, "a.txt", "two")
	err := second.Commit(target, false)
	require.ErrorIs(t, err, models.ErrAlreadyExists)
	second.Discard()

	b, err := os.ReadFile(target.Abs())
	require.NoError(t, err)
	assert.Equal(t, "one", string(b))
	assert.Empty(t, stagingFiles(t, root))
}

func TestStaged_Overwrite(t *testing.T) {
	root := newTestRoot(t)
	first, target := stage(t, root, "a.txt", "one")
	require.NoError(t, first.Commit(target, true))
	second, _ := stage(t, root, "a.txt", "two")
	require.NoError(t, second.Commit(target, true))

	b, err := os.ReadFile(target.Abs())
	require.NoError(t, err)
	assert.Equal(t, "two", string(b))
}

func TestStaged_DiscardRemovesFile(t *testing.T) {
	root := newTestRoot(t)
	s, target := stage(t, root, "a.txt", "data")
	require.Len(t, stagingFiles(t, root), 1)

	s.Discard()
	s.Discard()

	assert.Empty(t, stagingFiles(t, root))
	_, err := os.Stat(target.Abs())
	assert.True(t, os.IsNotExist(err))
}

func TestStaged_FillCancelled(t *testing.T) {
	root := newTestRoot(t)
	target, err := root.Resolve("a.txt")
	require.NoError(t, err)
	s, err := root.Stage(target)
	require.NoError(t, err)
	defer s.Discard()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Fill(ctx, strings.NewReader("data"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestStage_RootRejected(t *testing.T) {
	root := newTestRoot(t)
	target, err := root.Resolve("")
	require.NoError(t, err)

	_, err = root.Stage(target)
	require.ErrorIs(t, err, models.ErrIsDirectory)
}

func TestSweepOnce_RemovesStaleStaging(t *testing.T) {
	root := newTestRoot(t)
	writeTree(t, root, "keep.txt")

	stale, _ := stage(t, root, "d/old.txt", "x")
	fresh, _ := stage(t, root, "d/new.txt", "y")
	defer fresh.Discard()
	require.NoError(t, stale.f.Close())

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(stale.path, old, old))

	removed, err := SweepOnce(root, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(stale.path)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh.path)
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(root.Dir(), "keep.txt"))
	assert.NoError(t, err)
}

func TestUsage(t *testing.T) {
	root := newTestRoot(t)
	writeTree(t, root, "a.txt", "dir/bb.txt")
	s, _ := stage(t, root, "c.txt", "ignored")
	defer s.Discard()

	total, files, err := Usage(root)
	require.NoError(t, err)
	assert.Equal(t, 2, files)
	assert.Equal(t, int64(len("a.txt")+len("dir/bb.txt")), total)
}
