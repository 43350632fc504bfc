package filesvc

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sir_venger/omnifileserve/internal/models"
	"github.com/sir_venger/omnifileserve/internal/storage"
)

func newTestService(t *testing.T) (*Files, *storage.Root) {
	t.Helper()
	root, err := storage.NewRoot(t.TempDir())
	require.NoError(t, err)
	return New(Deps{Root: root}), root
}

func TestCreateRead_RoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rel, err := svc.Create(ctx, "notes/todo.txt", strings.NewReader("buy milk"))
	require.NoError(t, err)
	assert.Equal(t, "notes/todo.txt", rel)

	got, err := svc.Read(ctx, "notes/todo.txt")
	require.NoError(t, err)
	assert.Equal(t, models.StoredFile{Path: "notes/todo.txt", Content: "buy milk"}, got)
}

func TestCreate_NormalizesPath(t *testing.T) {
	svc, _ := newTestService(t)

	rel, err := svc.Create(context.Background(), "/a/../b.txt", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "b.txt", rel)
}

func TestCreate_AlreadyExists(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "a.txt", strings.NewReader("one"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, "a.txt", strings.NewReader("two"))
	require.ErrorIs(t, err, models.ErrAlreadyExists)

	got, err := svc.Read(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "one", got.Content)
}

func TestCreate_ConcurrentSamePathOnlyOneWins(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	const writers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(ctx, "race.txt", strings.NewReader("payload"))
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, models.ErrAlreadyExists)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
}

func TestReplace_OverwritesAndCreates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rel, err := svc.Replace(ctx, "deep/new.txt", strings.NewReader("first"))
	require.NoError(t, err)
	assert.Equal(t, "deep/new.txt", rel)

	_, err = svc.Replace(ctx, "deep/new.txt", strings.NewReader("second"))
	require.NoError(t, err)

	got, err := svc.Read(ctx, "deep/new.txt")
	require.NoError(t, err)
	assert.Equal(t, "second", got.Content)
}

func TestWrite_DirectoryTargets(t *testing.T) {
	svc, root := newTestService(t)
	ctx := context.Background()
	require.NoError(t, os.MkdirAll(filepath.Join(root.Dir(), "dir"), 0o755))

	for _, rel := range []string{"", "/", "dir"} {
		_, err := svc.Create(ctx, rel, strings.NewReader("x"))
		assert.ErrorIs(t, err, models.ErrIsDirectory, "create %q", rel)
		_, err = svc.Replace(ctx, rel, strings.NewReader("x"))
		assert.ErrorIs(t, err, models.ErrIsDirectory, "replace %q", rel)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("client went away") }

// Прерванная запись не оставляет ни целевого, ни staging-файла. Созданные для неё
// каталоги родителя остаются на месте.
func TestWrite_FailedBodyLeavesNoFile(t *testing.T) {
	svc, root := newTestService(t)
	ctx := context.Background()

	_, err := svc.Replace(ctx, "a.txt", io.MultiReader(strings.NewReader("partial"), failingReader{}))
	require.Error(t, err)

	entries, err := os.ReadDir(root.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = svc.Create(ctx, "a/b/c/x.txt", io.MultiReader(strings.NewReader("partial"), failingReader{}))
	require.Error(t, err)

	entries, err = os.ReadDir(filepath.Join(root.Dir(), "a", "b", "c"))
	require.NoError(t, err)
	assert.Empty(t, entries)

	files, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestWrite_Cancelled(t *testing.T) {
	svc, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Create(ctx, "a.txt", strings.NewReader("x"))
	require.ErrorIs(t, err, context.Canceled)

	_, err = svc.Read(context.Background(), "a.txt")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestTraversal_AllOperations(t *testing.T) {
	svc, root := newTestService(t)
	ctx := context.Background()
	outside := filepath.Join(filepath.Dir(root.Dir()), "secret")

	_, err := svc.Create(ctx, "../secret", strings.NewReader("x"))
	assert.ErrorIs(t, err, models.ErrTraversal)
	_, err = svc.Replace(ctx, "a/../../secret", strings.NewReader("x"))
	assert.ErrorIs(t, err, models.ErrTraversal)
	_, err = svc.Read(ctx, "../secret")
	assert.ErrorIs(t, err, models.ErrTraversal)
	_, err = svc.Delete(ctx, "../secret")
	assert.ErrorIs(t, err, models.ErrTraversal)
	_, err = svc.Pull(ctx, "../secret")
	assert.ErrorIs(t, err, models.ErrTraversal)
	_, err = svc.List(ctx, "..")
	assert.ErrorIs(t, err, models.ErrTraversal)

	_, err = os.Stat(outside)
	assert.True(t, os.IsNotExist(err))
}

func TestCreate_StagingNameRejected(t *testing.T) {
	svc, root := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, ".omnifile-notes.part", strings.NewReader("important"))
	require.ErrorIs(t, err, models.ErrTraversal)
	_, err = svc.Replace(ctx, "dir/.omnifile-notes.part", strings.NewReader("important"))
	require.ErrorIs(t, err, models.ErrTraversal)

	entries, err := os.ReadDir(root.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRead_NotFound(t *testing.T) {
	svc, root := newTestService(t)
	ctx := context.Background()
	require.NoError(t, os.MkdirAll(filepath.Join(root.Dir(), "dir"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root.Dir(), "f.txt"), []byte("x"), 0o644))

	for _, rel := range []string{"missing.txt", "dir", "", "f.txt/child"} {
		_, err := svc.Read(ctx, rel)
		assert.ErrorIs(t, err, models.ErrNotFound, "read %q", rel)
		_, err = svc.Pull(ctx, rel)
		assert.ErrorIs(t, err, models.ErrNotFound, "pull %q", rel)
		_, err = svc.Delete(ctx, rel)
		assert.ErrorIs(t, err, models.ErrNotFound, "delete %q", rel)
	}
}

func TestRead_SpecialFilesNotFound(t *testing.T) {
	svc, root := newTestService(t)
	ctx := context.Background()

	fifo := filepath.Join(root.Dir(), "pipe")
	if err := syscall.Mkfifo(fifo, 0o644); err != nil {
		t.Skipf("mkfifo: %v", err)
	}

	_, err := svc.Read(ctx, "pipe")
	require.ErrorIs(t, err, models.ErrNotFound)
	_, err = svc.Pull(ctx, "pipe")
	require.ErrorIs(t, err, models.ErrNotFound)
	_, err = svc.Delete(ctx, "pipe")
	require.ErrorIs(t, err, models.ErrNotFound)

	_, err = os.Lstat(fifo)
	assert.NoError(t, err)
}

func TestRead_BinaryRejected(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	payload := []byte{0xff, 0xfe, 0x00, 0x01}

	_, err := svc.Create(ctx, "blob.bin", bytes.NewReader(payload))
	require.NoError(t, err)

	_, err = svc.Read(ctx, "blob.bin")
	require.ErrorIs(t, err, models.ErrNotText)

	dl, err := svc.Pull(ctx, "blob.bin")
	require.NoError(t, err)
	defer dl.Body.Close()
	got, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestPull_BaseName(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "reports/2024/q1.csv", strings.NewReader("a,b\n"))
	require.NoError(t, err)

	dl, err := svc.Pull(ctx, "reports/2024/q1.csv")
	require.NoError(t, err)
	defer dl.Body.Close()

	assert.Equal(t, "q1.csv", dl.Name)
	assert.Equal(t, int64(4), dl.Size)
}

func TestDelete_Twice(t *testing.T) {
	svc, root := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "dir/a.txt", strings.NewReader("x"))
	require.NoError(t, err)

	rel, err := svc.Delete(ctx, "dir/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "dir/a.txt", rel)

	_, err = svc.Read(ctx, "dir/a.txt")
	require.ErrorIs(t, err, models.ErrNotFound)
	_, err = svc.Delete(ctx, "dir/a.txt")
	require.ErrorIs(t, err, models.ErrNotFound)

	// каталог остаётся
	info, err := os.Stat(filepath.Join(root.Dir(), "dir"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestList(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	files, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.NotNil(t, files)
	assert.Empty(t, files)

	_, err = svc.Create(ctx, "dir/b.txt", strings.NewReader("b"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, "a.txt", strings.NewReader("a"))
	require.NoError(t, err)

	files, err = svc.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "dir/b.txt"}, files)

	files, err = svc.List(ctx, "/dir")
	require.NoError(t, err)
	assert.Equal(t, []string{"dir/b.txt"}, files)
}

func TestList_Errors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, "a.txt", strings.NewReader("a"))
	require.NoError(t, err)

	_, err = svc.List(ctx, "nope")
	require.ErrorIs(t, err, models.ErrNotFound)

	_, err = svc.List(ctx, "a.txt")
	require.ErrorIs(t, err, models.ErrNotADirectory)
}

func TestScenario_UploadListReadDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "notes/todo.txt", strings.NewReader("buy milk"))
	require.NoError(t, err)

	files, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"notes/todo.txt"}, files)

	got, err := svc.Read(ctx, "notes/todo.txt")
	require.NoError(t, err)
	assert.Equal(t, "buy milk", got.Content)

	_, err = svc.Delete(ctx, "notes/todo.txt")
	require.NoError(t, err)

	files, err = svc.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{}, files)
}
