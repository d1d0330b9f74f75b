package cleanup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSweepUploadsDeletesOnlyUnreferenced(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"a.png", "b.pdf", "c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0755))

	r := &Runner{opts: Options{UploadsDir: dir}}
	res := &Result{}
	keep := map[string]struct{}{"a.png": {}, "c.txt": {}}

	require.NoError(t, r.sweepUploads(keep, res, zap.NewNop()))

	require.Equal(t, 1, res.UploadsDeleted)
	require.Zero(t, res.UploadErrors)
	require.FileExists(t, filepath.Join(dir, "a.png"))
	require.NoFileExists(t, filepath.Join(dir, "b.pdf"))
	require.FileExists(t, filepath.Join(dir, "c.txt"))
	require.DirExists(t, filepath.Join(dir, "nested"))
}

func TestSweepUploadsDryRunCountsOnly(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.bin"), []byte("x"), 0644))

	r := &Runner{opts: Options{UploadsDir: dir, DryRun: true}}
	res := &Result{DryRun: true}

	require.NoError(t, r.sweepUploads(map[string]struct{}{}, res, zap.NewNop()))

	require.Equal(t, 1, res.UploadsDeleted)
	require.FileExists(t, filepath.Join(dir, "stale.bin"))
}

func TestSweepUploadsMissingDirFails(t *testing.T) {
	t.Parallel()

	r := &Runner{opts: Options{UploadsDir: filepath.Join(t.TempDir(), "nope")}}
	err := r.sweepUploads(map[string]struct{}{}, &Result{}, zap.NewNop())
	require.Error(t, err)
}
