package cleanup

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// sweepUploads deletes every regular file in the uploads directory whose
// name is not in the keep set. The listing is flat; Open WebUI stores
// uploads directly under the directory. A file that cannot be removed is
// logged and counted, and the sweep continues.
func (r *Runner) sweepUploads(keep map[string]struct{}, res *Result, log *zap.Logger) error {
	entries, err := os.ReadDir(r.opts.UploadsDir)
	if err != nil {
		return fmt.Errorf("failed to list uploads directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := keep[entry.Name()]; ok {
			continue
		}
		path := filepath.Join(r.opts.UploadsDir, entry.Name())
		if r.opts.DryRun {
			log.Debug("upload scheduled for deletion", zap.String("path", path))
			res.UploadsDeleted++
			continue
		}
		if err := os.Remove(path); err != nil {
			log.Error("failed to delete upload", zap.String("path", path), zap.Error(err))
			res.UploadErrors++
			continue
		}
		log.Debug("deleted upload", zap.String("path", path))
		res.UploadsDeleted++
	}

	log.Info("swept uploads directory",
		zap.Int("scanned", len(entries)),
		zap.Int("deleted", res.UploadsDeleted),
		zap.Int("errors", res.UploadErrors))
	return nil
}
