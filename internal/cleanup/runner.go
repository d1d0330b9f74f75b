package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/owui-tools/cleanup/internal/db"
)

// Database is the subset of *pgxpool.Pool the runner needs, so tests can
// substitute a mock pool.
type Database interface {
	db.Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Options configures a cleanup run
type Options struct {
	UploadsDir string
	KeepDays   int
	DryRun     bool
	Vacuum     bool
}

// Runner executes the four cleanup stages in dependency order: chats,
// then file rows, then vector collections, then uploads on disk. Each
// stage shrinks the reference set the next stage checks against.
type Runner struct {
	main   Database
	vector Database
	opts   Options
	log    *zap.Logger
	now    func() time.Time
}

// Result reports what a run deleted, or would have deleted in dry-run mode
type Result struct {
	DryRun             bool
	ChatsDeleted       int64
	FilesDeleted       int64
	CollectionsDeleted int
	ChunksDeleted      int64
	UploadsDeleted     int
	UploadErrors       int
}

// New creates a Runner over the two database pools
func New(main, vector Database, opts Options, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		main:   main,
		vector: vector,
		opts:   opts,
		log:    logger,
		now:    time.Now,
	}
}

// Run executes all stages. The database stages run inside one transaction
// per database; a dry run executes the same deletes and rolls both back,
// so the reported counts are exact. The filesystem sweep happens after
// commit, against the reference set read from the transactions.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	log := r.log.With(
		zap.String("run_id", uuid.NewString()),
		zap.Bool("dry_run", r.opts.DryRun),
	)

	mainTx, err := r.main.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin main transaction: %w", err)
	}
	vectorTx, err := r.vector.Begin(ctx)
	if err != nil {
		_ = mainTx.Rollback(ctx)
		return nil, fmt.Errorf("failed to begin vector transaction: %w", err)
	}

	res, keep, err := r.runStages(ctx, db.NewStore(mainTx), db.NewStore(vectorTx), log)
	if err != nil {
		_ = vectorTx.Rollback(ctx)
		_ = mainTx.Rollback(ctx)
		return nil, err
	}

	if r.opts.DryRun {
		if err := vectorTx.Rollback(ctx); err != nil {
			return nil, fmt.Errorf("failed to roll back vector transaction: %w", err)
		}
		if err := mainTx.Rollback(ctx); err != nil {
			return nil, fmt.Errorf("failed to roll back main transaction: %w", err)
		}
	} else {
		if err := mainTx.Commit(ctx); err != nil {
			_ = vectorTx.Rollback(ctx)
			return nil, fmt.Errorf("failed to commit main transaction: %w", err)
		}
		if err := vectorTx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("failed to commit vector transaction: %w", err)
		}
	}

	if err := r.sweepUploads(keep, res, log.Named("uploads")); err != nil {
		return nil, err
	}

	if !r.opts.DryRun && r.opts.Vacuum {
		if err := db.NewStore(r.main).VacuumMain(ctx); err != nil {
			return nil, err
		}
		if err := db.NewStore(r.vector).VacuumVector(ctx); err != nil {
			return nil, err
		}
		log.Info("vacuumed tables")
	}

	return res, nil
}

// runStages executes the three database stages and returns the basenames
// the filesystem sweep must keep, read after all deletes so it reflects
// the shrunk state.
func (r *Runner) runStages(ctx context.Context, main, vector *db.Store, log *zap.Logger) (*Result, map[string]struct{}, error) {
	res := &Result{DryRun: r.opts.DryRun}
	debug := log.Core().Enabled(zapcore.DebugLevel)

	// Stage 1: prune old chats.
	chatLog := log.Named("chats")
	cutoff := r.now().AddDate(0, 0, -r.opts.KeepDays).Unix()
	if debug {
		old, err := main.OldChats(ctx, cutoff)
		if err != nil {
			return nil, nil, err
		}
		for _, c := range old {
			chatLog.Debug("chat scheduled for deletion",
				zap.String("id", c.ID),
				zap.String("user_id", c.UserID),
				zap.Int64("created_at", c.CreatedAt))
		}
	}
	deleted, err := main.PruneChats(ctx, cutoff)
	if err != nil {
		return nil, nil, err
	}
	res.ChatsDeleted = deleted
	chatLog.Info("pruned chats", zap.Int64("deleted", deleted), zap.Int64("cutoff", cutoff))

	// Stage 2: delete file rows nothing references anymore.
	fileLog := log.Named("files")
	referenced, err := main.ReferencedFileIDs(ctx)
	if err != nil {
		return nil, nil, err
	}
	all, err := main.AllFileIDs(ctx)
	if err != nil {
		return nil, nil, err
	}
	unused := difference(all, referenced)
	fileLog.Info("reconciled file rows",
		zap.Int("total", len(all)),
		zap.Int("referenced", len(referenced)),
		zap.Int("unused", len(unused)))
	if debug {
		for _, id := range unused {
			fileLog.Debug("file scheduled for deletion", zap.String("id", id))
		}
	}
	deleted, err = main.DeleteFiles(ctx, unused)
	if err != nil {
		return nil, nil, err
	}
	res.FilesDeleted = deleted

	// Stage 3: delete vector collections nothing references anymore.
	colLog := log.Named("collections")
	refCols, err := main.ReferencedCollections(ctx)
	if err != nil {
		return nil, nil, err
	}
	allCols, err := vector.Collections(ctx)
	if err != nil {
		return nil, nil, err
	}
	unusedCols := difference(allCols, refCols)
	colLog.Info("reconciled collections",
		zap.Int("total", len(allCols)),
		zap.Int("referenced", len(refCols)),
		zap.Int("unused", len(unusedCols)))
	if debug {
		for _, name := range unusedCols {
			colLog.Debug("collection scheduled for deletion", zap.String("name", name))
		}
	}
	chunks, err := vector.DeleteCollections(ctx, unusedCols)
	if err != nil {
		return nil, nil, err
	}
	res.CollectionsDeleted = len(unusedCols)
	res.ChunksDeleted = chunks

	// Stage 4 reference set: paths still present after the file deletes.
	keep, err := main.RemainingFileBasenames(ctx)
	if err != nil {
		return nil, nil, err
	}

	return res, keep, nil
}

// difference returns the elements of all that are absent from referenced,
// preserving order
func difference(all []string, referenced map[string]struct{}) []string {
	var out []string
	for _, v := range all {
		if _, ok := referenced[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}
