package db

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx.Tx (and *pgxpool.Pool) the cleanup queries
// need, so tests can substitute a mock connection.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store runs cleanup queries against a single database handle, normally an
// open transaction so a dry run can roll everything back.
type Store struct {
	q Querier
}

// NewStore creates a Store over the given handle
func NewStore(q Querier) *Store {
	return &Store{q: q}
}

// OldChats lists unarchived chats created before the cutoff (unix seconds).
// Only used in debug mode to report what the prune is about to remove.
func (s *Store) OldChats(ctx context.Context, cutoff int64) ([]ChatRef, error) {
	rows, err := s.q.Query(ctx,
		`SELECT id, user_id, created_at FROM chat
		 WHERE NOT archived AND created_at < $1`,
		cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list old chats: %w", err)
	}
	defer rows.Close()

	var chats []ChatRef
	for rows.Next() {
		var c ChatRef
		if err := rows.Scan(&c.ID, &c.UserID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

// PruneChats deletes unarchived chats created before the cutoff (unix
// seconds). Archived chats are kept regardless of age.
func (s *Store) PruneChats(ctx context.Context, cutoff int64) (int64, error) {
	tag, err := s.q.Exec(ctx,
		`DELETE FROM chat WHERE NOT archived AND created_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune chats: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ReferencedFileIDs collects every file id still referenced by a chat or a
// knowledge entry. Chats embed file references at arbitrary depth in their
// JSON payload, under both "file_id" keys and nested "file" objects.
func (s *Store) ReferencedFileIDs(ctx context.Context) (map[string]struct{}, error) {
	ids := make(map[string]struct{})

	queries := []string{
		`SELECT DISTINCT ref FROM (
			SELECT jsonb_path_query(chat::jsonb, '$.**.file_id') #>> '{}' AS ref FROM chat
		 ) refs WHERE ref IS NOT NULL`,
		`SELECT DISTINCT ref FROM (
			SELECT jsonb_path_query(chat::jsonb, '$.**.file.id') #>> '{}' AS ref FROM chat
		 ) refs WHERE ref IS NOT NULL`,
		`SELECT DISTINCT ref FROM (
			SELECT jsonb_array_elements_text(data::jsonb -> 'file_ids') AS ref FROM knowledge
			WHERE jsonb_typeof(data::jsonb -> 'file_ids') = 'array'
		 ) refs WHERE ref IS NOT NULL`,
	}
	for _, query := range queries {
		if err := s.stringSet(ctx, ids, query); err != nil {
			return nil, fmt.Errorf("failed to collect referenced file ids: %w", err)
		}
	}
	return ids, nil
}

// AllFileIDs lists every row of the file table
func (s *Store) AllFileIDs(ctx context.Context) ([]string, error) {
	ids, err := s.stringList(ctx, `SELECT id FROM file`)
	if err != nil {
		return nil, fmt.Errorf("failed to list file ids: %w", err)
	}
	return ids, nil
}

// DeleteFiles deletes the given file rows and returns the affected count
func (s *Store) DeleteFiles(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := s.q.Exec(ctx, `DELETE FROM file WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete files: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ReferencedCollections collects every vector collection name still
// referenced by a chat, a file's meta, or a user memory. Memories live in
// per-user collections named user-memory-<user_id>.
func (s *Store) ReferencedCollections(ctx context.Context) (map[string]struct{}, error) {
	names := make(map[string]struct{})

	queries := []string{
		`SELECT DISTINCT ref FROM (
			SELECT jsonb_path_query(chat::jsonb, '$.**.collection_name') #>> '{}' AS ref FROM chat
		 ) refs WHERE ref IS NOT NULL`,
		`SELECT DISTINCT ref FROM (
			SELECT jsonb_path_query(meta::jsonb, '$.collection_name') #>> '{}' AS ref FROM file
		 ) refs WHERE ref IS NOT NULL`,
		`SELECT DISTINCT 'user-memory-' || user_id FROM memory`,
	}
	for _, query := range queries {
		if err := s.stringSet(ctx, names, query); err != nil {
			return nil, fmt.Errorf("failed to collect referenced collections: %w", err)
		}
	}
	return names, nil
}

// Collections lists every collection present in the vector store
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	names, err := s.stringList(ctx, `SELECT DISTINCT collection_name FROM document_chunk`)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return names, nil
}

// DeleteCollections deletes every chunk belonging to the given collections
// and returns the number of chunk rows removed
func (s *Store) DeleteCollections(ctx context.Context, names []string) (int64, error) {
	if len(names) == 0 {
		return 0, nil
	}
	tag, err := s.q.Exec(ctx, `DELETE FROM document_chunk WHERE collection_name = ANY($1)`, names)
	if err != nil {
		return 0, fmt.Errorf("failed to delete collections: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RemainingFileBasenames returns the basenames of every path still present
// in the file table. Run after DeleteFiles inside the same transaction it
// yields exactly the uploads the filesystem sweep must keep.
func (s *Store) RemainingFileBasenames(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.q.Query(ctx, `SELECT DISTINCT path FROM file WHERE path IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("failed to list file paths: %w", err)
	}
	defer rows.Close()

	names := make(map[string]struct{})
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("failed to scan file path: %w", err)
		}
		names[filepath.Base(path)] = struct{}{}
	}
	return names, rows.Err()
}

// VacuumMain reclaims space on the main tables touched by a run. VACUUM
// cannot run inside a transaction, so call this on the pool after commit.
func (s *Store) VacuumMain(ctx context.Context) error {
	if _, err := s.q.Exec(ctx, `VACUUM ANALYZE chat, file`); err != nil {
		return fmt.Errorf("failed to vacuum main tables: %w", err)
	}
	return nil
}

// VacuumVector reclaims space on the vector store after chunk deletion
func (s *Store) VacuumVector(ctx context.Context) error {
	if _, err := s.q.Exec(ctx, `VACUUM ANALYZE document_chunk`); err != nil {
		return fmt.Errorf("failed to vacuum document_chunk: %w", err)
	}
	return nil
}

func (s *Store) stringSet(ctx context.Context, dst map[string]struct{}, query string) error {
	rows, err := s.q.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return err
		}
		dst[v] = struct{}{}
	}
	return rows.Err()
}

func (s *Store) stringList(ctx context.Context, query string) ([]string, error) {
	rows, err := s.q.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
