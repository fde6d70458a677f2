package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/marginalia/internal/domain"
	"github.com/phrazzld/marginalia/internal/platform/logger"
	"github.com/phrazzld/marginalia/internal/store"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 200
)

// PostgresSearchIndex implements store.SearchIndex with a tsvector column.
type PostgresSearchIndex struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSearchIndex creates a search index on db.
func NewPostgresSearchIndex(db store.DBTX, logger *slog.Logger) *PostgresSearchIndex {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSearchIndex{
		db:     db,
		logger: logger.With(slog.String("component", "search_index")),
	}
}

var _ store.SearchIndex = (*PostgresSearchIndex)(nil)

// Index implements store.SearchIndex.Index.
func (s *PostgresSearchIndex) Index(ctx context.Context, a *domain.Annotation, nipsa bool) error {
	principals := a.ReadPrincipals()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO search_index (annotation_id, userid, read_principal, nipsa, document, updated)
		VALUES (
			$1, $2, $3, $4,
			setweight(to_tsvector('simple', $5), 'A') || setweight(to_tsvector('simple', $6), 'B'),
			$7
		)
		ON CONFLICT (annotation_id) DO UPDATE SET
			userid = EXCLUDED.userid,
			read_principal = EXCLUDED.read_principal,
			nipsa = EXCLUDED.nipsa,
			document = EXCLUDED.document,
			updated = EXCLUDED.updated
	`, a.ID, a.UserID, principals[0], nipsa, a.Text, strings.Join(a.Tags, " "), time.Now().UTC())
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to index annotation",
			slog.String("error", err.Error()),
			slog.String("annotation_id", a.ID.String()))
		return MapError(err)
	}
	return nil
}

// Remove implements store.SearchIndex.Remove.
func (s *PostgresSearchIndex) Remove(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM search_index WHERE annotation_id = $1`, id)
	return MapError(err)
}

// SetNIPSA implements store.SearchIndex.SetNIPSA.
func (s *PostgresSearchIndex) SetNIPSA(ctx context.Context, userid string, nipsa bool) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE search_index SET nipsa = $1, updated = $2 WHERE userid = $3`,
		nipsa, time.Now().UTC(), userid)
	if err != nil {
		return 0, MapError(err)
	}
	return result.RowsAffected()
}

// Search implements store.SearchIndex.Search.
// Principals are passed as a JSON array to keep the query free of driver
// specific array types.
func (s *PostgresSearchIndex) Search(ctx context.Context, q store.SearchQuery) ([]*domain.Annotation, error) {
	principals, err := jsonColumn(q.Principals, "[]")
	if err != nil {
		return nil, err
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.userid, a.group_pubid, a.target_uri, a.text, a.tags, a.refs,
		       a.document_title, a.shared, a.created, a.updated
		FROM search_index si
		JOIN annotations a ON a.id = si.annotation_id
		WHERE ($1::text = '' OR si.document @@ plainto_tsquery('simple', $1))
		  AND si.read_principal IN (SELECT jsonb_array_elements_text($2::jsonb))
		  AND (NOT si.nipsa OR si.userid = $3)
		ORDER BY ts_rank(si.document, plainto_tsquery('simple', $1)) DESC, a.updated DESC
		LIMIT $4 OFFSET $5
	`, q.Text, principals, q.UserID, limit, offset)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("search query failed",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	results := []*domain.Annotation{}
	for rows.Next() {
		a, err := scanAnnotation(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, a)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return results, nil
}

// WithTx implements store.SearchIndex.WithTx.
func (s *PostgresSearchIndex) WithTx(tx *sql.Tx) store.SearchIndex {
	return &PostgresSearchIndex{db: tx, logger: s.logger}
}
