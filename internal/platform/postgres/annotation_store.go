package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/marginalia/internal/domain"
	"github.com/phrazzld/marginalia/internal/platform/logger"
	"github.com/phrazzld/marginalia/internal/store"
)

const annotationColumns = `id, userid, group_pubid, target_uri, text, tags, refs, document_title, shared, created, updated`

// PostgresAnnotationStore implements store.AnnotationStore.
type PostgresAnnotationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAnnotationStore creates an annotation store on db.
func NewPostgresAnnotationStore(db store.DBTX, logger *slog.Logger) *PostgresAnnotationStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresAnnotationStore{
		db:     db,
		logger: logger.With(slog.String("component", "annotation_store")),
	}
}

var _ store.AnnotationStore = (*PostgresAnnotationStore)(nil)

// Create implements store.AnnotationStore.Create.
func (s *PostgresAnnotationStore) Create(ctx context.Context, a *domain.Annotation) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	tags, err := jsonColumn(a.Tags, "[]")
	if err != nil {
		return err
	}
	refs, err := jsonColumn(a.References, "[]")
	if err != nil {
		return err
	}
	var title sql.NullString
	if a.Document != nil {
		title = sql.NullString{String: a.Document.Title, Valid: true}
	}

	query := `
		INSERT INTO annotations (` + annotationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = s.db.ExecContext(ctx, query,
		a.ID, a.UserID, a.GroupPubID, a.TargetURI, a.Text,
		tags, refs, title, a.Shared, a.Created, a.Updated,
	)
	if err != nil {
		log.Error("failed to create annotation",
			slog.String("error", err.Error()),
			slog.String("annotation_id", a.ID.String()))
		return MapError(err)
	}

	log.Debug("annotation created", slog.String("annotation_id", a.ID.String()))
	return nil
}

// GetByID implements store.AnnotationStore.GetByID.
func (s *PostgresAnnotationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Annotation, error) {
	query := `SELECT ` + annotationColumns + ` FROM annotations WHERE id = $1`
	a, err := scanAnnotation(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrAnnotationNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get annotation",
			slog.String("error", err.Error()),
			slog.String("annotation_id", id.String()))
		return nil, MapError(err)
	}
	return a, nil
}

// Delete implements store.AnnotationStore.Delete.
func (s *PostgresAnnotationStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM annotations WHERE id = $1`, id)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete annotation",
			slog.String("error", err.Error()),
			slog.String("annotation_id", id.String()))
		return MapError(err)
	}
	return checkRowsAffected(result, store.ErrAnnotationNotFound)
}

// ListIDsByUser implements store.AnnotationStore.ListIDsByUser.
func (s *PostgresAnnotationStore) ListIDsByUser(ctx context.Context, userid string) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM annotations WHERE userid = $1 ORDER BY created`, userid)
	if err != nil {
		return nil, MapError(err)
	}
	return collectIDs(rows)
}

// ReassignUser implements store.AnnotationStore.ReassignUser.
func (s *PostgresAnnotationStore) ReassignUser(ctx context.Context, oldUserID, newUserID string) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx,
		`UPDATE annotations SET userid = $1, updated = $2 WHERE userid = $3 RETURNING id`,
		newUserID, time.Now().UTC(), oldUserID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to reassign annotations",
			slog.String("error", err.Error()),
			slog.String("old_userid", oldUserID))
		return nil, MapError(err)
	}
	return collectIDs(rows)
}

// WithTx implements store.AnnotationStore.WithTx.
func (s *PostgresAnnotationStore) WithTx(tx *sql.Tx) store.AnnotationStore {
	return &PostgresAnnotationStore{db: tx, logger: s.logger}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnnotation(row rowScanner) (*domain.Annotation, error) {
	var (
		a          domain.Annotation
		tags, refs []byte
		title      sql.NullString
	)
	err := row.Scan(
		&a.ID, &a.UserID, &a.GroupPubID, &a.TargetURI, &a.Text,
		&tags, &refs, &title, &a.Shared, &a.Created, &a.Updated,
	)
	if err != nil {
		return nil, err
	}
	a.Tags = []string{}
	if err := scanJSON(tags, &a.Tags); err != nil {
		return nil, err
	}
	if err := scanJSON(refs, &a.References); err != nil {
		return nil, err
	}
	if title.Valid {
		a.Document = &domain.Document{Title: title.String}
	}
	return &a, nil
}

func collectIDs(rows *sql.Rows) ([]uuid.UUID, error) {
	defer func() { _ = rows.Close() }()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return ids, nil
}
