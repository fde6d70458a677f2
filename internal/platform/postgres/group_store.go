package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/marginalia/internal/domain"
	"github.com/phrazzld/marginalia/internal/platform/logger"
	"github.com/phrazzld/marginalia/internal/store"
)

const groupColumns = `g.id, g.pubid, g.name, g.authority, g.type, g.scopes, g.creator, g.created_at`

// PostgresGroupStore implements store.GroupStore.
type PostgresGroupStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresGroupStore creates a group store on db.
func NewPostgresGroupStore(db store.DBTX, logger *slog.Logger) *PostgresGroupStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresGroupStore{
		db:     db,
		logger: logger.With(slog.String("component", "group_store")),
	}
}

var _ store.GroupStore = (*PostgresGroupStore)(nil)

// Create implements store.GroupStore.Create.
func (s *PostgresGroupStore) Create(ctx context.Context, g *domain.Group) error {
	if err := g.Validate(); err != nil {
		return err
	}
	scopes, err := jsonColumn(g.Scopes, "[]")
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO groups (id, pubid, name, authority, type, scopes, creator, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, g.ID, g.PubID, g.Name, g.Authority, string(g.Type), scopes, g.Creator, g.CreatedAt)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create group",
			slog.String("error", err.Error()),
			slog.String("pubid", g.PubID))
		return MapError(err)
	}
	return nil
}

// GetByPubID implements store.GroupStore.GetByPubID.
func (s *PostgresGroupStore) GetByPubID(ctx context.Context, pubid string) (*domain.Group, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+groupColumns+` FROM groups g WHERE g.pubid = $1`, pubid)
	g, err := scanGroup(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrGroupNotFound
		}
		return nil, MapError(err)
	}
	return g, nil
}

// ListForUser implements store.GroupStore.ListForUser.
func (s *PostgresGroupStore) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Group, error) {
	return s.list(ctx, `
		SELECT `+groupColumns+`
		FROM groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = $1
		ORDER BY g.name, g.pubid
	`, userID)
}

// ListOpen implements store.GroupStore.ListOpen.
func (s *PostgresGroupStore) ListOpen(ctx context.Context, authority string) ([]*domain.Group, error) {
	return s.list(ctx, `
		SELECT `+groupColumns+`
		FROM groups g
		WHERE g.authority = $1 AND g.type = 'open'
		ORDER BY g.name, g.pubid
	`, authority)
}

func (s *PostgresGroupStore) list(ctx context.Context, query string, args ...any) ([]*domain.Group, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list groups",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	groups := []*domain.Group{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return groups, nil
}

// AddMember implements store.GroupStore.AddMember.
func (s *PostgresGroupStore) AddMember(ctx context.Context, groupID, userID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO group_members (group_id, user_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, groupID, userID)
	return MapError(err)
}

// RemoveMember implements store.GroupStore.RemoveMember.
func (s *PostgresGroupStore) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	return MapError(err)
}

// WithTx implements store.GroupStore.WithTx.
func (s *PostgresGroupStore) WithTx(tx *sql.Tx) store.GroupStore {
	return &PostgresGroupStore{db: tx, logger: s.logger}
}

func scanGroup(row rowScanner) (*domain.Group, error) {
	var (
		g         domain.Group
		groupType string
		scopes    []byte
	)
	if err := row.Scan(&g.ID, &g.PubID, &g.Name, &g.Authority, &groupType, &scopes, &g.Creator, &g.CreatedAt); err != nil {
		return nil, err
	}
	g.Type = domain.GroupType(groupType)
	if err := scanJSON(scopes, &g.Scopes); err != nil {
		return nil, err
	}
	return &g, nil
}
