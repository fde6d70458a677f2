package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/marginalia/internal/domain"
	"github.com/phrazzld/marginalia/internal/events"
	"github.com/phrazzld/marginalia/internal/platform/logger"
	"github.com/phrazzld/marginalia/internal/store"
)

// Indexer schedules search index updates. task.Enqueuer implements it.
type Indexer interface {
	IndexAnnotation(ctx context.Context, id uuid.UUID) error
	RemoveAnnotation(ctx context.Context, id uuid.UUID) error
}

// CreateAnnotationInput is the data needed to create an annotation.
type CreateAnnotationInput struct {
	GroupPubID    string
	TargetURI     string
	Text          string
	Tags          []string
	References    []uuid.UUID
	DocumentTitle string
	Shared        bool
}

// AnnotationService creates, reads, deletes and searches annotations.
type AnnotationService interface {
	Create(ctx context.Context, user *domain.User, input CreateAnnotationInput) (*domain.Annotation, error)

	// Get returns store.ErrAnnotationNotFound when the annotation is missing
	// or user may not read it. user may be nil.
	Get(ctx context.Context, user *domain.User, id uuid.UUID) (*domain.Annotation, error)

	Delete(ctx context.Context, user *domain.User, id uuid.UUID) error

	Search(ctx context.Context, user *domain.User, text string, limit, offset int) ([]*domain.Annotation, error)

	// Principals lists what user may read as: their userid, everyone, and
	// each of their groups. A nil user only has everyone.
	Principals(ctx context.Context, user *domain.User) ([]string, error)
}

type annotationServiceImpl struct {
	annotations store.AnnotationStore
	groups      store.GroupStore
	search      store.SearchIndex
	db          store.TxBeginner
	indexer     Indexer
	emitter     events.EventEmitter
	logger      *slog.Logger
}

// NewAnnotationService creates an AnnotationService.
func NewAnnotationService(
	annotations store.AnnotationStore,
	groups store.GroupStore,
	search store.SearchIndex,
	db store.TxBeginner,
	indexer Indexer,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (AnnotationService, error) {
	if annotations == nil || groups == nil || search == nil {
		return nil, errors.New("annotation service: stores cannot be nil")
	}
	if db == nil {
		return nil, errors.New("annotation service: db cannot be nil")
	}
	if indexer == nil {
		return nil, errors.New("annotation service: indexer cannot be nil")
	}
	if emitter == nil {
		return nil, errors.New("annotation service: emitter cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &annotationServiceImpl{
		annotations: annotations,
		groups:      groups,
		search:      search,
		db:          db,
		indexer:     indexer,
		emitter:     emitter,
		logger:      logger.With("component", "annotation_service"),
	}, nil
}

// Create stores the annotation and emits the create event in one
// transaction, then schedules indexing.
func (s *annotationServiceImpl) Create(
	ctx context.Context,
	user *domain.User,
	input CreateAnnotationInput,
) (*domain.Annotation, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	a, err := domain.NewAnnotation(user.UserID(), input.GroupPubID, input.TargetURI, input.Text)
	if err != nil {
		return nil, err
	}
	if input.Tags != nil {
		a.Tags = input.Tags
	}
	a.References = input.References
	a.Shared = input.Shared
	if input.DocumentTitle != "" {
		a.Document = &domain.Document{Title: input.DocumentTitle}
	}

	if err := s.checkGroupWrite(ctx, user, a.GroupPubID); err != nil {
		return nil, err
	}
	if parentID, ok := a.ParentID(); ok {
		if _, err := s.annotations.GetByID(ctx, parentID); err != nil {
			if store.IsNotFoundError(err) {
				return nil, ErrParentNotFound
			}
			return nil, NewServiceError("annotation", "create", err)
		}
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.annotations.WithTx(tx).Create(ctx, a); err != nil {
			return err
		}
		return s.emitter.EmitEvent(ctx, events.NewAnnotationEvent(domain.ActionCreate, a))
	})
	if err != nil {
		log.Error("failed to create annotation", "userid", a.UserID, "error", err)
		return nil, NewServiceError("annotation", "create", err)
	}

	if err := s.indexer.IndexAnnotation(ctx, a.ID); err != nil {
		log.Error("failed to schedule indexing", "annotation_id", a.ID, "error", err)
	}

	log.Info("annotation created", "annotation_id", a.ID, "userid", a.UserID)
	return a, nil
}

func (s *annotationServiceImpl) checkGroupWrite(ctx context.Context, user *domain.User, pubid string) error {
	if pubid == domain.WorldGroupPubID {
		return nil
	}
	group, err := s.groups.GetByPubID(ctx, pubid)
	if err != nil {
		return err
	}
	if group.IsPublic() {
		return nil
	}
	mine, err := s.groups.ListForUser(ctx, user.ID)
	if err != nil {
		return NewServiceError("annotation", "create", err)
	}
	for _, g := range mine {
		if g.PubID == pubid {
			return nil
		}
	}
	return ErrGroupWriteDenied
}

// Get applies the read permission.
func (s *annotationServiceImpl) Get(ctx context.Context, user *domain.User, id uuid.UUID) (*domain.Annotation, error) {
	a, err := s.annotations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	principals, err := s.Principals(ctx, user)
	if err != nil {
		return nil, NewServiceError("annotation", "get", err)
	}
	if !a.CanRead(principals) {
		return nil, store.ErrAnnotationNotFound
	}
	return a, nil
}

// Delete removes an annotation owned by user.
func (s *annotationServiceImpl) Delete(ctx context.Context, user *domain.User, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	a, err := s.annotations.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a.UserID != user.UserID() {
		return ErrNotOwned
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.annotations.WithTx(tx).Delete(ctx, id); err != nil {
			return err
		}
		return s.emitter.EmitEvent(ctx, events.NewAnnotationEvent(domain.ActionDelete, a))
	})
	if err != nil {
		if store.IsNotFoundError(err) {
			return err
		}
		return NewServiceError("annotation", "delete", err)
	}

	if err := s.indexer.RemoveAnnotation(ctx, id); err != nil {
		log.Error("failed to schedule index removal", "annotation_id", id, "error", err)
	}
	log.Info("annotation deleted", "annotation_id", id)
	return nil
}

// Search queries the index with the caller's principals.
func (s *annotationServiceImpl) Search(
	ctx context.Context,
	user *domain.User,
	text string,
	limit, offset int,
) ([]*domain.Annotation, error) {
	principals, err := s.Principals(ctx, user)
	if err != nil {
		return nil, NewServiceError("annotation", "search", err)
	}
	q := store.SearchQuery{Text: text, Principals: principals, Limit: limit, Offset: offset}
	if user != nil {
		q.UserID = user.UserID()
	}
	results, err := s.search.Search(ctx, q)
	if err != nil {
		return nil, NewServiceError("annotation", "search", err)
	}
	return results, nil
}

// Principals implements AnnotationService.
func (s *annotationServiceImpl) Principals(ctx context.Context, user *domain.User) ([]string, error) {
	principals := []string{domain.PrincipalEveryone}
	if user == nil {
		return principals, nil
	}
	principals = append(principals, user.UserID())
	groups, err := s.groups.ListForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		principals = append(principals, "group:"+g.PubID)
	}
	return principals, nil
}
