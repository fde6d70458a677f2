package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/phrazzld/marginalia/internal/domain"
	"github.com/phrazzld/marginalia/internal/platform/logger"
	"github.com/phrazzld/marginalia/internal/platform/mail"
	"github.com/phrazzld/marginalia/internal/store"
)

// Register installs a handler for every task type on mux.
func Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeDeleteExpiredAuthTickets, HandleDeleteExpiredAuthTickets)
	mux.HandleFunc(TypeDeleteExpiredTokens, HandleDeleteExpiredTokens)
	mux.HandleFunc(TypeRenameUser, HandleRenameUser)
	mux.HandleFunc(TypeAddAnnotation, HandleAddAnnotation)
	mux.HandleFunc(TypeDeleteAnnotation, HandleDeleteAnnotation)
	mux.HandleFunc(TypeSendMail, HandleSendMail)
	mux.HandleFunc(TypeAddNIPSA, HandleAddNIPSA)
	mux.HandleFunc(TypeRemoveNIPSA, HandleRemoveNIPSA)
}

// HandleDeleteExpiredAuthTickets removes auth tickets past their expiry.
func HandleDeleteExpiredAuthTickets(ctx context.Context, _ *asynq.Task) error {
	req, err := RequestFromContext(ctx)
	if err != nil {
		return err
	}
	_, _, auth, _ := req.txStores(ctx)
	n, err := auth.DeleteExpiredAuthTickets(ctx, req.now())
	if err != nil {
		return err
	}
	logger.FromContextOrDefault(ctx, req.Logger).Info("expired auth tickets deleted", "count", n)
	return nil
}

// HandleDeleteExpiredTokens removes developer tokens past their expiry.
func HandleDeleteExpiredTokens(ctx context.Context, _ *asynq.Task) error {
	req, err := RequestFromContext(ctx)
	if err != nil {
		return err
	}
	_, _, auth, _ := req.txStores(ctx)
	n, err := auth.DeleteExpiredTokens(ctx, req.now())
	if err != nil {
		return err
	}
	logger.FromContextOrDefault(ctx, req.Logger).Info("expired tokens deleted", "count", n)
	return nil
}

// HandleRenameUser renames a user, moves their annotations to the new
// userid and reindexes them.
func HandleRenameUser(ctx context.Context, t *asynq.Task) error {
	var p RenameUserPayload
	if err := decode(t, &p); err != nil {
		return err
	}
	req, err := RequestFromContext(ctx)
	if err != nil {
		return err
	}
	users, annotations, _, search := req.txStores(ctx)

	user, err := users.GetByID(ctx, p.UserID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return fmt.Errorf("rename user %s: %w: %w", p.UserID, err, asynq.SkipRetry)
		}
		return err
	}

	oldUserID := user.UserID()
	if err := users.Rename(ctx, user.ID, p.NewUsername); err != nil {
		if errors.Is(err, store.ErrUsernameExists) || errors.Is(err, domain.ErrInvalidUsername) {
			return fmt.Errorf("rename user %s: %w: %w", p.UserID, err, asynq.SkipRetry)
		}
		return err
	}
	newUserID := domain.FormatUserID(p.NewUsername, user.Authority)

	ids, err := annotations.ReassignUser(ctx, oldUserID, newUserID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		a, err := annotations.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := search.Index(ctx, a, user.NIPSA); err != nil {
			return err
		}
	}

	logger.FromContextOrDefault(ctx, req.Logger).Info("user renamed",
		"old_userid", oldUserID,
		"new_userid", newUserID,
		"annotations", len(ids))
	return nil
}

// HandleAddAnnotation writes the annotation's search index row. Annotations
// deleted before the task ran are skipped.
func HandleAddAnnotation(ctx context.Context, t *asynq.Task) error {
	var p AnnotationPayload
	if err := decode(t, &p); err != nil {
		return err
	}
	req, err := RequestFromContext(ctx)
	if err != nil {
		return err
	}
	users, annotations, _, search := req.txStores(ctx)
	log := logger.FromContextOrDefault(ctx, req.Logger)

	a, err := annotations.GetByID(ctx, p.AnnotationID)
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Warn("annotation gone before indexing", "annotation_id", p.AnnotationID)
			return nil
		}
		return err
	}

	nipsa, err := authorNIPSA(ctx, users, a.UserID)
	if err != nil {
		return err
	}
	return search.Index(ctx, a, nipsa)
}

// HandleDeleteAnnotation drops the annotation's search index row.
func HandleDeleteAnnotation(ctx context.Context, t *asynq.Task) error {
	var p AnnotationPayload
	if err := decode(t, &p); err != nil {
		return err
	}
	req, err := RequestFromContext(ctx)
	if err != nil {
		return err
	}
	_, _, _, search := req.txStores(ctx)
	return search.Remove(ctx, p.AnnotationID)
}

// HandleSendMail delivers a rendered message.
func HandleSendMail(ctx context.Context, t *asynq.Task) error {
	var msg mail.Message
	if err := decode(t, &msg); err != nil {
		return err
	}
	req, err := RequestFromContext(ctx)
	if err != nil {
		return err
	}
	if err := req.Mailer.Send(ctx, msg); err != nil {
		if errors.Is(err, mail.ErrNoRecipients) {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		return err
	}
	return nil
}

// HandleAddNIPSA flags a user and hides their indexed annotations.
func HandleAddNIPSA(ctx context.Context, t *asynq.Task) error {
	return setNIPSA(ctx, t, true)
}

// HandleRemoveNIPSA unflags a user and restores their indexed annotations.
func HandleRemoveNIPSA(ctx context.Context, t *asynq.Task) error {
	return setNIPSA(ctx, t, false)
}

func setNIPSA(ctx context.Context, t *asynq.Task, nipsa bool) error {
	var p NIPSAPayload
	if err := decode(t, &p); err != nil {
		return err
	}
	parsed, err := domain.ParseUserID(p.UserID)
	if err != nil {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	req, err := RequestFromContext(ctx)
	if err != nil {
		return err
	}
	users, _, _, search := req.txStores(ctx)

	user, err := users.GetByUsername(ctx, parsed.Username, parsed.Authority)
	if err != nil {
		if store.IsNotFoundError(err) {
			return fmt.Errorf("nipsa %s: %w: %w", p.UserID, err, asynq.SkipRetry)
		}
		return err
	}
	if err := users.SetNIPSA(ctx, user.ID, nipsa); err != nil {
		return err
	}
	n, err := search.SetNIPSA(ctx, p.UserID, nipsa)
	if err != nil {
		return err
	}

	logger.FromContextOrDefault(ctx, req.Logger).Info("nipsa updated",
		"userid", p.UserID,
		"nipsa", nipsa,
		"index_rows", n)
	return nil
}

func authorNIPSA(ctx context.Context, users store.UserStore, userid string) (bool, error) {
	parsed, err := domain.ParseUserID(userid)
	if err != nil {
		return false, nil
	}
	u, err := users.GetByUsername(ctx, parsed.Username, parsed.Authority)
	if err != nil {
		if store.IsNotFoundError(err) {
			return false, nil
		}
		return false, err
	}
	return u.NIPSA, nil
}
