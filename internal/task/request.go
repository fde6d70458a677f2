package task

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/marginalia/internal/feature"
	"github.com/phrazzld/marginalia/internal/platform/mail"
	"github.com/phrazzld/marginalia/internal/store"
)

// ErrNoRequest is returned when a handler runs without a worker Request in its context.
var ErrNoRequest = errors.New("no worker request in context")

// Request holds the dependencies every task needs. One Request is built
// when the worker starts and is attached to each task's context.
type Request struct {
	DB       store.TxBeginner
	Features feature.Checker
	Mailer   mail.Sender
	Logger   *slog.Logger

	Users       store.UserStore
	Annotations store.AnnotationStore
	Auth        store.AuthStore
	Search      store.SearchIndex

	// Now is the clock used by expiry tasks.
	Now func() time.Time
}

// Validate checks that every dependency is set.
func (r *Request) Validate() error {
	switch {
	case r.DB == nil:
		return errors.New("request: db cannot be nil")
	case r.Features == nil:
		return errors.New("request: feature cache cannot be nil")
	case r.Mailer == nil:
		return errors.New("request: mailer cannot be nil")
	case r.Users == nil || r.Annotations == nil || r.Auth == nil || r.Search == nil:
		return errors.New("request: stores cannot be nil")
	}
	return nil
}

func (r *Request) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now().UTC()
}

// txStores returns the stores bound to the transaction in ctx, if any.
func (r *Request) txStores(ctx context.Context) (store.UserStore, store.AnnotationStore, store.AuthStore, store.SearchIndex) {
	tx, ok := store.TxFromContext(ctx)
	if !ok {
		return r.Users, r.Annotations, r.Auth, r.Search
	}
	return r.Users.WithTx(tx), r.Annotations.WithTx(tx), r.Auth.WithTx(tx), r.Search.WithTx(tx)
}

type requestContextKey struct{}

// WithRequest attaches the worker Request to ctx.
func WithRequest(ctx context.Context, r *Request) context.Context {
	return context.WithValue(ctx, requestContextKey{}, r)
}

// RequestFromContext retrieves the worker Request attached by WithRequest.
func RequestFromContext(ctx context.Context) (*Request, error) {
	r, ok := ctx.Value(requestContextKey{}).(*Request)
	if !ok || r == nil {
		return nil, ErrNoRequest
	}
	return r, nil
}

// Tx returns the task's transaction.
func Tx(ctx context.Context) (*sql.Tx, bool) {
	return store.TxFromContext(ctx)
}
