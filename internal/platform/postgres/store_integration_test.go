package postgres_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/marginalia/internal/domain"
	"github.com/phrazzld/marginalia/internal/platform/postgres"
	"github.com/phrazzld/marginalia/internal/store"
	"github.com/phrazzld/marginalia/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func createUser(t *testing.T, tx *sql.Tx, username string) *domain.User {
	t.Helper()
	u, err := domain.NewUser(username, "example.com", username+"@example.com", "hash")
	require.NoError(t, err)
	require.NoError(t, postgres.NewPostgresUserStore(tx, quietLogger).Create(context.Background(), u))
	return u
}

func TestUserStoreIntegration(t *testing.T) {
	db := testdb.GetTestDBWithT(t)
	ctx := context.Background()

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		users := postgres.NewPostgresUserStore(tx, quietLogger)
		alice := createUser(t, tx, "alice")

		got, err := users.GetByUsername(ctx, "ALICE", "example.com")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, got.ID)

		dup, err := domain.NewUser("Alice", "example.com", "other@example.com", "hash")
		require.NoError(t, err)
		assert.ErrorIs(t, users.Create(ctx, dup), store.ErrUsernameExists)

		require.NoError(t, users.SetSubscriptions(ctx, alice.ID, true))
		require.NoError(t, users.Rename(ctx, alice.ID, "alice2"))
		got, err = users.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.True(t, got.Subscriptions)
		assert.Equal(t, "alice2", got.Username)

		_, err = users.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})
}

func TestSubscriptionStoreIntegration(t *testing.T) {
	db := testdb.GetTestDBWithT(t)
	ctx := context.Background()

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		subs := postgres.NewPostgresSubscriptionStore(tx, quietLogger)

		active, err := domain.NewSubscription("acct:int-a@example.com", domain.TemplateReply, "General reply notification", true)
		require.NoError(t, err)
		inactive, err := domain.NewSubscription("acct:int-b@example.com", domain.TemplateReply, "General reply notification", false)
		require.NoError(t, err)
		require.NoError(t, subs.Create(ctx, active))
		require.NoError(t, subs.Create(ctx, inactive))
		assert.NotZero(t, active.ID)

		all, err := subs.GetActiveForTemplate(ctx, domain.TemplateReply)
		require.NoError(t, err)
		uris := make([]string, 0, len(all))
		for _, s := range all {
			uris = append(uris, s.URI)
		}
		assert.Contains(t, uris, "acct:int-a@example.com")
		assert.NotContains(t, uris, "acct:int-b@example.com")

		require.NoError(t, subs.SetActive(ctx, inactive.ID, true))
		got, err := subs.GetForURIAndTemplate(ctx, "acct:int-b@example.com", domain.TemplateReply)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.True(t, got[0].Active)

		listed, err := subs.ListForURI(ctx, "acct:int-a@example.com")
		require.NoError(t, err)
		assert.Len(t, listed, 1)
	})
}

func TestGroupStoreIntegration(t *testing.T) {
	db := testdb.GetTestDBWithT(t)
	ctx := context.Background()

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		groups := postgres.NewPostgresGroupStore(tx, quietLogger)
		bob := createUser(t, tx, "bob")

		private, err := domain.NewGroup("Reading Club", "int.example.com", domain.GroupTypePrivate, bob.UserID())
		require.NoError(t, err)
		open, err := domain.NewGroup("Biology", "int.example.com", domain.GroupTypeOpen, "")
		require.NoError(t, err)
		open.Scopes = []string{"https://biopub.org"}
		require.NoError(t, groups.Create(ctx, private))
		require.NoError(t, groups.Create(ctx, open))
		require.NoError(t, groups.AddMember(ctx, private.ID, bob.ID))

		mine, err := groups.ListForUser(ctx, bob.ID)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, private.PubID, mine[0].PubID)

		openGroups, err := groups.ListOpen(ctx, "int.example.com")
		require.NoError(t, err)
		require.Len(t, openGroups, 1)
		assert.Equal(t, []string{"https://biopub.org"}, openGroups[0].Scopes)

		require.NoError(t, groups.RemoveMember(ctx, private.ID, bob.ID))
		mine, err = groups.ListForUser(ctx, bob.ID)
		require.NoError(t, err)
		assert.Empty(t, mine)
	})
}

func TestAnnotationSearchIntegration(t *testing.T) {
	db := testdb.GetTestDBWithT(t)
	ctx := context.Background()

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		annotations := postgres.NewPostgresAnnotationStore(tx, quietLogger)
		index := postgres.NewPostgresSearchIndex(tx, quietLogger)
		carol := createUser(t, tx, "carol")

		a, err := domain.NewAnnotation(carol.UserID(), "", "https://example.com/a", "photosynthesis in leaves")
		require.NoError(t, err)
		a.Shared = true
		a.Tags = []string{"biology"}
		a.Document = &domain.Document{Title: "Plants"}
		require.NoError(t, annotations.Create(ctx, a))
		require.NoError(t, index.Index(ctx, a, false))

		got, err := annotations.GetByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "Plants", got.DocumentTitle())
		assert.Equal(t, []string{"biology"}, got.Tags)

		public := store.SearchQuery{Text: "photosynthesis", Principals: []string{domain.PrincipalEveryone}}
		results, err := index.Search(ctx, public)
		require.NoError(t, err)
		require.Len(t, results, 1)

		n, err := index.SetNIPSA(ctx, carol.UserID(), true)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		results, err = index.Search(ctx, public)
		require.NoError(t, err)
		assert.Empty(t, results, "nipsa'd annotations are hidden from others")

		own := public
		own.UserID = carol.UserID()
		results, err = index.Search(ctx, own)
		require.NoError(t, err)
		assert.Len(t, results, 1, "authors still see their own nipsa'd annotations")

		ids, err := annotations.ReassignUser(ctx, carol.UserID(), "acct:carol2@example.com")
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{a.ID}, ids)

		require.NoError(t, index.Remove(ctx, a.ID))
		require.NoError(t, annotations.Delete(ctx, a.ID))
		assert.ErrorIs(t, annotations.Delete(ctx, a.ID), store.ErrAnnotationNotFound)
	})
}

func TestAuthStoreIntegration(t *testing.T) {
	db := testdb.GetTestDBWithT(t)
	ctx := context.Background()

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		auth := postgres.NewPostgresAuthStore(tx, quietLogger)
		dave := createUser(t, tx, "dave")

		live, err := domain.NewAuthTicket(dave.ID, time.Hour)
		require.NoError(t, err)
		stale := &domain.AuthTicket{ID: "stale-ticket", UserID: dave.ID, Expires: time.Now().UTC().Add(-time.Hour)}
		require.NoError(t, auth.CreateAuthTicket(ctx, live))
		require.NoError(t, auth.CreateAuthTicket(ctx, stale))

		_, err = auth.GetAuthTicket(ctx, stale.ID)
		assert.ErrorIs(t, err, store.ErrAuthTicketNotFound)

		n, err := auth.DeleteExpiredAuthTickets(ctx, time.Now().UTC())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, int64(1))

		_, err = auth.GetAuthTicket(ctx, live.ID)
		assert.NoError(t, err)
	})
}

func TestFeatureStoreIntegration(t *testing.T) {
	db := testdb.GetTestDBWithT(t)

	flags, err := postgres.NewPostgresFeatureStore(db, quietLogger).All(context.Background())
	require.NoError(t, err)

	names := make([]string, 0, len(flags))
	for _, f := range flags {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "filter_groups_by_scope")
}
