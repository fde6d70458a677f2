package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/marginalia/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret  = "test-secret-that-is-long-enough-for-testing"
	wrongSecret = "wrong-secret-that-is-long-enough-for-testing"
)

func TestNewJWTService_RejectsShortSecret(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService(config.AuthConfig{JWTSecret: "short", TokenLifetimeMinutes: 60})
	assert.Error(t, err)

	svc, err := NewJWTService(config.AuthConfig{JWTSecret: testSecret, TokenLifetimeMinutes: 60})
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tokenLifetime := 60 * time.Minute
	userID := uuid.New()

	svc := newHMACJWTService(testSecret, tokenLifetime, func() time.Time { return fixedTime })

	token, err := svc.GenerateToken(context.Background(), userID, "ticket-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "ticket-1", claims.TicketID)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, fixedTime.Add(tokenLifetime).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)
}

func TestValidateToken(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tokenLifetime := 60 * time.Minute
	userID := uuid.New()
	at := func(ts time.Time) func() time.Time { return func() time.Time { return ts } }

	tests := []struct {
		name      string
		setupFunc func() (JWTService, string)
		wantErr   error
	}{
		{
			name: "valid token",
			setupFunc: func() (JWTService, string) {
				svc := newHMACJWTService(testSecret, tokenLifetime, at(fixedTime))
				token, _ := svc.GenerateToken(context.Background(), userID, "t")
				return svc, token
			},
		},
		{
			name: "within clock skew",
			setupFunc: func() (JWTService, string) {
				token, _ := newHMACJWTService(testSecret, tokenLifetime, at(fixedTime)).
					GenerateToken(context.Background(), userID, "t")
				return newHMACJWTService(testSecret, tokenLifetime, at(fixedTime.Add(tokenLifetime+time.Minute))), token
			},
		},
		{
			name: "expired token",
			setupFunc: func() (JWTService, string) {
				token, _ := newHMACJWTService(testSecret, tokenLifetime, at(fixedTime)).
					GenerateToken(context.Background(), userID, "t")
				return newHMACJWTService(testSecret, tokenLifetime, at(fixedTime.Add(tokenLifetime+time.Hour))), token
			},
			wantErr: ErrExpiredToken,
		},
		{
			name: "invalid signature",
			setupFunc: func() (JWTService, string) {
				token, _ := newHMACJWTService(testSecret, tokenLifetime, at(fixedTime)).
					GenerateToken(context.Background(), userID, "t")
				return newHMACJWTService(wrongSecret, tokenLifetime, at(fixedTime)), token
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "missing ticket",
			setupFunc: func() (JWTService, string) {
				svc := newHMACJWTService(testSecret, tokenLifetime, at(fixedTime))
				token, _ := svc.GenerateToken(context.Background(), userID, "")
				return svc, token
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "malformed token",
			setupFunc: func() (JWTService, string) {
				return newHMACJWTService(testSecret, tokenLifetime, at(fixedTime)), "this.is.not.a.valid.jwt.token"
			},
			wantErr: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, token := tt.setupFunc()
			claims, err := svc.ValidateToken(context.Background(), token)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
			} else {
				require.NoError(t, err)
				assert.Equal(t, userID, claims.UserID)
			}
		})
	}
}
