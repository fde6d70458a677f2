package shared

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type credentials struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required"`
}

type selfChecking struct {
	OK bool `json:"ok"`
}

func (s selfChecking) Validate() error {
	if !s.OK {
		return errors.New("not ok")
	}
	return nil
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
		fails   bool
	}{
		{name: "valid", body: `{"username":"alice","password":"pw"}`},
		{name: "empty body", body: "", wantErr: ErrEmptyBody, fails: true},
		{name: "malformed", body: `{"username":`, fails: true},
		{name: "too large", body: `{"username":"` + strings.Repeat("a", MaxBodyBytes) + `"}`, fails: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var got credentials
			err := DecodeJSON(req, &got)
			if !tc.fails {
				require.NoError(t, err)
				assert.Equal(t, "alice", got.Username)
				return
			}
			require.Error(t, err)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(credentials{Username: "alice", Password: "pw"}))
	assert.Error(t, ValidateRequest(credentials{Username: "al", Password: "pw"}))
	assert.Error(t, ValidateRequest(credentials{}))

	assert.NoError(t, ValidateRequest(selfChecking{OK: true}))
	assert.EqualError(t, ValidateRequest(selfChecking{}), "not ok")
}

func TestQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=5&offset=x", nil)

	n, err := QueryInt(req, "limit", 20)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = QueryInt(req, "missing", 20)
	require.NoError(t, err)
	assert.Equal(t, 20, n)

	_, err = QueryInt(req, "offset", 0)
	assert.Error(t, err)
}
