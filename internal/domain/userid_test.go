package domain

import (
	"errors"
	"testing"
)

func TestParseUserID(t *testing.T) {
	tests := []struct {
		in       string
		username string
		auth     string
		wantErr  bool
	}{
		{in: "acct:alice@example.com", username: "alice", auth: "example.com"},
		{in: "acct:a.b_c@sub.example.org", username: "a.b_c", auth: "sub.example.org"},
		{in: "alice@example.com", wantErr: true},
		{in: "acct:alice", wantErr: true},
		{in: "acct:@example.com", wantErr: true},
		{in: "acct:alice@", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseUserID(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidUserID) {
					t.Fatalf("Expected ErrInvalidUserID, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if got.Username != tt.username || got.Authority != tt.auth {
				t.Errorf("Expected %s@%s, got %s@%s", tt.username, tt.auth, got.Username, got.Authority)
			}
			if got.String() != tt.in {
				t.Errorf("Expected round trip to %s, got %s", tt.in, got.String())
			}
		})
	}
}

func TestUsernameFromUserID(t *testing.T) {
	if got := UsernameFromUserID("acct:carol@example.com"); got != "carol" {
		t.Errorf("Expected carol, got %s", got)
	}
	if got := UsernameFromUserID("carol"); got != "carol" {
		t.Errorf("Expected unparseable input to pass through, got %s", got)
	}
}
