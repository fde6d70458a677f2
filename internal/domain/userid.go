package domain

import (
	"fmt"
	"strings"
)

// UserID is the parsed form of an "acct:username@authority" identifier.
type UserID struct {
	Username  string
	Authority string
}

// String renders the userid in acct: form.
func (u UserID) String() string {
	return FormatUserID(u.Username, u.Authority)
}

// FormatUserID builds "acct:username@authority".
func FormatUserID(username, authority string) string {
	return fmt.Sprintf("acct:%s@%s", username, authority)
}

// ParseUserID splits an acct: userid into its parts.
func ParseUserID(userid string) (UserID, error) {
	rest, ok := strings.CutPrefix(userid, "acct:")
	if !ok {
		return UserID{}, fmt.Errorf("%w: %q", ErrInvalidUserID, userid)
	}
	at := strings.LastIndex(rest, "@")
	if at <= 0 || at == len(rest)-1 {
		return UserID{}, fmt.Errorf("%w: %q", ErrInvalidUserID, userid)
	}
	return UserID{Username: rest[:at], Authority: rest[at+1:]}, nil
}

// UsernameFromUserID returns the username part of userid, or userid itself
// when it is not in acct: form.
func UsernameFromUserID(userid string) string {
	parsed, err := ParseUserID(userid)
	if err != nil {
		return userid
	}
	return parsed.Username
}
