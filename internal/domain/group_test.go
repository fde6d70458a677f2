package domain

import "testing"

func TestNewGroup(t *testing.T) {
	g, err := NewGroup("  Reading Club ", "example.com", GroupTypePrivate, "acct:alice@example.com")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(g.PubID) != 8 {
		t.Errorf("Expected 8 character pubid, got %q", g.PubID)
	}
	if g.Slug() != "reading-club" {
		t.Errorf("Expected slug reading-club, got %s", g.Slug())
	}
	if g.IsPublic() {
		t.Error("Expected private group")
	}

	if _, err := NewGroup("", "example.com", GroupTypeOpen, ""); err != ErrEmptyGroupName {
		t.Errorf("Expected ErrEmptyGroupName, got %v", err)
	}
	if _, err := NewGroup("x", "example.com", "secret", ""); err != ErrInvalidGroupType {
		t.Errorf("Expected ErrInvalidGroupType, got %v", err)
	}
}

func TestGroupInScope(t *testing.T) {
	g := Group{Scopes: []string{"https://biopub.org", "http://example.com/docs/"}}

	cases := map[string]bool{
		"https://biopub.org/article/1":  true,
		"http://example.com/docs/intro": true,
		"http://example.com/blog":       false,
		"":                              false,
	}
	for uri, want := range cases {
		if got := g.InScope(uri); got != want {
			t.Errorf("InScope(%q) = %v, want %v", uri, got, want)
		}
	}

	if !(&Group{}).InScope("anything") {
		t.Error("Expected unscoped group to match every document")
	}
}
