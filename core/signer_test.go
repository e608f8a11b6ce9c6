package core

import (
	"testing"

	"golang.org/x/oauth2"
)

func TestBearerAuthorization(t *testing.T) {
	header, err := BearerAuthorization(&oauth2.Token{AccessToken: "abc"})
	if err != nil {
		t.Fatalf("bearer authorization: %v", err)
	}
	if header != "Bearer abc" {
		t.Fatalf("unexpected header %q", header)
	}

	header, err = BearerAuthorization(&oauth2.Token{AccessToken: "abc", TokenType: "bearer"})
	if err != nil {
		t.Fatalf("bearer authorization: %v", err)
	}
	if header != "Bearer abc" {
		t.Fatalf("expected canonical bearer type, got %q", header)
	}

	if _, err := BearerAuthorization(nil); err == nil {
		t.Fatalf("expected nil token to fail")
	}
	if _, err := BearerAuthorization(&oauth2.Token{AccessToken: "  "}); err == nil {
		t.Fatalf("expected empty access token to fail")
	}
}
