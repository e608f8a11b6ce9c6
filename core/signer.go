package core

import (
	"fmt"
	"strings"

	"golang.org/x/oauth2"
)

// BearerAuthorization renders the Authorization header value for token.
func BearerAuthorization(token *oauth2.Token) (string, error) {
	if token == nil {
		return "", fmt.Errorf("core: token is required for bearer signing")
	}
	access := strings.TrimSpace(token.AccessToken)
	if access == "" {
		return "", fmt.Errorf("core: access token is required for bearer signing")
	}
	return token.Type() + " " + access, nil
}
