package spotify

import (
	"context"

	"github.com/cockroachdb/errors"
	"golang.org/x/oauth2"
)

// AuthURL starts a PKCE login. state is echoed back to the callback; the
// returned verifier must be kept until the code is exchanged.
func (c *Client) AuthURL(state string) (authURL, verifier string) {
	verifier = oauth2.GenerateVerifier()
	authURL = c.user.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	return authURL, verifier
}

// Exchange trades an authorization code for tokens.
func (c *Client) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	if code == "" {
		return nil, errors.New("authorization code is required")
	}
	if verifier == "" {
		return nil, errors.New("no login in progress")
	}
	token, err := c.user.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, errors.Wrap(err, "failed to exchange authorization code")
	}
	return token, nil
}

// Refresh obtains a new access token. Spotify may or may not rotate the
// refresh token; the returned token always carries one.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, errors.New("refresh token is required")
	}
	// An expired token forces the source to hit the token endpoint.
	ts := c.user.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := ts.Token()
	if err != nil {
		return nil, errors.Wrap(err, "failed to refresh token")
	}
	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}
	return token, nil
}
