// Package connect provides Connect RPC service implementations.
package connect

import (
	"context"
	"crypto/subtle"

	"connectrpc.com/connect"

	"github.com/KuotenoAshiato/spotify-jukebox/internal/infra/config"
)

const (
	// AdminPasswordHeader is the header carrying the admin password.
	AdminPasswordHeader = "X-Admin-Password"
)

// NewAdminAuthInterceptor creates an interceptor that checks the admin
// password header on every AdminService call.
func NewAdminAuthInterceptor(cfg *config.Config) connect.UnaryInterceptorFunc {
	expected := []byte(cfg.Admin.Password)
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			password := req.Header().Get(AdminPasswordHeader)
			if password == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, nil)
			}

			if subtle.ConstantTimeCompare([]byte(password), expected) != 1 {
				return nil, connect.NewError(connect.CodeUnauthenticated, nil)
			}

			return next(ctx, req)
		}
	}
}
