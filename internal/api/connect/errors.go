package connect

import (
	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/KuotenoAshiato/spotify-jukebox/internal/app/session"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/knowledge"
)

var errHostRejected = errors.New("host verification failed")

// toConnectError maps a session error onto a Connect status code.
func toConnectError(procedure string, err error) error {
	var code connect.Code
	switch {
	case errors.Is(err, session.ErrInvalidInput),
		errors.Is(err, knowledge.ErrInvalidResolution),
		errors.Is(err, knowledge.ErrMissingCustomGenre):
		code = connect.CodeInvalidArgument
	case errors.Is(err, session.ErrRoomNotFound),
		errors.Is(err, knowledge.ErrNoConflict),
		errors.Is(err, session.ErrLoginNotPending):
		code = connect.CodeNotFound
	case errors.Is(err, session.ErrTrackRejected),
		errors.Is(err, session.ErrLoginUnavailable):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, errHostRejected):
		code = connect.CodePermissionDenied
	default:
		zlog.Error().Msgf("rpc failed: procedure=%s error=%v", procedure, err)
		code = connect.CodeInternal
	}
	return connect.NewError(code, err)
}
