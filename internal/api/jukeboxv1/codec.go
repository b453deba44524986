// Package jukeboxv1 defines the jukebox.v1 Connect services: message types,
// procedure names, handler constructors and clients. Messages are plain Go
// structs carried by a JSON codec.
package jukeboxv1

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// Codec marshals messages as JSON. It replaces connect's default JSON codec,
// which only accepts protobuf messages.
type Codec struct{}

// Name returns the codec name used in content types.
func (Codec) Name() string {
	return "json"
}

// Marshal encodes a message.
func (Codec) Marshal(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal message")
	}
	return data, nil
}

// Unmarshal decodes a message. An empty body leaves the message zero.
func (Codec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return errors.Wrap(err, "failed to unmarshal message")
	}
	return nil
}
