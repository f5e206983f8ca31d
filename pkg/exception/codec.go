package exception

import "errors"

var (
	ErrCodecUnknownKind  = errors.New("codec: unknown event kind")
	ErrCodecShortPayload = errors.New("codec: short payload")
)
