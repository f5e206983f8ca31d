package exception

import "errors"

var (
	ErrStoreEmptyDSN   = errors.New("store: empty dsn")
	ErrStoreEmptyRunID = errors.New("store: empty run id")
)
