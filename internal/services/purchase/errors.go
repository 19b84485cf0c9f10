package purchase

import "errors"

var (
	ErrUnknownProduct = errors.New("unknown credit pack")
	ErrInvalidOrder   = errors.New("invalid purchase order")
)
