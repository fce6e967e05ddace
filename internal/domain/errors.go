package domain

import "errors"

var (
	ErrCommandFailure  = errors.New("control plane command failed")
	ErrParse           = errors.New("unexpected control plane output")
	ErrNameExhausted   = errors.New("no free interface name")
	ErrTransactionDone = errors.New("transaction already executed")
	ErrInvalidOption   = errors.New("invalid option")
)
