package codec

import "errors"

// Sentinel kinds for codec errors.
var (
	ErrMalformedTopic   = errors.New("malformed topic")
	ErrMalformedLedger  = errors.New("malformed ledger")
	ErrMalformedControl = errors.New("malformed control")
)
