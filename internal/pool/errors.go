package pool

import "errors"

// Every failure aborts the whole operation; none are retried by the engine.
var (
	ErrDeadlineExpired      = errors.New("deadline expired")
	ErrBadPair              = errors.New("assets do not match the pool pair in order")
	ErrInvalidPath          = errors.New("swap path does not match the pool pair")
	ErrInvalidPair          = errors.New("assets do not match the pool pair")
	ErrSlippageA            = errors.New("amount of asset A below minimum")
	ErrSlippageB            = errors.New("amount of asset B below minimum")
	ErrSlippageOut          = errors.New("output amount below minimum")
	ErrRatioExceeded        = errors.New("optimal amount exceeds desired amount")
	ErrZeroLiquidity        = errors.New("deposit would mint zero shares")
	ErrZeroAmountIn         = errors.New("input amount is zero")
	ErrZeroReserves         = errors.New("reserves are empty")
	ErrNoReserve            = errors.New("no reserve for base asset")
	ErrInsufficientShares   = errors.New("share balance below requested amount")
	ErrInsufficientReserves = errors.New("reserves below requested amounts")
	ErrTransferFailed       = errors.New("ledger call failed")
	ErrReentrancy           = errors.New("operation already in flight")
	ErrOverflow             = errors.New("arithmetic overflow")
)
