package editor

import "errors"

var (
	ErrLineIndex       = errors.New("line item index out of range")
	ErrChargeIndex     = errors.New("allowance/charge index out of range")
	ErrRowNotFound     = errors.New("VAT row not found")
	ErrVATLocked       = errors.New("VAT category is locked for a supplier not registered for VAT")
	ErrDuplicateVATRow = errors.New("a VAT row with this rate and category already exists")
	ErrUnknownAction   = errors.New("unknown action")
	ErrEmptyState      = errors.New("state has no invoice")
)
