package entity

import "errors"

var (
	ErrUnknownType     = errors.New("unknown entity type")
	ErrEmptyRecord     = errors.New("record carries no payload")
	ErrAmbiguousRecord = errors.New("record carries more than one payload")
	ErrTypeMismatch    = errors.New("record payload does not match its entity type")
)
