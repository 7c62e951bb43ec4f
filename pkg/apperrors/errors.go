package apperrors

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrAlreadyAllocated  = errors.New("statement already allocated")
	ErrNoUnits           = errors.New("no units found for condo")
	ErrDeleteUnconfirmed = errors.New("delete not confirmed by re-read")
	ErrPermissionDenied  = errors.New("manager lacks permission for this condo")
)
