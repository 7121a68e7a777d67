package models

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidInput     = errors.New("invalid input")
	ErrConflict         = errors.New("conflict")
	ErrRefundIneligible = errors.New("refund not eligible")
	ErrAlreadyReviewed  = errors.New("booking already reviewed")
	ErrPaymentDeclined  = errors.New("payment declined")
)
