// Package apperr holds the error codes shared by the account and order
// services. Controllers map codes to HTTP statuses; services never touch
// HTTP types.
package apperr

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

type Code string

const (
	CodeNotFound            Code = "NOT_FOUND"
	CodeAlreadyExists       Code = "ALREADY_EXISTS"
	CodeDuplicateRental     Code = "DUPLICATE_RENTAL"
	CodeLimitExceeded       Code = "LIMIT_EXCEEDED"
	CodeInsufficientFunds   Code = "INSUFFICIENT_FUNDS"
	CodeAlreadyClosed       Code = "ALREADY_CLOSED"
	CodeInvalidState        Code = "INVALID_STATE"
	CodeForbidden           Code = "FORBIDDEN"
	CodeHasOpenOrders       Code = "HAS_OPEN_ORDERS"
	CodeRemoteService       Code = "REMOTE_SERVICE"
	CodeEmptyRemoteResponse Code = "EMPTY_REMOTE_RESPONSE"
)

type coded interface{ Code() Code }

type Error struct {
	code Code
	msg  string
}

func New(code Code, msg string) *Error { return &Error{code: code, msg: msg} }

func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, msg: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string { return e.msg }
func (e *Error) Code() Code    { return e.code }

// InsufficientFundsError carries the missing amount so callers can build a
// top-up hint without the message format leaking into business logic.
type InsufficientFundsError struct {
	Shortfall decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: %s USD is missing for payment", e.Shortfall.StringFixed(2))
}

func (e *InsufficientFundsError) Code() Code { return CodeInsufficientFunds }

// CodeOf extracts the error code, "" for uncoded errors.
func CodeOf(err error) Code {
	var ce coded
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}
