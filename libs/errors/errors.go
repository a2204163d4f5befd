package errors

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotFound - resource not found
	ErrNotFound = errors.New("not found")
	// ErrAccountNotFound - no such account at the bank
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidCredentials - username/password verification failed
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInsufficientFunds - balance below the requested debit
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrUnknownBank - the named bank is not in the routing table
	ErrUnknownBank = errors.New("unknown bank")
	// ErrNotPrepared - commit requested for a transaction id with no prepared entry
	ErrNotPrepared = errors.New("transaction not prepared")
	// ErrTokenExpired - the session token is past its expiry
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid - the session token is missing or unknown
	ErrTokenInvalid = errors.New("token invalid")
	// ErrWrongAccount - the token does not own the requested account
	ErrWrongAccount = errors.New("account not owned by session")
	// ErrInvalidAmount - payment amount failed validation
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrMissingPaymentID - payments require a client supplied payment id
	ErrMissingPaymentID = errors.New("missing payment id")
	// ErrCertificateExpired - a certificate is expired
	ErrCertificateExpired = errors.New("certificate expired")
	// ErrNotConnected - no channel to the gateway is open
	ErrNotConnected = errors.New("not connected to gateway")
)

// ErrorBundle creates a new response error
type ErrorBundle struct {
	cause   error
	message string
	data    interface{}
}

// New creates a new response error
func New(cause error, message string, data interface{}) error {
	return &ErrorBundle{
		cause,
		message,
		data,
	}
}

// Data from error origin
func (e ErrorBundle) Data() interface{} {
	return e.data
}

// Cause returns the associated cause
func (e ErrorBundle) Cause() error {
	return e.cause
}

// Unwrap returns the associated cause
func (e ErrorBundle) Unwrap() error {
	return e.cause
}

// Error turns into an error
func (e ErrorBundle) Error() string {
	return e.message
}

// DataToString returns string representation of data
func (e ErrorBundle) DataToString() string {
	if e.data == nil {
		return "no error bundle data"
	}
	b, err := json.Marshal(e.data)
	if err != nil {
		return fmt.Sprintf("error retrieving error bundle data %s", err.Error())
	}
	return string(b)
}

// Wrap wraps an error
func Wrap(cause error, message string) error {
	return &ErrorBundle{
		cause:   cause,
		message: message,
		data:    nil,
	}
}

// MultiError - allows for multiple errors, not necessarily chained
type MultiError struct {
	Errs []error
}

// Append - append new errors to this multierror
func (me *MultiError) Append(err ...error) {
	if me.Errs == nil {
		me.Errs = []error{}
	}
	me.Errs = append(me.Errs, err...)
}

// Count - get the number of errors contained herein
func (me *MultiError) Count() int {
	return len(me.Errs)
}

type wErrs struct {
	err   error
	cause error
}

func (we *wErrs) Error() string {
	var result string
	if we.err != nil {
		result = we.err.Error()
	}
	if we.cause != nil {
		result += ": " + we.cause.Error()
	}
	return result
}

// Is - implement interface{ Is(error) bool } for equality check
func (we *wErrs) Is(err error) bool {
	return err == we.err
}

// As - implement interface{ As(target interface{}) bool } for equality check
func (we *wErrs) As(target interface{}) bool {
	return errors.As(we.err, target)
}

// Unwrap - implement unwrap interface to get the cause
func (we *wErrs) Unwrap() error {
	return we.cause
}

// Unwrap - implement Unwrap for unwrapping sub errors
func (me *MultiError) Unwrap() error {
	var errs []error
	// flatten all the errors and their causes so each can be
	// reached by errors.Is / errors.As
	for _, v := range me.Errs {
		vv := v
		for {
			errs = append(errs, vv)
			err := errors.Unwrap(vv)
			if err == nil {
				break
			}
			vv = err
		}
	}

	var wrappedErr = new(wErrs)
	for _, v := range errs {
		if v != nil {
			wrappedErr = &wErrs{err: v, cause: wrappedErr}
		}
	}
	wrappedErr = &wErrs{err: errors.New("wrapped errors"), cause: wrappedErr}

	return wrappedErr
}

// Error - implement Error interface
func (me *MultiError) Error() string {
	var errText string
	for _, err := range me.Errs {
		if errText == "" {
			errText = fmt.Sprintf("%s", err)
		} else {
			errText += fmt.Sprintf("; %s", err)
		}
	}
	return errText
}
