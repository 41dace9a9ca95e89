package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// ErrorForbidden is returned on authorization failures. Callers must keep the
// message generic: it must not reveal whether the underlying record exists.
var ErrorForbidden = errors.New("forbidden")

// ErrorConflict is returned when a uniqueness race (eg. invoice number) could
// not be resolved within the bounded retry budget.
var ErrorConflict = errors.New("conflict")

var ErrorValidation = errors.New("validation failed")

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
