package utils

import (
	"errors"

	"gorm.io/gorm"
)

// Failure classes surfaced by the lease financial engine. Callers branch with
// errors.Is; wrapped messages carry the detail.
var (
	ErrorRecordNotFound = errors.New("record not found")
	ErrorValidation     = errors.New("validation error")
	ErrorStorage        = errors.New("storage error")
	ErrorUnauthorized   = errors.New("unauthorized")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrorRecordNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
