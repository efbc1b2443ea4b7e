// Package store implements the SQL-backed record stores of the website on top
// of gorm. Every query is parameterized; ordering goes through allow-lists.
package store

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrMissingContent is returned when required text is empty.
	ErrMissingContent = errors.New("missing content")
)

// Clock returns the current time; stores take one so tests can pin it.
type Clock func() time.Time

func clockOrNow(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
