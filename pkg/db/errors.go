package db

import (
	"errors"

	"gorm.io/gorm"
)

// IsRecordNotFound reports whether err is gorm's not-found sentinel.
func IsRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
