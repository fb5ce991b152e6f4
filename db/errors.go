package db

import (
	"strings"

	"github.com/teranos/declgen/errors"
)

// ErrDatabaseClosed is returned when the snapshot store is used after Close,
// e.g. by a watch regeneration racing shutdown.
var ErrDatabaseClosed = errors.New("database is closed")

// IsDatabaseClosed reports whether err is ErrDatabaseClosed or the driver's
// own "database is closed" error, which cannot be wrapped at the source.
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDatabaseClosed) {
		return true
	}
	return strings.Contains(err.Error(), "database is closed")
}
