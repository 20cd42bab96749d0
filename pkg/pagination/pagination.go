package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/farmstand-backend/pkg/errors"
)

const (
	// DefaultLimit applies when a caller passes no page size.
	DefaultLimit = 20
	// MaxLimit caps any single catalog read.
	MaxLimit = 100

	cursorVersion = "c1"
	maxCursorLen  = 256
)

// Cursor is a keyset position: rows strictly older than (CreatedAt, ID) come next.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// NormalizeLimit clamps limit into [1, MaxLimit], defaulting non-positive values.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// EncodeCursor produces an opaque URL-safe token.
func EncodeCursor(c Cursor) string {
	raw := strings.Join([]string{
		cursorVersion,
		c.CreatedAt.UTC().Format(time.RFC3339Nano),
		c.ID.String(),
	}, "|")
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// ParseCursor decodes a token from EncodeCursor. A blank token means the first page and
// yields nil without error; anything malformed is a validation error.
func ParseCursor(token string) (*Cursor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	if len(token) > maxCursorLen {
		return nil, invalidCursor(fmt.Errorf("cursor longer than %d bytes", maxCursorLen))
	}

	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, invalidCursor(err)
	}
	parts := strings.Split(string(decoded), "|")
	if len(parts) != 3 || parts[0] != cursorVersion {
		return nil, invalidCursor(fmt.Errorf("unrecognized cursor layout"))
	}
	createdAt, err := time.Parse(time.RFC3339Nano, parts[1])
	if err != nil {
		return nil, invalidCursor(err)
	}
	id, err := uuid.Parse(parts[2])
	if err != nil {
		return nil, invalidCursor(err)
	}
	return &Cursor{CreatedAt: createdAt, ID: id}, nil
}

func invalidCursor(err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
}
