package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewRequestID returns a 32-character hex id for gateway API requests.
func NewRequestID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
