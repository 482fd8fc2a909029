package spider

import (
	"encoding/hex"
	"regexp"

	"github.com/google/uuid"
)

// batchPattern matches tokens produced by NewBatchToken.
var batchPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

// NewBatchToken returns a fresh 128-bit random token as 32 lowercase hex
// characters. The charset is safe for container names and label values.
func NewBatchToken() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// ValidBatchToken reports whether token has the shape of a batch token.
func ValidBatchToken(token string) bool {
	return batchPattern.MatchString(token)
}
