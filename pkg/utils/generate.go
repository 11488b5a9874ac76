package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ==================== UUID & TOKEN ====================

func GenerateUUID() uuid.UUID {
	return uuid.New()
}

func ParseUUID(uuidStr string) (uuid.UUID, error) {
	return uuid.Parse(uuidStr)
}

func GenerateSessionToken() uuid.UUID {
	return uuid.New()
}

// ==================== TRANSACTION REFERENCE ====================

// GenerateReference creates a unique payment reference. The reference is
// always generated server-side; clients never supply it.
//
// Format: PREFIX-YYYYMMDDHHMMSS-RANDOM8
func GenerateReference(prefix string) string {
	if prefix == "" {
		prefix = "TXN"
	}

	datePart := time.Now().Format("20060102150405")
	randomPart := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])

	return fmt.Sprintf("%s-%s-%s", prefix, datePart, randomPart)
}
