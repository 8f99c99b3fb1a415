package mcp

import (
	"fmt"
	"strings"

	"github.com/Pervaiz106/Blender-Mcp-Server/internal/logger"
)

// sensitivePatterns mark errors that may leak credentials or config
var sensitivePatterns = []string{
	"api_key",
	"token",
	"password",
	"secret",
	"credential",
	"auth",
}

// internalErrorPatterns mark transport and filesystem failures whose
// detail belongs in the server log, not in a tool response
var internalErrorPatterns = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such file",
	"permission denied",
	"i/o timeout",
	"context canceled",
	"eof",
}

// userFacingPatterns mark validation-style errors that are safe and
// useful to return verbatim
var userFacingPatterns = []string{
	"not found",
	"already exists",
	"invalid",
	"required",
	"must be",
	"cannot be",
	"is not",
	"exceeded",
	"limit",
	"blender", // connection guidance mentions the listener by name
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// SanitizeError returns a client-safe error message. The full error is
// always logged; what the client sees depends on what the message
// looks like.
func SanitizeError(err error, operation string) error {
	if err == nil {
		return nil
	}

	lower := strings.ToLower(err.Error())

	switch {
	case containsAny(lower, sensitivePatterns):
		logger.Error("%s failed (sensitive): %v", operation, err)
		return fmt.Errorf("%s failed: internal configuration error", operation)
	case containsAny(lower, internalErrorPatterns):
		logger.Error("%s failed (internal): %v", operation, err)
		return fmt.Errorf("%s failed: internal error", operation)
	case containsAny(lower, userFacingPatterns):
		return err
	}

	logger.Error("%s failed: %v", operation, err)

	// Short messages that matched nothing above are probably safe
	if msg := err.Error(); len(msg) < 50 {
		return fmt.Errorf("%s failed: %s", operation, msg)
	}
	return fmt.Errorf("%s failed: an unexpected error occurred", operation)
}
