package openai

import (
	"errors"
	"net"
	"strings"

	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
	goopenai "github.com/sashabaranov/go-openai"
)

// classify maps a go-openai SDK error (or a generic transport error)
// to a typed ProviderError, mirroring
// original_source/src/providers/openai.py:_map_exception's three
// tiers: known-retryable SDK errors, known-fatal SDK errors, then
// string-matched transient network errors.
func classify(model string, err error) error {
	if err == nil {
		return nil
	}

	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		switch status := apiErr.HTTPStatusCode; {
		case status == 429 || status >= 500:
			return types.NewRetryableError("openai transient error ("+model+"): "+err.Error(), err)
		case status == 400 || status == 401 || status == 403:
			return types.NewNonRetryableError("openai fatal error ("+model+"): "+err.Error(), err)
		default:
			return types.NewUnknownError("openai error ("+model+"): "+err.Error(), err)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return types.NewRetryableError("openai network error ("+model+"): "+err.Error(), err)
	}

	msg := strings.ToLower(err.Error())
	transientNeedles := []string{
		"connection error", "server_error", "upstream connect error",
		"timed out", "server disconnected", "remoteprotocolerror",
		"connection closed", "peer closed connection", "incomplete chunked read",
	}
	for _, needle := range transientNeedles {
		if strings.Contains(msg, needle) {
			return types.NewRetryableError("openai transient error ("+model+"): "+err.Error(), err)
		}
	}

	return types.NewUnknownError("openai error ("+model+"): "+err.Error(), err)
}
