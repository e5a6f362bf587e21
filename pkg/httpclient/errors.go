package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/errors"
)

const (
	maxErrorBody    = 1 << 20
	maxErrorMessage = 512
)

// upstreamError covers the error envelopes used by the APIs we call:
// {"error":{"message":"..."}}, {"error":"..."} and {"message":"..."}.
type upstreamError struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
}

func extractMessage(body []byte) string {
	var env upstreamError
	if json.Unmarshal(body, &env) == nil {
		if len(env.Error) > 0 {
			var nested struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(env.Error, &nested) == nil && nested.Message != "" {
				return nested.Message
			}
			var flat string
			if json.Unmarshal(env.Error, &flat) == nil && flat != "" {
				return flat
			}
		}
		if env.Message != "" {
			return env.Message
		}
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorMessage {
		msg = msg[:maxErrorMessage] + "..."
	}
	return msg
}

// ParseResponseError consumes and closes the body of a non-2xx response and
// maps it to an AppError where the status has a meaning we act on. Other
// statuses yield a plain error carrying the status and upstream message.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err)
	}

	msg := extractMessage(body)
	qualified := fmt.Sprintf("%s: %s", serviceName, msg)

	switch status := resp.StatusCode; {
	case status == http.StatusBadRequest:
		return apperrors.InvalidInput(qualified)
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(qualified)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(qualified)
	case status == http.StatusNotFound:
		return apperrors.NotFound(serviceName+" resource", msg)
	case status == http.StatusTooManyRequests:
		return apperrors.RateLimited(qualified)
	case status == http.StatusServiceUnavailable:
		return apperrors.ServiceUnavailable(qualified)
	case status >= 500:
		return fmt.Errorf("%s server error (%d): %s", serviceName, status, msg)
	default:
		return fmt.Errorf("%s returned status %d: %s", serviceName, status, msg)
	}
}
