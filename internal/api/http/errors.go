package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/GriffinCanCode/AgentOS/embedhost/internal/domain/embed"
	"github.com/GriffinCanCode/AgentOS/embedhost/internal/platform/native"
)

// statusFor maps an embed error kind to an HTTP status.
func statusFor(err error) int {
	switch embed.KindOf(err) {
	case embed.KindWindowNotFound:
		return http.StatusNotFound
	case embed.KindAlreadyEmbedding, embed.KindNotEmbedded:
		return http.StatusConflict
	case embed.KindLaunchFailed, embed.KindReparentFailed, embed.KindNativeCall:
		if errors.Is(err, native.ErrUnsupported) {
			return http.StatusNotImplemented
		}
		return http.StatusBadGateway
	case embed.KindUnavailable:
		return http.StatusServiceUnavailable
	case embed.KindInvalidRequest:
		return http.StatusBadRequest
	case embed.KindDetachPartial:
		return http.StatusOK
	}

	switch {
	case errors.Is(err, embed.ErrEmbeddedWindow):
		return http.StatusConflict
	case errors.Is(err, embed.ErrNoWindow):
		return http.StatusBadRequest
	case errors.Is(err, native.ErrUnsupported):
		return http.StatusNotImplemented
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return 499
	}
	return http.StatusInternalServerError
}
