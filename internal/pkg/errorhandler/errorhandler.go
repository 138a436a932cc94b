package errorhandler

import (
	"context"
	"net/http"

	"github.com/realty/realty-api/internal/pkg/logger"
	"github.com/realty/realty-api/internal/pkg/response"
)

// HandleError logs the failure with the request-scoped logger and writes the
// error envelope. 5xx responses log at error level, the rest at warn.
func HandleError(ctx context.Context, w http.ResponseWriter, status int, code, message string, err error) {
	HandleErrorWithDetails(ctx, w, status, code, message, nil, err)
}

// HandleErrorWithDetails is HandleError with an error details object
func HandleErrorWithDetails(ctx context.Context, w http.ResponseWriter, status int, code, message string, details map[string]interface{}, err error) {
	l := logger.FromContext(ctx)
	event := l.Warn()
	if status >= http.StatusInternalServerError {
		event = l.Error()
	}

	event = event.
		Str("error_code", code).
		Int("status_code", status)
	if err != nil {
		event = event.Err(err)
	}
	if details != nil {
		event = event.Interface("error_details", details)
	}
	event.Msg(message)

	response.ErrorWithDetails(w, status, code, message, details)
}
