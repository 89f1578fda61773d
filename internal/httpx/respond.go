package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

type requestIDKey struct{}

// WithRequestID stores the correlation id for the current request.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the correlation id attached by the request logger.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WriteJSON serializes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	RequestID        string `json:"request_id,omitempty"`
}

// WriteError converts err into the JSON error envelope. Non-*Error values
// become 500s; their message is surfaced only in development mode.
func WriteError(w http.ResponseWriter, r *http.Request, err error, development bool, logger *zap.Logger) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		apiErr = Internal(err)
	}

	requestID := RequestID(r.Context())
	if apiErr.Status >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}

	message := apiErr.Message
	if apiErr.Status >= http.StatusInternalServerError && development && apiErr.Unwrap() != nil {
		message = apiErr.Unwrap().Error()
	}

	WriteJSON(w, apiErr.Status, errorBody{
		Error:            apiErr.Code,
		ErrorDescription: message,
		RequestID:        requestID,
	})
}
