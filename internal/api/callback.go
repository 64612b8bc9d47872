package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/nerrad567/gray-logic-device/internal/callback"
)

// handleCallback routes a registry change notification.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	n, err := decodeNotification(r.Body)
	if err != nil {
		s.metrics.observeCallback(nil, r.Method, "invalid_body")
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "callback body too large")
			return
		}
		writeBadRequest(w, "invalid callback body")
		return
	}

	outcome, err := s.callbacks.Handle(r.Context(), callback.Verb(r.Method), n)
	s.metrics.observeCallback(n, r.Method, outcome.Status.String())
	if err != nil {
		s.logger.Error("callback handler failed",
			"method", r.Method,
			"error", err,
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
		writeInternalError(w, "callback handler failed")
		return
	}

	switch outcome.Status {
	case callback.StatusRejected:
		writeBadRequest(w, outcome.Err().Error())
	case callback.StatusNotFound:
		writeNotFound(w, outcome.Err().Error())
	default:
		w.WriteHeader(http.StatusOK)
	}
}

// decodeNotification reads an optional JSON notification. An empty body or
// a JSON null yields a nil notification.
func decodeNotification(body io.Reader) (*callback.Notification, error) {
	if body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var n *callback.Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, err
	}
	return n, nil
}
