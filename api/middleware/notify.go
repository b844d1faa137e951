package middleware

import (
	"fmt"
	"net/http"

	"github.com/gharseva/gharseva-backend/internal/automation"
	"github.com/gharseva/gharseva-backend/internal/events"
	"github.com/gharseva/gharseva-backend/pkg/logger"
)

// EventExtractor builds an event payload from the request and the
// response body the handler just produced. Returning nil suppresses the
// notification, for response shapes that do not match the success case.
type EventExtractor func(r *http.Request, status int, body []byte) *events.Event

// bodyRecorder tees the response body while passing writes straight
// through, so client-visible output and timing are unchanged.
type bodyRecorder struct {
	http.ResponseWriter
	status int
	body   []byte
}

func (b *bodyRecorder) WriteHeader(code int) {
	b.status = code
	b.ResponseWriter.WriteHeader(code)
}

func (b *bodyRecorder) Write(p []byte) (int, error) {
	b.body = append(b.body, p...)
	return b.ResponseWriter.Write(p)
}

// NotifyOn attaches event dispatch to a route without the handler
// knowing about notifications. The handler's response is sent first;
// only a 2xx outcome triggers extraction, and the dispatch is handed to
// the async queue so it can never block or fail the request.
func NotifyOn(dispatcher *automation.Dispatcher, logg *logger.Logger, extract EventExtractor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if dispatcher == nil || extract == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &bodyRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			// The response is already on the wire. A panic here must
			// not reach Recoverer, which would append an error
			// envelope to the committed body.
			defer func() {
				if p := recover(); p != nil && logg != nil {
					logg.Error(r.Context(), "notification extraction panicked", fmt.Errorf("panic: %v", p))
				}
			}()

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			if status < 200 || status >= 300 {
				return
			}

			event := extract(r, status, rec.body)
			if event == nil {
				return
			}

			if !dispatcher.Enqueue(*event) && logg != nil {
				ctx := logg.WithEventType(r.Context(), event.Type)
				logg.Warn(ctx, "notification event dropped")
			}
		})
	}
}
