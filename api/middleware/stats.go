package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/gharseva/gharseva-backend/internal/automation"
	"github.com/gharseva/gharseva-backend/pkg/logger"
)

// statsBuffer holds the response back until the handler finishes so the
// body can be enriched before anything reaches the client. Unlike the
// fire-and-forget notify path, this middleware awaits the stats fetch
// because it mutates the body.
type statsBuffer struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func (s *statsBuffer) Header() http.Header { return s.header }

func (s *statsBuffer) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
}

func (s *statsBuffer) Write(p []byte) (int, error) {
	return s.body.Write(p)
}

// AddNotificationStats enriches successful JSON responses with the
// caller's notification statistics under a notification_stats key.
func AddNotificationStats(engine *automation.Engine, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if engine == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			buf := &statsBuffer{header: w.Header().Clone()}
			next.ServeHTTP(buf, r)

			status := buf.status
			if status == 0 {
				status = http.StatusOK
			}

			payload := buf.body.Bytes()
			enriched := enrichWithStats(r, engine, logg, status, payload)

			for key, values := range buf.header {
				w.Header()[key] = values
			}
			w.Header().Set("Content-Length", strconv.Itoa(len(enriched)))
			w.WriteHeader(status)
			w.Write(enriched)
		})
	}
}

// enrichWithStats injects stats into the success envelope; on any
// mismatch or failure the original payload passes through untouched.
func enrichWithStats(r *http.Request, engine *automation.Engine, logg *logger.Logger, status int, payload []byte) []byte {
	if status < 200 || status >= 300 {
		return payload
	}
	userID, err := uuid.Parse(UserIDFromContext(r.Context()))
	if err != nil {
		return payload
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return payload
	}
	rawData, ok := envelope["data"]
	if !ok {
		return payload
	}
	var data map[string]any
	if err := json.Unmarshal(rawData, &data); err != nil {
		return payload
	}

	stats, err := engine.Stats(r.Context(), &userID)
	if err != nil {
		if logg != nil {
			logg.Error(r.Context(), "notification stats enrichment failed", err)
		}
		return payload
	}
	data["notification_stats"] = stats

	enrichedData, err := json.Marshal(data)
	if err != nil {
		return payload
	}
	envelope["data"] = enrichedData
	enriched, err := json.Marshal(envelope)
	if err != nil {
		return payload
	}
	return enriched
}
