package api

import (
	"fmt"
	"net/http"

	"github.com/cespare/xxhash/v2"
	servertiming "github.com/mitchellh/go-server-timing"
)

// writeEntityJSON writes a 200 JSON response tagged with a weak ETag over
// the encoded body. Clients may compare tags to detect changed data; the
// server never answers 304.
func writeEntityJSON(w http.ResponseWriter, v any) {
	body, err := encodeJSON(v)
	if err != nil {
		writeInternalError(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("ETag", fmt.Sprintf(`W/"%016x"`, xxhash.Sum64(body)))
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // Best-effort write to response; connection may be closed
	w.Write(body)
}

// storeTiming is a running Server-Timing metric for one repository call.
type storeTiming struct {
	metric *servertiming.Metric
}

// startStoreTiming starts a "store" metric when the request carries
// Server-Timing state. The returned value is always safe to Stop.
func startStoreTiming(r *http.Request, desc string) storeTiming {
	timing := servertiming.FromContext(r.Context())
	if timing == nil {
		return storeTiming{}
	}
	return storeTiming{metric: timing.NewMetric("store").WithDesc(desc).Start()}
}

// Stop ends the metric. It must run before the response header is written.
func (t storeTiming) Stop() {
	if t.metric != nil {
		t.metric.Stop()
	}
}

// serverTimingMiddleware attaches Server-Timing state to each request and
// emits the header when the response is written.
func (s *Server) serverTimingMiddleware(next http.Handler) http.Handler {
	return servertiming.Middleware(next, nil)
}
