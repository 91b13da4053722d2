package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GriffinCanCode/sketchbox/internal/shared/id"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedTracer() (*Tracer, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return New("sketchbox", zap.New(core)), logs
}

func TestStartSpanNestsUnderParent(t *testing.T) {
	tracer, _ := newObservedTracer()
	defer tracer.Close()

	root, ctx := tracer.StartSpan(context.Background(), "studio.generate")
	child, ctx := tracer.StartSpan(ctx, "client.generate")

	assert.Equal(t, root.TraceID, child.TraceID)
	assert.Equal(t, root.SpanID, child.ParentID)
	assert.Equal(t, child.SpanID, GetSpanID(ctx))
	assert.True(t, id.HasPrefix(string(root.TraceID), id.TracePrefix))
}

func TestTraceLogsSpans(t *testing.T) {
	tracer, logs := newObservedTracer()

	require.NoError(t, tracer.Trace(context.Background(), "ok", func(context.Context) error { return nil }))
	err := tracer.Trace(context.Background(), "fails", func(context.Context) error { return errors.New("boom") })
	assert.EqualError(t, err, "boom")
	tracer.Close()

	assert.Equal(t, 1, logs.FilterMessage("span completed").Len())
	failed := logs.FilterMessage("span completed with error").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "fails", failed[0].ContextMap()["operation"])
}

func TestSubmitAfterCloseIsDropped(t *testing.T) {
	tracer, logs := newObservedTracer()
	tracer.Close()

	span, _ := tracer.StartSpan(context.Background(), "late")
	assert.NotPanics(t, func() { tracer.Submit(span) })
	assert.Equal(t, 0, logs.Len())
}

func TestInjectExtractRoundTrip(t *testing.T) {
	tracer, _ := newObservedTracer()
	defer tracer.Close()

	span, ctx := tracer.StartSpan(context.Background(), "outbound")
	h := http.Header{}
	Inject(ctx, h)

	got := Extract(context.Background(), h)
	assert.Equal(t, span.TraceID, GetTraceID(got))
	assert.Equal(t, span.SpanID, GetSpanID(got))
}

func TestHTTPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tracer, logs := newObservedTracer()

	var seen id.TraceID
	router := gin.New()
	router.Use(HTTPMiddleware(tracer))
	router.GET("/health", func(c *gin.Context) {
		seen = GetTraceID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderTraceID, "trc_upstream")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	tracer.Close()

	assert.Equal(t, id.TraceID("trc_upstream"), seen)
	assert.Equal(t, "trc_upstream", w.Header().Get(HeaderTraceID))
	entries := logs.FilterMessage("span completed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "GET /health", entries[0].ContextMap()["operation"])
	assert.Equal(t, "200", entries[0].ContextMap()["http.status"])
}
