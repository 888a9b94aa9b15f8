package tracing

import (
	"context"
	"net/http"
	"strconv"

	"github.com/yousuf64/shift"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
)

// OtelMiddleware creates a server span per request, continuing any propagated trace
func OtelMiddleware(next shift.HandlerFunc) shift.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, route shift.Route) error {
		ctx := GetPropagator().Extract(r.Context(), &httpHeaderCarrier{r.Header})

		ctx, span := StartSpan(ctx, r.Method+" "+route.Path)
		defer span.End()

		span.SetAttributes(
			semconv.HTTPRequestMethodKey.String(r.Method),
			semconv.URLPath(r.URL.Path),
			semconv.HTTPRoute(route.Path),
			attribute.String("http.user_agent", r.UserAgent()),
		)

		if r.ContentLength > 0 {
			span.SetAttributes(semconv.HTTPRequestBodySize(int(r.ContentLength)))
		}

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		err := next(wrapped, r.WithContext(ctx), route)

		span.SetAttributes(semconv.HTTPResponseStatusCode(wrapped.statusCode))

		if wrapped.statusCode >= 400 || err != nil {
			span.SetStatus(codes.Error, "HTTP "+strconv.Itoa(wrapped.statusCode))
		}

		return err
	}
}

// RequestKind names the purpose of an outbound request made during an audit
type RequestKind string

const (
	RequestPageFetch RequestKind = "page_fetch"
	RequestLinkCheck RequestKind = "link_check"
	RequestAuxFetch  RequestKind = "aux_fetch"
)

// RequestKindKey is the span attribute carrying the RequestKind
const RequestKindKey = attribute.Key("seoaudit.request_kind")

type requestKindKey struct{}

// WithRequestKind tags ctx so client spans for requests made with it are named after kind
func WithRequestKind(ctx context.Context, kind RequestKind) context.Context {
	return context.WithValue(ctx, requestKindKey{}, kind)
}

// RequestKindFrom returns the kind set by WithRequestKind
func RequestKindFrom(ctx context.Context) (RequestKind, bool) {
	kind, ok := ctx.Value(requestKindKey{}).(RequestKind)
	return kind, ok
}

// HTTPClientMiddleware creates a client span per outbound request. Requests
// tagged with a RequestKind go to audited sites and carry no trace headers.
func HTTPClientMiddleware() func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		return &tracingRoundTripper{next: next}
	}
}

// httpHeaderCarrier implements TextMapCarrier for HTTP headers
type httpHeaderCarrier struct {
	header http.Header
}

func (h *httpHeaderCarrier) Get(key string) string {
	return h.header.Get(key)
}

func (h *httpHeaderCarrier) Set(key, value string) {
	h.header.Set(key, value)
}

func (h *httpHeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(h.header))
	for k := range h.header {
		keys = append(keys, k)
	}
	return keys
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// tracingRoundTripper implements http.RoundTripper with tracing
type tracingRoundTripper struct {
	next http.RoundTripper
}

func (t *tracingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	kind, audited := RequestKindFrom(req.Context())

	name := "http.client " + req.Method
	if audited {
		name = "audit." + string(kind) + " " + req.Method
	}

	ctx, span := StartSpan(req.Context(), name)
	defer span.End()

	span.SetAttributes(
		semconv.HTTPRequestMethodKey.String(req.Method),
		semconv.URLFull(req.URL.String()),
		semconv.URLScheme(req.URL.Scheme),
		attribute.String("network.peer.name", req.URL.Hostname()),
	)
	if audited {
		span.SetAttributes(RequestKindKey.String(string(kind)))
	}

	if req.URL.Port() != "" {
		span.SetAttributes(attribute.String("network.peer.port", req.URL.Port()))
	}

	// RoundTrippers must not modify the caller's request
	req = req.Clone(ctx)
	if !audited {
		GetPropagator().Inject(ctx, &httpHeaderCarrier{req.Header})
	}

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		SetError(ctx, err)
		return resp, err
	}

	span.SetAttributes(semconv.HTTPResponseStatusCode(resp.StatusCode))
	if resp.ContentLength >= 0 {
		span.SetAttributes(semconv.HTTPResponseBodySize(int(resp.ContentLength)))
	}

	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, "HTTP "+strconv.Itoa(resp.StatusCode))
	}

	return resp, nil
}
