package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/krisalay/asset-cache/types"
)

const tracerName = "github.com/krisalay/asset-cache/fetch"

// DefaultTimeout bounds a single asset download.
const DefaultTimeout = 30 * time.Second

var errTooLarge = errors.New("asset exceeds size limit")

// HTTPLoader downloads assets with a plain HTTP GET.
type HTTPLoader struct {
	client      *http.Client
	maxBytes    int64
	defaultType string
	tracer      trace.Tracer
}

// HTTPOption configures an HTTPLoader.
type HTTPOption func(*HTTPLoader)

// WithHTTPClient replaces the client used for downloads.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(l *HTTPLoader) {
		if client != nil {
			l.client = client
		}
	}
}

// WithMaxBytes rejects bodies larger than n bytes. Zero means unlimited.
func WithMaxBytes(n int64) HTTPOption {
	return func(l *HTTPLoader) {
		l.maxBytes = n
	}
}

// WithDefaultContentType sets the type recorded when neither the response
// nor the asset declares one.
func WithDefaultContentType(ct string) HTTPOption {
	return func(l *HTTPLoader) {
		if ct != "" {
			l.defaultType = ct
		}
	}
}

// NewHTTPLoader returns a loader with a DefaultTimeout client.
func NewHTTPLoader(opts ...HTTPOption) *HTTPLoader {
	l := &HTTPLoader{
		client:      &http.Client{Timeout: DefaultTimeout},
		defaultType: types.DefaultContentType,
		tracer:      otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

/*
Load fetches asset.Key and encodes the body.

1. GET the URL; a transport error or a non-2xx status is FetchFailed
2. Stream the body through the base64 encoder; a read error is DecodeFailed
3. Record the declared Content-Type, falling back to the asset's hint
*/
func (l *HTTPLoader) Load(ctx context.Context, asset types.Asset) (types.Payload, error) {
	ctx, span := l.tracer.Start(ctx, "fetch.http",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("asset.key", asset.Key)),
	)
	defer span.End()

	payload, err := l.load(ctx, asset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load asset")
		return types.Payload{}, err
	}
	span.SetAttributes(
		attribute.String("asset.content_type", payload.ContentType),
		attribute.Int("asset.encoded_length", len(payload.EncodedData)),
	)
	return payload, nil
}

func (l *HTTPLoader) load(ctx context.Context, asset types.Asset) (types.Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.Key, nil)
	if err != nil {
		return types.Payload{}, types.FetchFailed(err, asset.Key)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return types.Payload{}, types.FetchFailed(err, asset.Key)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4<<10)
		return types.Payload{}, types.FetchStatus(asset.Key, resp.StatusCode)
	}

	if l.maxBytes > 0 && resp.ContentLength > l.maxBytes {
		return types.Payload{}, types.FetchFailed(
			fmt.Errorf("%w: %d > %d bytes", errTooLarge, resp.ContentLength, l.maxBytes), asset.Key)
	}

	var body io.Reader = resp.Body
	if l.maxBytes > 0 {
		body = &limitReader{r: resp.Body, remaining: l.maxBytes}
	}

	encoded, err := Encode(body)
	if err != nil {
		if errors.Is(err, errTooLarge) {
			return types.Payload{}, types.FetchFailed(err, asset.Key)
		}
		return types.Payload{}, types.DecodeFailed(err, asset.Key)
	}

	return types.Payload{
		EncodedData: encoded,
		ContentType: contentType(resp.Header.Get("Content-Type"), asset.ContentType, l.defaultType),
	}, nil
}

// limitReader fails with errTooLarge instead of silently truncating.
type limitReader struct {
	r         io.Reader
	remaining int64
}

func (lr *limitReader) Read(p []byte) (int, error) {
	if lr.remaining < 0 {
		return 0, errTooLarge
	}
	if int64(len(p)) > lr.remaining+1 {
		p = p[:lr.remaining+1]
	}
	n, err := lr.r.Read(p)
	lr.remaining -= int64(n)
	if lr.remaining < 0 {
		return n, errTooLarge
	}
	return n, err
}
