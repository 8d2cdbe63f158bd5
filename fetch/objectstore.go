package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/krisalay/asset-cache/types"
)

// SchemeObjectStore is the URL scheme routed to the object store loader.
const SchemeObjectStore = "s3"

// ObjectStoreConfig holds the S3-compatible endpoint settings.
type ObjectStoreConfig struct {
	// Endpoint is the server host and port (e.g., "localhost:9000")
	Endpoint string

	AccessKey string
	SecretKey string

	// UseSSL enables HTTPS connections
	UseSSL bool

	// Region skips the bucket location lookup when set
	Region string

	// Client is an optional pre-configured client. If provided, the
	// endpoint and credentials are ignored.
	Client *minio.Client
}

// ObjectStoreLoader reads assets addressed as s3://bucket/object straight from
// the object store that backs the download URLs.
type ObjectStoreLoader struct {
	client      *minio.Client
	defaultType string
	tracer      trace.Tracer
}

// NewObjectStoreLoader creates the client. No request is made until Load.
func NewObjectStoreLoader(cfg ObjectStoreConfig) (*ObjectStoreLoader, error) {
	client := cfg.Client
	if client == nil {
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("object store endpoint is required")
		}
		var err error
		client, err = minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
			Region: cfg.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("create object store client: %w", err)
		}
	}

	return &ObjectStoreLoader{
		client:      client,
		defaultType: types.DefaultContentType,
		tracer:      otel.Tracer(tracerName),
	}, nil
}

// Load reads the object named by asset.Key and encodes it.
func (l *ObjectStoreLoader) Load(ctx context.Context, asset types.Asset) (types.Payload, error) {
	ctx, span := l.tracer.Start(ctx, "fetch.object",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("asset.key", asset.Key)),
	)
	defer span.End()

	payload, err := l.load(ctx, asset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load object")
		return types.Payload{}, err
	}
	return payload, nil
}

func (l *ObjectStoreLoader) load(ctx context.Context, asset types.Asset) (types.Payload, error) {
	bucket, object, err := ParseObjectKey(asset.Key)
	if err != nil {
		return types.Payload{}, types.FetchFailed(err, asset.Key)
	}

	obj, err := l.client.GetObject(ctx, bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return types.Payload{}, types.FetchFailed(translate(err), asset.Key)
	}
	defer func() {
		_ = obj.Close()
	}()

	// GetObject is lazy; Stat issues the request and surfaces NoSuchKey.
	info, err := obj.Stat()
	if err != nil {
		return types.Payload{}, types.FetchFailed(translate(err), asset.Key)
	}

	encoded, err := Encode(obj)
	if err != nil {
		return types.Payload{}, types.DecodeFailed(err, asset.Key)
	}

	return types.Payload{
		EncodedData: encoded,
		ContentType: contentType(info.ContentType, asset.ContentType, l.defaultType),
	}, nil
}

// ParseObjectKey splits s3://bucket/path/to/object into its bucket and object name.
func ParseObjectKey(key string) (bucket, object string, err error) {
	u, err := url.Parse(key)
	if err != nil {
		return "", "", fmt.Errorf("parse object key: %w", err)
	}
	if u.Scheme != SchemeObjectStore {
		return "", "", fmt.Errorf("object key %q: scheme must be %s", key, SchemeObjectStore)
	}
	bucket = u.Host
	object = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || object == "" {
		return "", "", fmt.Errorf("object key %q: bucket and object are required", key)
	}
	return bucket, object, nil
}

// translate keeps the server's error code visible in logs.
func translate(err error) error {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket", "AccessDenied":
		return fmt.Errorf("object store %s: %w", resp.Code, err)
	}
	return fmt.Errorf("object store: %w", err)
}
