package catalog

import (
	"context"
	"fmt"

	"order-cart/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// objectGetter is the subset of the S3 client used by the loader.
type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// s3Loader implements Loader for feeds stored in AWS S3.
type s3Loader struct {
	client objectGetter
	bucket string
	logger zerolog.Logger
}

// NewS3Loader creates a new S3-based feed loader using the default AWS credential chain.
func NewS3Loader(ctx context.Context, bucket, region string, logger zerolog.Logger) (Loader, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Msg("S3 catalog loader initialised")

	return newS3Loader(s3.NewFromConfig(cfg), bucket, logger), nil
}

func newS3Loader(client objectGetter, bucket string, logger zerolog.Logger) *s3Loader {
	return &s3Loader{
		client: client,
		bucket: bucket,
		logger: logger.With().Str("component", "s3-catalog-loader").Logger(),
	}
}

// Load reads a gzipped feed object. key is the full object key including any prefix.
func (l *s3Loader) Load(ctx context.Context, key string) ([]model.Item, error) {
	l.logger.Info().
		Str("bucket", l.bucket).
		Str("key", key).
		Msg("loading catalog feed from S3")

	result, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		l.logger.Error().
			Err(err).
			Str("bucket", l.bucket).
			Str("key", key).
			Msg("failed to get object from S3")
		return nil, fmt.Errorf("failed to get object from S3 (bucket=%s, key=%s): %w", l.bucket, key, err)
	}
	defer result.Body.Close()

	items, err := readFeed(ctx, result.Body)
	if err != nil {
		l.logger.Error().Err(err).Str("key", key).Msg("failed to read catalog feed from S3")
		return nil, fmt.Errorf("failed to read catalog feed from S3 %s: %w", key, err)
	}

	l.logger.Info().
		Str("key", key).
		Int("items_loaded", len(items)).
		Msg("catalog feed loaded from S3")

	return items, nil
}

// fallbackLoader tries S3 first, then the local file system.
type fallbackLoader struct {
	primary  Loader
	fallback Loader
	prefix   string
	logger   zerolog.Logger
}

// NewFallbackLoader creates a loader that reads prefix+path through primary and
// falls back to path on fallback. A nil primary uses fallback only.
func NewFallbackLoader(primary, fallback Loader, prefix string, logger zerolog.Logger) Loader {
	return &fallbackLoader{
		primary:  primary,
		fallback: fallback,
		prefix:   prefix,
		logger:   logger.With().Str("component", "fallback-catalog-loader").Logger(),
	}
}

// Load reads the feed from the primary source when possible.
func (l *fallbackLoader) Load(ctx context.Context, path string) ([]model.Item, error) {
	if l.primary != nil {
		key := l.prefix + path

		items, err := l.primary.Load(ctx, key)
		if err == nil {
			return items, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		l.logger.Warn().
			Err(err).
			Str("key", key).
			Str("local_fallback", path).
			Msg("failed to load from primary source, falling back to local file system")
	}

	return l.fallback.Load(ctx, path)
}
