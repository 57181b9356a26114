package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"siret-api/internal/platform/config"
)

const s3Scheme = "s3://"

// ObjectGetter is the subset of *s3.Client used to read sources.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// NewS3Client builds an S3 client from the default AWS credential chain.
func NewS3Client(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

// SourceOpener resolves an ingestion location to a readable CSV stream.
//
// Supported locations:
//   - s3://bucket/key, read through S3 (S3 must be set)
//   - a directory, whose first *.csv file in lexical order is used
//   - a glob pattern, whose first match in lexical order is used
//   - a plain file path
type SourceOpener struct {
	S3 ObjectGetter
}

// Open returns the stream and the resolved name it was read from.
func (o SourceOpener) Open(ctx context.Context, location string) (io.ReadCloser, string, error) {
	if location == "" {
		return nil, "", errors.New("no ingestion source given")
	}
	if strings.HasPrefix(location, s3Scheme) {
		return o.openS3(ctx, location)
	}

	path, err := resolveLocal(location)
	if err != nil {
		return nil, "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open source: %w", err)
	}
	return f, path, nil
}

func (o SourceOpener) openS3(ctx context.Context, location string) (io.ReadCloser, string, error) {
	if o.S3 == nil {
		return nil, "", fmt.Errorf("%s: no S3 client configured", location)
	}
	bucket, key, ok := strings.Cut(strings.TrimPrefix(location, s3Scheme), "/")
	if !ok || bucket == "" || key == "" {
		return nil, "", fmt.Errorf("invalid S3 location %q, want s3://bucket/key", location)
	}
	out, err := o.S3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("get %s: %w", location, err)
	}
	return out.Body, location, nil
}

func resolveLocal(location string) (string, error) {
	info, err := os.Stat(location)
	if err == nil && info.IsDir() {
		return firstMatch(filepath.Join(location, "*.csv"))
	}
	if err == nil {
		return location, nil
	}
	if strings.ContainsAny(location, "*?[") {
		return firstMatch(location)
	}
	return "", fmt.Errorf("open source: %w", err)
}

func firstMatch(pattern string) (string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("bad source pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no file matches %q", pattern)
	}
	slices.Sort(matches)
	return matches[0], nil
}
