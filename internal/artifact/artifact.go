// Package artifact resolves model files that may live on local disk or in S3
// compatible object storage. Remote objects are fetched once into a cache directory.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const s3Scheme = "s3://"

var ErrNoObjectStore = errors.New("no object store configured")

type S3Config struct {
	EndpointURL     string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
}

func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	opts := []func(*aws_config.LoadOptions) error{
		aws_config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, aws_config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := aws_config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			// MinIO and most self-hosted stores need path-style addressing.
			o.UsePathStyle = true
		}
	}), nil
}

func IsRemote(location string) bool {
	return strings.HasPrefix(location, s3Scheme)
}

func ParseS3URI(uri string) (bucket, key string, err error) {
	if !IsRemote(uri) {
		return "", "", fmt.Errorf("'%s' is not an s3:// uri", uri)
	}

	bucket, key, _ = strings.Cut(strings.TrimPrefix(uri, s3Scheme), "/")
	if bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("'%s' must name an object as s3://bucket/key", uri)
	}
	return bucket, key, nil
}

type Resolver struct {
	downloader *manager.Downloader
	cacheDir   string
}

// NewResolver builds a resolver; client may be nil when only local paths are used.
func NewResolver(client manager.DownloadAPIClient, cacheDir string) *Resolver {
	r := &Resolver{cacheDir: cacheDir}
	if client != nil {
		r.downloader = manager.NewDownloader(client)
	}
	return r
}

// Resolve returns a local path for location, downloading s3:// objects into the
// cache directory unless a non-empty copy is already there.
func (r *Resolver) Resolve(ctx context.Context, location string) (string, error) {
	if !IsRemote(location) {
		if _, err := os.Stat(location); err != nil {
			return "", fmt.Errorf("artifact %s not available: %w", location, err)
		}
		return location, nil
	}

	bucket, key, err := ParseS3URI(location)
	if err != nil {
		return "", err
	}

	localPath := filepath.Join(r.cacheDir, bucket, filepath.FromSlash(key))
	if info, err := os.Stat(localPath); err == nil && info.Size() > 0 {
		slog.Info("using cached artifact", "uri", location, "path", localPath)
		return localPath, nil
	}

	if r.downloader == nil {
		return "", fmt.Errorf("cannot fetch %s: %w", location, ErrNoObjectStore)
	}

	if err := r.download(ctx, bucket, key, localPath); err != nil {
		return "", err
	}
	return localPath, nil
}

func (r *Resolver) download(ctx context.Context, bucket, key, localPath string) error {
	dir := filepath.Dir(localPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(localPath)+".*.part")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	slog.Info("downloading artifact", "bucket", bucket, "key", key, "path", localPath)
	n, err := r.downloader.Download(ctx, tmp, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to download s3://%s/%s: %w", bucket, key, err)
	}

	if err := os.Rename(tmp.Name(), localPath); err != nil {
		return fmt.Errorf("failed to move artifact into %s: %w", localPath, err)
	}

	slog.Info("downloaded artifact", "path", localPath, "bytes", n)
	return nil
}
