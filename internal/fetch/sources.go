package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type httpOpener struct {
	client *http.Client
}

func (o *httpOpener) Open(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected HTTP status %s", resp.Status)
	}
	return resp.Body, nil
}

type fileOpener struct{}

func (fileOpener) Open(_ context.Context, u *url.URL) (io.ReadCloser, error) {
	path := u.Path
	if path == "" {
		path = u.Opaque
	}
	if path == "" {
		return nil, errors.New("empty file path")
	}
	return os.Open(path)
}

// bucketObject splits scheme://bucket/key into its parts.
func bucketObject(u *url.URL) (bucket, key string, err error) {
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("%s source must look like %s://bucket/key", u.Scheme, u.Scheme)
	}
	return bucket, key, nil
}

// s3Opener reads objects with the default AWS credential chain
// (environment variables, shared config files, IAM roles).
type s3Opener struct{}

func (s3Opener) Open(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	bucket, key, err := bucketObject(u)
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	out, err := s3.NewFromConfig(cfg).GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}

// gcsOpener reads objects with Application Default Credentials.
type gcsOpener struct{}

func (gcsOpener) Open(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	bucket, object, err := bucketObject(u)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		client.Close()
		return nil, err
	}
	return &closeBoth{ReadCloser: r, client: client}, nil
}

type closeBoth struct {
	io.ReadCloser
	client *storage.Client
}

func (c *closeBoth) Close() error {
	return errors.Join(c.ReadCloser.Close(), c.client.Close())
}
