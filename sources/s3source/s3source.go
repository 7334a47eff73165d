// Package s3source provides an Amazon S3 backed module source: resources
// are objects under a bucket and key prefix.
package s3source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/gantry-io/gantry/source"
)

// Client is the subset of the S3 API the source uses. *s3.Client
// satisfies it.
type Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Source serves module resources from an S3 bucket.
type Source struct {
	client Client
	bucket string
	prefix string
}

// New returns a Source reading objects from bucket under prefix.
func New(client Client, bucket, prefix string) *Source {
	return &Source{client: client, bucket: bucket, prefix: prefix}
}

// Options configure how the AWS client is constructed by Connect.
type Options struct {
	// Region overrides the region from the environment.
	Region string

	// AccessKeyID, SecretAccessKey and SessionToken select static
	// credentials. When AccessKeyID is empty the default credential
	// chain applies.
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// Connect loads AWS configuration and returns a Source for bucket and
// prefix.
func Connect(ctx context.Context, bucket, prefix string, opts Options) (*Source, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				opts.AccessKeyID, opts.SecretAccessKey, opts.SessionToken)))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3source: load aws config: %w", err)
	}
	return New(s3.NewFromConfig(cfg), bucket, prefix), nil
}

// Find fetches the object at prefix/name. A missing key is
// source.ErrNotFound; the returned ByteSource serves the buffered
// payload.
func (s *Source) Find(ctx context.Context, name string) (source.ByteSource, error) {
	key := s.key(name)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, source.ErrNotFound
		}
		return nil, fmt.Errorf("s3source: get s3://%s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3source: read s3://%s/%s: %w", s.bucket, key, err)
	}
	return source.FromBytes(name, data), nil
}

func (s *Source) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}
