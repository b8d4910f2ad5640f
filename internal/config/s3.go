package config

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/caarlos0/env/v10"
	"github.com/vango-dev/waypoint/internal/errors"
)

// ObjectGetter is the part of *s3.Client LoadS3 uses.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// ObjectPutter is the part of *s3.Client SaveS3 uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ParseS3URL splits "s3://bucket/key".
func ParseS3URL(raw string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(raw, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

func s3URL(bucket, key string) string {
	return "s3://" + bucket + "/" + key
}

// LoadS3 reads the configuration object bucket/key. The key's extension picks
// the format.
func LoadS3(ctx context.Context, client ObjectGetter, bucket, key string) (*Config, error) {
	format, err := FormatOf(key)
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.New("W124").
			WithDetail("Could not get " + s3URL(bucket, key)).
			Wrap(err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.New("W124").Wrap(err)
	}

	cfg, err := parse(s3URL(bucket, key), data, format)
	if err != nil {
		return nil, err
	}
	return cfg.finish()
}

// SaveS3 writes the configuration to bucket/key.
func (c *Config) SaveS3(ctx context.Context, client ObjectPutter, bucket, key string) error {
	data, err := c.Marshal(key)
	if err != nil {
		return err
	}
	contentType := "application/json"
	if format, _ := FormatOf(key); format == FormatYAML {
		contentType = "application/yaml"
	}
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return errors.New("W124").
			WithDetail("Could not put " + s3URL(bucket, key)).
			Wrap(err)
	}
	return nil
}

// S3Options configures NewS3Client.
type S3Options struct {
	// Region defaults to AWS_REGION, then us-east-1.
	Region string

	// Endpoint overrides the S3 endpoint, e.g. for MinIO. Setting it enables
	// path-style addressing.
	Endpoint string
}

// awsEnv holds the standard AWS environment variables.
type awsEnv struct {
	Region          string `env:"AWS_REGION" envDefault:"us-east-1"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	SessionToken    string `env:"AWS_SESSION_TOKEN"`
}

// NewS3Client creates an S3 client from opts and the AWS_* environment. Without
// credentials in the environment, requests are sent unsigned.
func NewS3Client(opts S3Options) (*s3.Client, error) {
	var e awsEnv
	if err := env.Parse(&e); err != nil {
		return nil, fmt.Errorf("read AWS environment: %w", err)
	}

	o := s3.Options{
		Region:      e.Region,
		Credentials: aws.AnonymousCredentials{},
	}
	if opts.Region != "" {
		o.Region = opts.Region
	}
	if opts.Endpoint != "" {
		o.BaseEndpoint = aws.String(opts.Endpoint)
		o.UsePathStyle = true
	}
	if e.AccessKeyID != "" && e.SecretAccessKey != "" {
		creds := aws.Credentials{
			AccessKeyID:     e.AccessKeyID,
			SecretAccessKey: e.SecretAccessKey,
			SessionToken:    e.SessionToken,
			Source:          "EnvironmentVariables",
		}
		o.Credentials = aws.NewCredentialsCache(aws.CredentialsProviderFunc(
			func(context.Context) (aws.Credentials, error) { return creds, nil },
		))
	}
	return s3.New(o), nil
}
