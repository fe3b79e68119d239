package exporter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Sink receives one encoded export.
type Sink interface {
	Put(ctx context.Context, body []byte, contentType string) error
	String() string
}

// WriterSink writes to an io.Writer such as stdout.
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) Put(_ context.Context, body []byte, _ string) error {
	_, err := s.W.Write(body)
	return err
}

func (s WriterSink) String() string { return "stdout" }

// FileSink writes to a local path, creating parent directories.
type FileSink struct {
	Path string
}

func (s FileSink) Put(_ context.Context, body []byte, _ string) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	if err := os.WriteFile(s.Path, body, 0644); err != nil {
		return fmt.Errorf("writing export file: %w", err)
	}
	return nil
}

func (s FileSink) String() string { return s.Path }

// S3PutObjectAPI is the part of *s3.Client the sink needs.
type S3PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads the export as one object.
type S3Sink struct {
	Client S3PutObjectAPI
	Bucket string
	Key    string
}

func (s S3Sink) Put(ctx context.Context, body []byte, contentType string) error {
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(s.Key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("uploading s3://%s/%s: %w", s.Bucket, s.Key, err)
	}
	return nil
}

func (s S3Sink) String() string { return "s3://" + s.Bucket + "/" + s.Key }

// ParseS3URI splits s3://bucket/key. The key must not be empty.
func ParseS3URI(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("parsing %q: %w", raw, err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("%q is not an s3:// location", raw)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("%q must name a bucket and a key", raw)
	}
	return u.Host, key, nil
}

// S3Config selects the AWS region and shared-config profile.
type S3Config struct {
	Region  string
	Profile string
}

// NewS3Client loads the default AWS credential chain.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg), nil
}

// SinkFactory builds the sink for a target. "" and "-" mean stdout; an
// s3:// target uses NewClient.
type SinkFactory struct {
	Stdout    io.Writer
	S3        S3Config
	NewClient func(ctx context.Context, cfg S3Config) (S3PutObjectAPI, error)
}

func (f SinkFactory) Open(ctx context.Context, target string) (Sink, error) {
	switch {
	case target == "" || target == "-":
		w := f.Stdout
		if w == nil {
			w = os.Stdout
		}
		return WriterSink{W: w}, nil
	case strings.HasPrefix(target, "s3://"):
		bucket, key, err := ParseS3URI(target)
		if err != nil {
			return nil, err
		}
		newClient := f.NewClient
		if newClient == nil {
			newClient = func(ctx context.Context, cfg S3Config) (S3PutObjectAPI, error) {
				return NewS3Client(ctx, cfg)
			}
		}
		client, err := newClient(ctx, f.S3)
		if err != nil {
			return nil, err
		}
		return S3Sink{Client: client, Bucket: bucket, Key: key}, nil
	}
	return FileSink{Path: target}, nil
}
