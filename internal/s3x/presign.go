// Package s3x resolves upload targets as presigned S3 PUT URLs. Any
// S3-compatible store works; MinIO is the usual one.
package s3x

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/streamviewer/internal/upload"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

const DefaultExpires = 15 * time.Minute

type Config struct {
	Region       string
	AccessKey    string
	SecretKey    string
	Bucket       string
	BaseEndpoint string
	KeyPrefix    string
	Expires      time.Duration
}

// Presigner signs PUT requests for objects in one bucket. The S3 client is
// built on first use; a failed build is retried on the next call.
type Presigner struct {
	cfg Config

	mu     sync.Mutex
	client *s3.PresignClient
}

func NewPresigner(cfg Config) *Presigner {
	if cfg.Expires <= 0 {
		cfg.Expires = DefaultExpires
	}
	return &Presigner{cfg: cfg}
}

func (p *Presigner) presignClient(ctx context.Context) (*s3.PresignClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return p.client, nil
	}

	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(p.cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			p.cfg.AccessKey,
			p.cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if p.cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(p.cfg.BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	p.client = newS3PresignClient(client)
	return p.client, nil
}

// PresignPut returns a URL that accepts a single PUT of the object key.
func (p *Presigner) PresignPut(ctx context.Context, key string) (string, error) {
	pc, err := p.presignClient(ctx)
	if err != nil {
		return "", err
	}

	bucket := p.cfg.Bucket
	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: aws.String("application/octet-stream"),
	}, s3.WithPresignExpires(p.cfg.Expires))
	if err != nil {
		return "", fmt.Errorf("presign put %s/%s: %w", bucket, key, err)
	}
	return req.URL, nil
}

// ObjectKey is <prefix>/<domain>/<key>/<file>, without a leading slash.
func ObjectKey(prefix, domain, key, file string) string {
	return strings.TrimPrefix(path.Join(prefix, domain, key, file), "/")
}

// Resolver is an upload.TargetResolver backed by a Presigner.
type Resolver struct {
	presigner *Presigner
	prefix    string
}

var _ upload.TargetResolver = (*Resolver)(nil)

func NewResolver(p *Presigner) *Resolver {
	return &Resolver{presigner: p, prefix: p.cfg.KeyPrefix}
}

func (r *Resolver) Resolve(ctx context.Context, domain, key, fileName string) (upload.Target, error) {
	u, err := r.presigner.PresignPut(ctx, ObjectKey(r.prefix, domain, key, fileName))
	if err != nil {
		return upload.Target{}, err
	}
	return upload.Target{Domain: domain, Key: key, FileName: fileName, URL: u}, nil
}
