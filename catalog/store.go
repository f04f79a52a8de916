package catalog

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/argo-inference/model-dashboard/config"
	"github.com/argo-inference/model-dashboard/logger"
	"github.com/argo-inference/model-dashboard/util/common"
)

// ErrModelExists reports a Put without overwrite onto an existing key.
var ErrModelExists = common.NewError("model already exists")

// ErrModelNotFound reports a missing record.
var ErrModelNotFound = common.NewError("model not found")

// Store reads and writes model records in one bucket. It is safe for
// concurrent use.
type Store struct {
	client *s3.Client
	bucket string
}

// NewStore builds an S3 client against the configured endpoint. Path-style
// addressing is forced because MinIO does not serve virtual-hosted buckets.
func NewStore(ctx context.Context, cfg config.ObjectStore) (*Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// NewStoreWithClient wires an existing client, used by tests.
func NewStoreWithClient(client *s3.Client, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	var owned *types.BucketAlreadyOwnedByYou
	if errors.As(err, &owned) {
		return nil
	}
	return err
}

// Exists reports whether an object is present under the given key.
func (s *Store) Exists(ctx context.Context, key string) bool {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err == nil
}

// Get fetches and decodes one record.
func (s *Store) Get(ctx context.Context, networkType, name string) (*Model, error) {
	key := networkType + "/" + name
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrModelNotFound
		}
		return nil, err
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, err
	}
	return LoadModel(data)
}

// List returns all records sorted by network type then name. Objects whose
// keys do not follow the expected layout are skipped.
func (s *Store) List(ctx context.Context) ([]*Model, error) {
	var models []*Model

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			networkType, name, ok := strings.Cut(key, "/")
			if !ok || name == "" || strings.Contains(name, "/") {
				continue
			}
			m, err := s.Get(ctx, networkType, name)
			if err != nil {
				logger.Warningf("unable to load model %q: %v", key, err)
				continue
			}
			models = append(models, m)
		}
	}

	sort.Slice(models, func(i, j int) bool {
		if models[i].NetworkType != models[j].NetworkType {
			return models[i].NetworkType < models[j].NetworkType
		}
		return models[i].Name < models[j].Name
	})
	return models, nil
}

// Put stores a record. Without overwrite an existing key is left untouched
// and ErrModelExists is returned.
func (s *Store) Put(ctx context.Context, m *Model, overwrite bool) error {
	if err := m.Validate(); err != nil {
		return err
	}
	m.Normalize()

	key := m.Key()
	if !overwrite && s.Exists(ctx, key) {
		return ErrModelExists
	}

	data, err := m.Bytes()
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(string(data)),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return err
	}
	logger.Infof("stored model %q", key)
	return nil
}

// Delete removes a record. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, networkType, name string) error {
	key := networkType + "/" + name
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return err
	}
	logger.Infof("deleted model %q", key)
	return nil
}
