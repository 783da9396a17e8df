package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"plansbot/internal/domain"
	"plansbot/internal/ports"
)

// Fixed object names inside the bucket.
const (
	announcedKey = "cache.json"
	historyKey   = "feed-cache.json"
	feedKey      = "feed.xml"
)

// S3Store keeps state as whole objects in a bucket. The rendered feed is
// uploaded with public-read visibility so subscribers can reach it directly.
type S3Store struct {
	client *s3.Client
	bucket string
}

var _ ports.StateStore = (*S3Store)(nil)

// NewS3Store builds a store using the default AWS configuration chain.
func NewS3Store(ctx context.Context, bucket string) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &S3Store{client: s3.NewFromConfig(awsCfg), bucket: bucket}, nil
}

// LoadAnnounced reads the announced set; a missing object is an empty set.
func (s *S3Store) LoadAnnounced(ctx context.Context) (domain.AnnouncedSet, error) {
	set := domain.AnnouncedSet{}
	if err := s.getJSON(ctx, announcedKey, &set); err != nil {
		return nil, err
	}
	return set, nil
}

// SaveAnnounced overwrites the announced set object in full.
func (s *S3Store) SaveAnnounced(ctx context.Context, set domain.AnnouncedSet) error {
	return s.putJSON(ctx, announcedKey, set)
}

// LoadFeedHistory reads the feed history; a missing object is an empty history.
func (s *S3Store) LoadFeedHistory(ctx context.Context) (domain.FeedHistory, error) {
	var history domain.FeedHistory
	if err := s.getJSON(ctx, historyKey, &history); err != nil {
		return nil, err
	}
	return history, nil
}

// SaveFeedHistory overwrites the feed history object in full.
func (s *S3Store) SaveFeedHistory(ctx context.Context, history domain.FeedHistory) error {
	return s.putJSON(ctx, historyKey, history)
}

// PublishFeed uploads the rendered feed document world-readable.
func (s *S3Store) PublishFeed(ctx context.Context, document []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(feedKey),
		Body:        bytes.NewReader(document),
		ContentType: aws.String("application/rss+xml"),
		ACL:         s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", s.bucket, feedKey, err)
	}
	return nil
}

func (s *S3Store) getJSON(ctx context.Context, key string, v any) error {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("get s3://%s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return fmt.Errorf("read s3://%s/%s: %w", s.bucket, key, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

func (s *S3Store) putJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404 {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NoSuchKey" || code == "NotFound"
	}
	return false
}
