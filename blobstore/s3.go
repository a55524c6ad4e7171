package blobstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// s3API is the subset of the S3 client the store uses.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store keeps objects under "<folder>/<public id><ext>" in one bucket and
// serves them from publicBaseURL.
type S3Store struct {
	client        s3API
	bucket        string
	publicBaseURL string
}

func NewS3Store(client s3API, bucket, publicBaseURL string) *S3Store {
	if publicBaseURL == "" {
		publicBaseURL = fmt.Sprintf("https://%s.s3.amazonaws.com", bucket)
	}
	return &S3Store{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
	}
}

func (s *S3Store) Upload(ctx context.Context, in UploadInput) (*Object, error) {
	key := path.Join(in.Folder, in.PublicID) + strings.ToLower(path.Ext(in.Filename))

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   in.Body,
	}
	if in.ContentType != "" {
		input.ContentType = aws.String(in.ContentType)
	}
	if in.Size > 0 {
		input.ContentLength = aws.Int64(in.Size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return nil, fmt.Errorf("s3 put object %s: %w", key, err)
	}
	return &Object{URL: s.objectURL(key), PublicID: key}, nil
}

// Delete ignores the resource type; S3 keys are untyped.
func (s *S3Store) Delete(ctx context.Context, publicID string, _ ResourceType) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("s3 head object %s: %w", publicID, err)
	}

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(publicID),
	}); err != nil {
		return false, fmt.Errorf("s3 delete object %s: %w", publicID, err)
	}
	return true, nil
}

func (s *S3Store) PublicIDFromURL(rawURL string) (string, error) {
	if !strings.HasPrefix(rawURL, s.publicBaseURL+"/") {
		return "", ErrInvalidURL
	}
	escaped := strings.TrimPrefix(rawURL, s.publicBaseURL+"/")
	key, err := url.PathUnescape(escaped)
	if err != nil || key == "" {
		return "", ErrInvalidURL
	}
	return key, nil
}

func (s *S3Store) objectURL(key string) string {
	segs := strings.Split(key, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return s.publicBaseURL + "/" + strings.Join(segs, "/")
}
