// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// objectAPI is the subset of the S3 client used here.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3 stores uploads in an S3-compatible bucket with public-read ACL. The
// object key is the reference itself ("uploads/<name>").
type S3 struct {
	api       objectAPI
	bucket    string
	endpoint  string
	publicURL string // optional CDN/direct URL for the bucket
}

// NewS3 creates an S3 backend configured for path-style addressing, as
// required by CEPH/Hetzner. Returns (nil, nil) if endpoint or credentials
// are empty.
func NewS3(endpoint, region, accessKey, secretKey, bucket, publicURL string) (*S3, error) {
	if endpoint == "" || accessKey == "" || secretKey == "" {
		return nil, nil
	}
	if bucket == "" {
		return nil, fmt.Errorf("s3: bucket name is required")
	}

	endpoint = strings.TrimRight(endpoint, "/")

	client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle: true,
	})

	return &S3{
		api:       client,
		bucket:    bucket,
		endpoint:  endpoint,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// Bucket returns the bucket name.
func (c *S3) Bucket() string {
	return c.bucket
}

// Put uploads body as uploads/<name>.
func (c *S3) Put(ctx context.Context, name, contentType string, body io.Reader, size int64) (string, error) {
	if name == "" || strings.Contains(name, "/") {
		return "", fmt.Errorf("s3 put %q: %w", name, ErrInvalidRef)
	}
	key := RefPrefix + name

	_, err := c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		ACL:           s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload %s/%s: %w", c.bucket, key, err)
	}
	return key, nil
}

// Delete removes the object behind ref. S3 treats deleting a missing key
// as success.
func (c *S3) Delete(ctx context.Context, ref string) error {
	name, err := nameFromRef(ref)
	if err != nil {
		return err
	}
	key := RefPrefix + name

	_, err = c.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s/%s: %w", c.bucket, key, err)
	}
	return nil
}

// URL returns the public URL for ref. Uses the configured public URL if
// set, otherwise builds a path-style URL.
func (c *S3) URL(ref string) string {
	if c.publicURL != "" {
		return c.publicURL + "/" + ref
	}
	return c.endpoint + "/" + c.bucket + "/" + ref
}
