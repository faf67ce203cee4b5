// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage provides an S3-compatible object storage client for the
// documents filed under categories. It wraps the AWS SDK v2 and is
// configured for path-style access (required by CEPH/Hetzner).
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// objectAPI is the subset of *s3.Client used here.
type objectAPI interface {
	s3.ListObjectsV2APIClient
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// Client wraps an S3 client for document operations on one bucket.
type Client struct {
	s3     objectAPI
	bucket string
}

// New creates an S3 storage client configured for CEPH/Hetzner with
// path-style addressing. Returns (nil, nil) if endpoint or credentials
// are empty, allowing the app to start without storage.
func New(endpoint, region, accessKey, secretKey, bucket string) (*Client, error) {
	if endpoint == "" || accessKey == "" || secretKey == "" {
		return nil, nil
	}
	if bucket == "" {
		return nil, errors.New("s3 bucket is required when an endpoint is set")
	}

	s3Client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(strings.TrimRight(endpoint, "/")),
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle: true,
	})

	return &Client{s3: s3Client, bucket: bucket}, nil
}

// DocumentPrefix returns the key prefix under which a category's documents
// are stored.
func DocumentPrefix(ownerID, categoryID uuid.UUID) string {
	return fmt.Sprintf("categories/%s/%s/", ownerID, categoryID)
}

// DeletePrefix removes every object whose key starts with prefix and
// returns the number of deleted objects.
func (c *Client) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	paginator := s3.NewListObjectsV2Paginator(c.s3, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	})

	deleted := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return deleted, fmt.Errorf("s3 list %s/%s: %w", c.bucket, prefix, err)
		}
		if len(page.Contents) == 0 {
			continue
		}

		objects := make([]s3types.ObjectIdentifier, 0, len(page.Contents))
		for _, obj := range page.Contents {
			objects = append(objects, s3types.ObjectIdentifier{Key: obj.Key})
		}

		out, err := c.s3.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(c.bucket),
			Delete: &s3types.Delete{Objects: objects, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return deleted, fmt.Errorf("s3 delete %s/%s: %w", c.bucket, prefix, err)
		}
		if len(out.Errors) > 0 {
			e := out.Errors[0]
			return deleted + len(objects) - len(out.Errors), fmt.Errorf("s3 delete %s/%s: %d objects failed, first %s: %s",
				c.bucket, aws.ToString(e.Key), len(out.Errors), aws.ToString(e.Code), aws.ToString(e.Message))
		}
		deleted += len(objects)
	}
	return deleted, nil
}

// PurgeCategories removes the documents of every listed category. It keeps
// going past failures and returns them joined.
func (c *Client) PurgeCategories(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) error {
	var errs []error
	total := 0
	for _, id := range ids {
		n, err := c.DeletePrefix(ctx, DocumentPrefix(ownerID, id))
		total += n
		if err != nil {
			errs = append(errs, err)
		}
	}
	if total > 0 {
		slog.Info("category documents purged", "owner_id", ownerID, "categories", len(ids), "objects", total)
	}
	return errors.Join(errs...)
}

// Bucket returns the name of the documents bucket.
func (c *Client) Bucket() string {
	return c.bucket
}
