// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package backup uploads the original properties file to S3 before it is
// rewritten.
package backup

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"path/filepath"
	"time"

	"github.com/apex/log"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dustin/go-humanize"
)

// API is the subset of the S3 client used for backups.
type API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 writes backups to Bucket under Prefix.
type S3 struct {
	client API
	Bucket string
	Prefix string
	Now    func() time.Time
}

func NewS3(client API, bucket, prefix string) *S3 {
	return &S3{
		client: client,
		Bucket: bucket,
		Prefix: prefix,
		Now:    time.Now,
	}
}

// Key returns the object key for a backup of localPath taken at t.
func (b *S3) Key(localPath string, t time.Time) string {
	name := filepath.Base(localPath) + "." + t.UTC().Format("20060102T150405Z")
	return path.Join(b.Prefix, name)
}

// Upload stores content under a timestamped key. Its signature matches
// properties.BeforeWriteFunc.
func (b *S3) Upload(ctx context.Context, localPath string, content []byte) error {
	key := b.Key(localPath, b.Now())

	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:               aws.String(b.Bucket),
		Key:                  aws.String(key),
		Body:                 bytes.NewReader(content),
		ContentType:          aws.String("text/plain; charset=utf-8"),
		ServerSideEncryption: types.ServerSideEncryptionAes256,
	})
	if err != nil {
		return fmt.Errorf("failed to back up %s to s3://%s/%s: %w", localPath, b.Bucket, key, err)
	}

	log.Infof("Backed up %s to s3://%s/%s (%s)", localPath, b.Bucket, key, humanize.Bytes(uint64(len(content))))
	return nil
}
