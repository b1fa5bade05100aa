// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package aws

import (
	"context"
	"fmt"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// options holds optional overrides for AWS config loading.
type options struct {
	profile string
	region  string
}

// Option customizes how AWS config is loaded.
// Default behavior (no options) inherits the shell environment and shared
// config chain (AWS_PROFILE, ~/.aws/config, ~/.aws/credentials, IMDS, etc.).
type Option func(*options)

// WithProfile sets the shared config profile. Defaults to AWS_PROFILE/env chain.
func WithProfile(profile string) Option {
	return func(o *options) { o.profile = profile }
}

// WithRegion sets the region override. Defaults to env/profile/metadata chain.
func WithRegion(region string) Option {
	return func(o *options) { o.region = region }
}

// loadOptions converts the Options into config.LoadDefaultConfig options.
func loadOptions(opts ...Option) []func(*config.LoadOptions) error {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var loadOpts []func(*config.LoadOptions) error
	if o.profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(o.profile))
	}
	if o.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.region))
	}
	return loadOpts
}

// LoadAWSConfig loads AWS SDK v2 config. By default it inherits the shell's
// AWS setup (AWS_PROFILE, shared config, env, IMDS). Options can override
// the profile and region.
func LoadAWSConfig(ctx context.Context, opts ...Option) (awsv2.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx, loadOptions(opts...)...)
	if err != nil {
		return awsv2.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}

// Clients bundles the service clients used by a single run.
type Clients struct {
	SSM            *ssm.Client
	SecretsManager *secretsmanager.Client
	S3             *s3v2.Client
}

// NewClients builds every service client from one shared config.
func NewClients(cfg awsv2.Config) Clients {
	return Clients{
		SSM:            NewSSM(cfg),
		SecretsManager: NewSecretsManager(cfg),
		S3:             NewS3(cfg),
	}
}

// NewSSM constructs an SSM (Parameter Store) client.
func NewSSM(cfg awsv2.Config, optFns ...func(*ssm.Options)) *ssm.Client {
	return ssm.NewFromConfig(cfg, optFns...)
}

// NewSecretsManager constructs a Secrets Manager client.
func NewSecretsManager(cfg awsv2.Config, optFns ...func(*secretsmanager.Options)) *secretsmanager.Client {
	return secretsmanager.NewFromConfig(cfg, optFns...)
}

// NewS3 constructs a v2 S3 client from the provided config. Additional service
// options can be supplied via optFns.
func NewS3(cfg awsv2.Config, optFns ...func(*s3v2.Options)) *s3v2.Client {
	return s3v2.NewFromConfig(cfg, optFns...)
}
