// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package credentials locates a tagged secret in AWS Secrets Manager and
// decodes its JSON payload.
package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/apex/log"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/tidwall/gjson"
)

const (
	DefaultTagKey   = "Name"
	DefaultTagValue = "dev-rds-db"
)

var (
	ErrSecretNotFound  = errors.New("secret not found")
	ErrMalformedSecret = errors.New("malformed secret payload")
	ErrLookup          = errors.New("failed to retrieve RDS credentials")
)

// API is the subset of the Secrets Manager client the resolver needs. It
// satisfies secretsmanager.ListSecretsAPIClient.
type API interface {
	ListSecrets(ctx context.Context, params *secretsmanager.ListSecretsInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.ListSecretsOutput, error)
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Credentials is the decoded secret payload. Non-string JSON values keep
// their raw textual form.
type Credentials map[string]string

func (c Credentials) Username() (string, bool) {
	v, ok := c["username"]
	return v, ok
}

func (c Credentials) Password() (string, bool) {
	v, ok := c["password"]
	return v, ok
}

// Parse decodes a secret string. The payload must be a JSON object.
func Parse(payload string) (Credentials, error) {
	if !gjson.Valid(payload) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrMalformedSecret)
	}

	doc := gjson.Parse(payload)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: expected a JSON object, got %s", ErrMalformedSecret, doc.Type)
	}

	creds := Credentials{}
	doc.ForEach(func(key, value gjson.Result) bool {
		creds[key.String()] = value.String()
		return true
	})

	return creds, nil
}

// Resolver finds and reads the tagged secret.
type Resolver struct {
	client API
}

func NewResolver(client API) *Resolver {
	return &Resolver{client: client}
}

// Find walks every page of ListSecrets in listing order and returns the first
// secret carrying the exact tagKey=tagValue pair.
func (r *Resolver) Find(ctx context.Context, tagKey, tagValue string) (types.SecretListEntry, error) {
	p := secretsmanager.NewListSecretsPaginator(r.client, &secretsmanager.ListSecretsInput{})

	var pages int
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return types.SecretListEntry{}, fmt.Errorf("%w: list secrets: %w", ErrLookup, err)
		}
		pages++

		for _, secret := range page.SecretList {
			if hasTag(secret.Tags, tagKey, tagValue) {
				log.Debugf("matched secret %s on page %d", aws.ToString(secret.Name), pages)
				return secret, nil
			}
		}
	}

	log.Debugf("scanned %d page(s) of secrets", pages)
	return types.SecretListEntry{}, fmt.Errorf("%w: secret with %s tag '%s' not found", ErrSecretNotFound, tagKey, tagValue)
}

func hasTag(tags []types.Tag, key, value string) bool {
	for _, tag := range tags {
		if aws.ToString(tag.Key) == key && aws.ToString(tag.Value) == value {
			return true
		}
	}
	return false
}

// Resolve finds the tagged secret, reads its current value and decodes it.
func (r *Resolver) Resolve(ctx context.Context, tagKey, tagValue string) (Credentials, error) {
	secret, err := r.Find(ctx, tagKey, tagValue)
	if err != nil {
		return nil, err
	}

	id := aws.ToString(secret.ARN)
	if id == "" {
		id = aws.ToString(secret.Name)
	}

	out, err := r.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(id),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: secret %s has no current value: %w", ErrLookup, id, err)
		}
		return nil, fmt.Errorf("%w: get secret value %s: %w", ErrLookup, id, err)
	}

	if out == nil || out.SecretString == nil {
		return nil, fmt.Errorf("%w: secret %s has no string value", ErrMalformedSecret, id)
	}

	creds, err := Parse(aws.ToString(out.SecretString))
	if err != nil {
		return nil, fmt.Errorf("secret %s: %w", id, err)
	}

	log.Info("Successfully retrieved RDS credentials")
	return creds, nil
}
