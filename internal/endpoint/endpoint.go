// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package endpoint resolves the RDS endpoint stored in SSM Parameter Store.
package endpoint

import (
	"context"
	"errors"
	"fmt"

	"github.com/apex/log"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// DefaultKey is the parameter holding the RDS endpoint.
const DefaultKey = "/dev/petclinic/rds_endpoint"

// ErrLookup wraps every failure to read the parameter.
var ErrLookup = errors.New("failed to retrieve RDS endpoint")

// API is the subset of the SSM client the resolver needs.
type API interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Resolver reads a single parameter value.
type Resolver struct {
	client API
}

func NewResolver(client API) *Resolver {
	return &Resolver{client: client}
}

// Resolve returns the raw value of the parameter named key. The value is not
// trimmed or validated.
func (r *Resolver) Resolve(ctx context.Context, key string) (string, error) {
	log.Debugf("GetParameter: %s", key)

	out, err := r.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(key),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFound *types.ParameterNotFound
		if errors.As(err, &notFound) {
			return "", fmt.Errorf("%w: parameter %s not found: %w", ErrLookup, key, err)
		}
		return "", fmt.Errorf("%w: %s: %w", ErrLookup, key, err)
	}

	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("%w: parameter %s has no value", ErrLookup, key)
	}

	value := aws.ToString(out.Parameter.Value)
	log.Infof("Retrieved RDS endpoint: %s", value)

	return value, nil
}
