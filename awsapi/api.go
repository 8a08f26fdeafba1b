// Copyright 2016 CoreOS, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package awsapi wraps the AWS EC2 calls the fleet reconciler needs:
// idempotent describe/create/tag of networking resources, key pairs and
// instances, all scoped by a Name tag so repeated runs converge instead
// of duplicating resources.
package awsapi

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
	"github.com/coreos/pkg/capnslog"
)

var plog = capnslog.NewPackageLogger("github.com/coreos/killabeez", "awsapi")

// CloudError reports a failure talking to AWS. Absent is set when the
// failure is a well-formed "no such resource" response (e.g. a
// NotFound error code) as opposed to a genuine transport or API fault;
// callers must check it before treating a describe/delete error as
// fatal, since an absent resource is frequently the expected outcome of
// a reconciliation step.
type CloudError struct {
	Op     string
	Absent bool
	Err    error
}

func (e *CloudError) Error() string {
	return fmt.Sprintf("aws %s: %v", e.Op, e.Err)
}

func (e *CloudError) Unwrap() error { return e.Err }

// notFoundCodes lists the EC2 API error codes that mean "the resource
// you asked about does not exist" rather than "something went wrong
// asking about it."
var notFoundCodes = map[string]bool{
	"InvalidVpcID.NotFound":             true,
	"InvalidSubnetID.NotFound":          true,
	"InvalidGroup.NotFound":             true,
	"InvalidInternetGatewayID.NotFound": true,
	"InvalidInstanceID.NotFound":        true,
	"InvalidKeyPair.NotFound":           true,
	"InvalidRouteTableID.NotFound":      true,
}

func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae smithy.APIError
	if errors.As(err, &ae) && notFoundCodes[ae.ErrorCode()] {
		return &CloudError{Op: op, Absent: true, Err: err}
	}
	return &CloudError{Op: op, Err: err}
}

// IsAbsent reports whether err represents a cloud-confirmed "resource
// does not exist" response, as distinct from a transport failure that
// merely prevented finding out.
func IsAbsent(err error) bool {
	var ce *CloudError
	return errors.As(err, &ce) && ce.Absent
}

// Options configures a new API client.
type Options struct {
	Region          string
	CredentialsFile string
	Profile         string
}

// EC2Client is the subset of *ec2.Client the reconciler calls. Exported
// so tests can substitute a fake without making real AWS calls; the
// production *ec2.Client satisfies it unmodified.
type EC2Client interface {
	DescribeVpcs(ctx context.Context, in *ec2.DescribeVpcsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeVpcsOutput, error)
	CreateVpc(ctx context.Context, in *ec2.CreateVpcInput, optFns ...func(*ec2.Options)) (*ec2.CreateVpcOutput, error)
	ModifyVpcAttribute(ctx context.Context, in *ec2.ModifyVpcAttributeInput, optFns ...func(*ec2.Options)) (*ec2.ModifyVpcAttributeOutput, error)
	DeleteVpc(ctx context.Context, in *ec2.DeleteVpcInput, optFns ...func(*ec2.Options)) (*ec2.DeleteVpcOutput, error)

	DescribeSubnets(ctx context.Context, in *ec2.DescribeSubnetsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSubnetsOutput, error)
	CreateSubnet(ctx context.Context, in *ec2.CreateSubnetInput, optFns ...func(*ec2.Options)) (*ec2.CreateSubnetOutput, error)
	ModifySubnetAttribute(ctx context.Context, in *ec2.ModifySubnetAttributeInput, optFns ...func(*ec2.Options)) (*ec2.ModifySubnetAttributeOutput, error)
	DeleteSubnet(ctx context.Context, in *ec2.DeleteSubnetInput, optFns ...func(*ec2.Options)) (*ec2.DeleteSubnetOutput, error)

	DescribeSecurityGroups(ctx context.Context, in *ec2.DescribeSecurityGroupsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error)
	CreateSecurityGroup(ctx context.Context, in *ec2.CreateSecurityGroupInput, optFns ...func(*ec2.Options)) (*ec2.CreateSecurityGroupOutput, error)
	AuthorizeSecurityGroupIngress(ctx context.Context, in *ec2.AuthorizeSecurityGroupIngressInput, optFns ...func(*ec2.Options)) (*ec2.AuthorizeSecurityGroupIngressOutput, error)
	DeleteSecurityGroup(ctx context.Context, in *ec2.DeleteSecurityGroupInput, optFns ...func(*ec2.Options)) (*ec2.DeleteSecurityGroupOutput, error)

	DescribeInternetGateways(ctx context.Context, in *ec2.DescribeInternetGatewaysInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInternetGatewaysOutput, error)
	CreateInternetGateway(ctx context.Context, in *ec2.CreateInternetGatewayInput, optFns ...func(*ec2.Options)) (*ec2.CreateInternetGatewayOutput, error)
	AttachInternetGateway(ctx context.Context, in *ec2.AttachInternetGatewayInput, optFns ...func(*ec2.Options)) (*ec2.AttachInternetGatewayOutput, error)
	DetachInternetGateway(ctx context.Context, in *ec2.DetachInternetGatewayInput, optFns ...func(*ec2.Options)) (*ec2.DetachInternetGatewayOutput, error)
	DeleteInternetGateway(ctx context.Context, in *ec2.DeleteInternetGatewayInput, optFns ...func(*ec2.Options)) (*ec2.DeleteInternetGatewayOutput, error)
	DescribeRouteTables(ctx context.Context, in *ec2.DescribeRouteTablesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRouteTablesOutput, error)
	CreateRoute(ctx context.Context, in *ec2.CreateRouteInput, optFns ...func(*ec2.Options)) (*ec2.CreateRouteOutput, error)
	DescribeAvailabilityZones(ctx context.Context, in *ec2.DescribeAvailabilityZonesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeAvailabilityZonesOutput, error)

	ImportKeyPair(ctx context.Context, in *ec2.ImportKeyPairInput, optFns ...func(*ec2.Options)) (*ec2.ImportKeyPairOutput, error)
	DescribeKeyPairs(ctx context.Context, in *ec2.DescribeKeyPairsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeKeyPairsOutput, error)
	DeleteKeyPair(ctx context.Context, in *ec2.DeleteKeyPairInput, optFns ...func(*ec2.Options)) (*ec2.DeleteKeyPairOutput, error)

	DescribeInstances(ctx context.Context, in *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
	RunInstances(ctx context.Context, in *ec2.RunInstancesInput, optFns ...func(*ec2.Options)) (*ec2.RunInstancesOutput, error)
	TerminateInstances(ctx context.Context, in *ec2.TerminateInstancesInput, optFns ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error)
	CreateTags(ctx context.Context, in *ec2.CreateTagsInput, optFns ...func(*ec2.Options)) (*ec2.CreateTagsOutput, error)
}

// API is a thin wrapper around the EC2 and STS clients the reconciler
// needs, scoped to one region and credential source.
type API struct {
	ec2 EC2Client
	sts *sts.Client
}

// NewWithEC2Client builds an API around an already-constructed EC2Client,
// bypassing credential resolution entirely. Tests use it to drive the
// reconciliation logic against a fake client; production code should use
// New instead.
func NewWithEC2Client(client EC2Client) *API {
	return &API{ec2: client}
}

// New builds an API using credentials from the standard AWS sources
// (environment, shared config/credentials files, or an explicit
// profile). It does not validate that the credentials work; call
// PreflightCheck for that.
func New(opts Options) (*API, error) {
	ctx := context.Background()

	var configOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		configOpts = append(configOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.CredentialsFile != "" {
		configOpts = append(configOpts, awsconfig.WithSharedCredentialsFiles([]string{opts.CredentialsFile}))
	}
	if opts.Profile != "" {
		configOpts = append(configOpts, awsconfig.WithSharedConfigProfile(opts.Profile))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	return &API{
		ec2: ec2.NewFromConfig(cfg),
		sts: sts.NewFromConfig(cfg),
	}, nil
}

// PreflightCheck validates the configured credentials resolve to a
// caller identity.
func (a *API) PreflightCheck() error {
	_, err := a.sts.GetCallerIdentity(context.Background(), &sts.GetCallerIdentityInput{})
	if err != nil {
		return wrapErr("preflight check", err)
	}
	return nil
}

// tagWithName applies the Name tag every reconciler-managed resource
// shares, identifying it for later describe-by-tag lookups.
func (a *API) tagWithName(resourceID, name string) error {
	_, err := a.ec2.CreateTags(context.Background(), &ec2.CreateTagsInput{
		Resources: []string{resourceID},
		Tags: []ec2types.Tag{
			{Key: aws.String("Name"), Value: aws.String(name)},
		},
	})
	return wrapErr("tag "+resourceID, err)
}

// nameFilter builds an EC2 describe-call filter matching the Name tag.
func nameFilter(name string) ec2types.Filter {
	return ec2types.Filter{
		Name:   aws.String("tag:Name"),
		Values: []string{name},
	}
}
