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

package awsapi

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// TaggedResource names one cloud resource discovered by its Name tag,
// identified the way the "tagged" CLI command reports it: its EC2
// resource ID and a friendly kind label (the original's "ARN-like"
// naming, approximated here since these resource types predate ARN
// support in the EC2 API).
type TaggedResource struct {
	Kind string
	ID   string
}

func (t TaggedResource) String() string {
	return fmt.Sprintf("%s/%s", t.Kind, t.ID)
}

// ListTagged enumerates every VPC, subnet, security group, internet
// gateway and instance carrying a Name tag equal to tagName, plus the key
// pair named tagName, for the CLI's "tagged" inventory command.
// Terminated instances are left out.
func (a *API) ListTagged(tagName string) ([]TaggedResource, error) {
	ctx := context.Background()
	filter := nameFilter(tagName)
	var resources []TaggedResource

	vpcs, err := a.ec2.DescribeVpcs(ctx, &ec2.DescribeVpcsInput{Filters: []ec2types.Filter{filter}})
	if err != nil {
		return nil, wrapErr("list tagged vpcs", err)
	}
	for _, v := range vpcs.Vpcs {
		resources = append(resources, TaggedResource{Kind: "vpc", ID: *v.VpcId})
	}

	subnets, err := a.ec2.DescribeSubnets(ctx, &ec2.DescribeSubnetsInput{Filters: []ec2types.Filter{filter}})
	if err != nil {
		return nil, wrapErr("list tagged subnets", err)
	}
	for _, s := range subnets.Subnets {
		resources = append(resources, TaggedResource{Kind: "subnet", ID: *s.SubnetId})
	}

	sgs, err := a.ec2.DescribeSecurityGroups(ctx, &ec2.DescribeSecurityGroupsInput{Filters: []ec2types.Filter{filter}})
	if err != nil {
		return nil, wrapErr("list tagged security groups", err)
	}
	for _, sg := range sgs.SecurityGroups {
		resources = append(resources, TaggedResource{Kind: "security-group", ID: *sg.GroupId})
	}

	igws, err := a.ec2.DescribeInternetGateways(ctx, &ec2.DescribeInternetGatewaysInput{Filters: []ec2types.Filter{filter}})
	if err != nil {
		return nil, wrapErr("list tagged internet gateways", err)
	}
	for _, igw := range igws.InternetGateways {
		resources = append(resources, TaggedResource{Kind: "internet-gateway", ID: *igw.InternetGatewayId})
	}

	insts, err := a.ec2.DescribeInstances(ctx, &ec2.DescribeInstancesInput{Filters: []ec2types.Filter{filter}})
	if err != nil {
		return nil, wrapErr("list tagged instances", err)
	}
	for _, r := range insts.Reservations {
		for _, inst := range r.Instances {
			if inst.State != nil && inst.State.Name == ec2types.InstanceStateNameTerminated {
				continue
			}
			resources = append(resources, TaggedResource{Kind: "instance", ID: *inst.InstanceId})
		}
	}

	// Key pairs are identified by KeyName, not a Name tag (see
	// DescribeKeyPair), so the reconciler's tagged key pair is found by
	// key-name rather than the tag:Name filter used above.
	keys, err := a.ec2.DescribeKeyPairs(ctx, &ec2.DescribeKeyPairsInput{
		Filters: []ec2types.Filter{{Name: aws.String("key-name"), Values: []string{tagName}}},
	})
	if err != nil {
		return nil, wrapErr("list tagged key pairs", err)
	}
	for _, k := range keys.KeyPairs {
		resources = append(resources, TaggedResource{Kind: "key-pair", ID: aws.ToString(k.KeyPairId)})
	}

	return resources, nil
}
