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

// Package awsapitest provides an in-memory implementation of
// awsapi.EC2Client, shared by the awsapi and swarm packages' tests so
// reconciliation logic can be exercised without live AWS calls.
package awsapitest

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// EC2 is an in-memory stand-in for *ec2.Client. Zero value is ready to
// use via New.
type EC2 struct {
	nextID int

	vpcs []ec2types.Vpc
	tags map[string]string

	subnets []ec2types.Subnet
	sgs     []ec2types.SecurityGroup
	igws    []ec2types.InternetGateway
	rts     []ec2types.RouteTable

	keyPairs []ec2types.KeyPairInfo

	instances []ec2types.Instance
}

// New returns an empty fake, with one availability zone and one main
// route table pre-seeded per VPC created through CreateVpc.
func New() *EC2 {
	return &EC2{tags: map[string]string{}}
}

func (f *EC2) genID(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func (f *EC2) tagMatches(id string, filters []ec2types.Filter) bool {
	for _, flt := range filters {
		if aws.ToString(flt.Name) == "tag:Name" {
			if len(flt.Values) == 0 || f.tags[id] != flt.Values[0] {
				return false
			}
		}
	}
	return true
}

// --- VPC ---

func (f *EC2) DescribeVpcs(_ context.Context, in *ec2.DescribeVpcsInput, _ ...func(*ec2.Options)) (*ec2.DescribeVpcsOutput, error) {
	var out []ec2types.Vpc
	for _, v := range f.vpcs {
		id := aws.ToString(v.VpcId)
		if len(in.VpcIds) > 0 {
			if !contains(in.VpcIds, id) {
				continue
			}
		} else if !f.tagMatches(id, in.Filters) {
			continue
		}
		out = append(out, v)
	}
	return &ec2.DescribeVpcsOutput{Vpcs: out}, nil
}

func (f *EC2) CreateVpc(_ context.Context, in *ec2.CreateVpcInput, _ ...func(*ec2.Options)) (*ec2.CreateVpcOutput, error) {
	id := f.genID("vpc")
	vpc := ec2types.Vpc{VpcId: aws.String(id), CidrBlock: in.CidrBlock}
	f.vpcs = append(f.vpcs, vpc)
	f.rts = append(f.rts, ec2types.RouteTable{
		RouteTableId: aws.String(f.genID("rtb")),
		VpcId:        aws.String(id),
		Associations: []ec2types.RouteTableAssociation{{Main: aws.Bool(true)}},
	})
	return &ec2.CreateVpcOutput{Vpc: &vpc}, nil
}

func (f *EC2) ModifyVpcAttribute(_ context.Context, _ *ec2.ModifyVpcAttributeInput, _ ...func(*ec2.Options)) (*ec2.ModifyVpcAttributeOutput, error) {
	return &ec2.ModifyVpcAttributeOutput{}, nil
}

func (f *EC2) DeleteVpc(_ context.Context, in *ec2.DeleteVpcInput, _ ...func(*ec2.Options)) (*ec2.DeleteVpcOutput, error) {
	id := aws.ToString(in.VpcId)
	for i, v := range f.vpcs {
		if aws.ToString(v.VpcId) == id {
			f.vpcs = append(f.vpcs[:i], f.vpcs[i+1:]...)
			break
		}
	}
	return &ec2.DeleteVpcOutput{}, nil
}

// --- Subnet ---

func (f *EC2) DescribeSubnets(_ context.Context, in *ec2.DescribeSubnetsInput, _ ...func(*ec2.Options)) (*ec2.DescribeSubnetsOutput, error) {
	var out []ec2types.Subnet
	for _, s := range f.subnets {
		id := aws.ToString(s.SubnetId)
		if len(in.SubnetIds) > 0 {
			if !contains(in.SubnetIds, id) {
				continue
			}
		} else if !f.tagMatches(id, in.Filters) {
			continue
		}
		out = append(out, s)
	}
	return &ec2.DescribeSubnetsOutput{Subnets: out}, nil
}

func (f *EC2) CreateSubnet(_ context.Context, in *ec2.CreateSubnetInput, _ ...func(*ec2.Options)) (*ec2.CreateSubnetOutput, error) {
	id := f.genID("subnet")
	subnet := ec2types.Subnet{SubnetId: aws.String(id), VpcId: in.VpcId, CidrBlock: in.CidrBlock}
	f.subnets = append(f.subnets, subnet)
	return &ec2.CreateSubnetOutput{Subnet: &subnet}, nil
}

func (f *EC2) ModifySubnetAttribute(_ context.Context, _ *ec2.ModifySubnetAttributeInput, _ ...func(*ec2.Options)) (*ec2.ModifySubnetAttributeOutput, error) {
	return &ec2.ModifySubnetAttributeOutput{}, nil
}

func (f *EC2) DeleteSubnet(_ context.Context, in *ec2.DeleteSubnetInput, _ ...func(*ec2.Options)) (*ec2.DeleteSubnetOutput, error) {
	id := aws.ToString(in.SubnetId)
	for i, s := range f.subnets {
		if aws.ToString(s.SubnetId) == id {
			f.subnets = append(f.subnets[:i], f.subnets[i+1:]...)
			break
		}
	}
	return &ec2.DeleteSubnetOutput{}, nil
}

// --- Security group ---

func (f *EC2) DescribeSecurityGroups(_ context.Context, in *ec2.DescribeSecurityGroupsInput, _ ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error) {
	var out []ec2types.SecurityGroup
	for _, sg := range f.sgs {
		id := aws.ToString(sg.GroupId)
		if len(in.GroupIds) > 0 {
			if !contains(in.GroupIds, id) {
				continue
			}
		} else if !f.tagMatches(id, in.Filters) {
			continue
		}
		out = append(out, sg)
	}
	return &ec2.DescribeSecurityGroupsOutput{SecurityGroups: out}, nil
}

func (f *EC2) CreateSecurityGroup(_ context.Context, in *ec2.CreateSecurityGroupInput, _ ...func(*ec2.Options)) (*ec2.CreateSecurityGroupOutput, error) {
	id := f.genID("sg")
	f.sgs = append(f.sgs, ec2types.SecurityGroup{GroupId: aws.String(id), GroupName: in.GroupName, VpcId: in.VpcId})
	return &ec2.CreateSecurityGroupOutput{GroupId: aws.String(id)}, nil
}

func (f *EC2) AuthorizeSecurityGroupIngress(_ context.Context, _ *ec2.AuthorizeSecurityGroupIngressInput, _ ...func(*ec2.Options)) (*ec2.AuthorizeSecurityGroupIngressOutput, error) {
	return &ec2.AuthorizeSecurityGroupIngressOutput{}, nil
}

func (f *EC2) DeleteSecurityGroup(_ context.Context, in *ec2.DeleteSecurityGroupInput, _ ...func(*ec2.Options)) (*ec2.DeleteSecurityGroupOutput, error) {
	id := aws.ToString(in.GroupId)
	for i, sg := range f.sgs {
		if aws.ToString(sg.GroupId) == id {
			f.sgs = append(f.sgs[:i], f.sgs[i+1:]...)
			break
		}
	}
	return &ec2.DeleteSecurityGroupOutput{}, nil
}

// --- Internet gateway ---

func (f *EC2) DescribeInternetGateways(_ context.Context, in *ec2.DescribeInternetGatewaysInput, _ ...func(*ec2.Options)) (*ec2.DescribeInternetGatewaysOutput, error) {
	var vpcID string
	for _, flt := range in.Filters {
		if aws.ToString(flt.Name) == "attachment.vpc-id" && len(flt.Values) > 0 {
			vpcID = flt.Values[0]
		}
	}
	var out []ec2types.InternetGateway
	for _, igw := range f.igws {
		for _, att := range igw.Attachments {
			if aws.ToString(att.VpcId) == vpcID {
				out = append(out, igw)
				break
			}
		}
	}
	return &ec2.DescribeInternetGatewaysOutput{InternetGateways: out}, nil
}

func (f *EC2) CreateInternetGateway(_ context.Context, _ *ec2.CreateInternetGatewayInput, _ ...func(*ec2.Options)) (*ec2.CreateInternetGatewayOutput, error) {
	igw := ec2types.InternetGateway{InternetGatewayId: aws.String(f.genID("igw"))}
	f.igws = append(f.igws, igw)
	return &ec2.CreateInternetGatewayOutput{InternetGateway: &igw}, nil
}

func (f *EC2) AttachInternetGateway(_ context.Context, in *ec2.AttachInternetGatewayInput, _ ...func(*ec2.Options)) (*ec2.AttachInternetGatewayOutput, error) {
	id := aws.ToString(in.InternetGatewayId)
	for i, igw := range f.igws {
		if aws.ToString(igw.InternetGatewayId) == id {
			f.igws[i].Attachments = append(f.igws[i].Attachments, ec2types.InternetGatewayAttachment{VpcId: in.VpcId})
			break
		}
	}
	return &ec2.AttachInternetGatewayOutput{}, nil
}

func (f *EC2) DetachInternetGateway(_ context.Context, in *ec2.DetachInternetGatewayInput, _ ...func(*ec2.Options)) (*ec2.DetachInternetGatewayOutput, error) {
	id := aws.ToString(in.InternetGatewayId)
	for i, igw := range f.igws {
		if aws.ToString(igw.InternetGatewayId) == id {
			f.igws[i].Attachments = nil
			break
		}
	}
	return &ec2.DetachInternetGatewayOutput{}, nil
}

func (f *EC2) DeleteInternetGateway(_ context.Context, in *ec2.DeleteInternetGatewayInput, _ ...func(*ec2.Options)) (*ec2.DeleteInternetGatewayOutput, error) {
	id := aws.ToString(in.InternetGatewayId)
	for i, igw := range f.igws {
		if aws.ToString(igw.InternetGatewayId) == id {
			f.igws = append(f.igws[:i], f.igws[i+1:]...)
			break
		}
	}
	return &ec2.DeleteInternetGatewayOutput{}, nil
}

func (f *EC2) DescribeRouteTables(_ context.Context, in *ec2.DescribeRouteTablesInput, _ ...func(*ec2.Options)) (*ec2.DescribeRouteTablesOutput, error) {
	var vpcID string
	for _, flt := range in.Filters {
		if aws.ToString(flt.Name) == "vpc-id" && len(flt.Values) > 0 {
			vpcID = flt.Values[0]
		}
	}
	var out []ec2types.RouteTable
	for _, rt := range f.rts {
		if aws.ToString(rt.VpcId) == vpcID {
			out = append(out, rt)
		}
	}
	return &ec2.DescribeRouteTablesOutput{RouteTables: out}, nil
}

func (f *EC2) CreateRoute(_ context.Context, _ *ec2.CreateRouteInput, _ ...func(*ec2.Options)) (*ec2.CreateRouteOutput, error) {
	return &ec2.CreateRouteOutput{}, nil
}

func (f *EC2) DescribeAvailabilityZones(_ context.Context, _ *ec2.DescribeAvailabilityZonesInput, _ ...func(*ec2.Options)) (*ec2.DescribeAvailabilityZonesOutput, error) {
	return &ec2.DescribeAvailabilityZonesOutput{
		AvailabilityZones: []ec2types.AvailabilityZone{{ZoneName: aws.String("us-east-1a")}},
	}, nil
}

// --- Key pairs ---

func (f *EC2) ImportKeyPair(_ context.Context, in *ec2.ImportKeyPairInput, _ ...func(*ec2.Options)) (*ec2.ImportKeyPairOutput, error) {
	id := f.genID("key")
	f.keyPairs = append(f.keyPairs, ec2types.KeyPairInfo{KeyPairId: aws.String(id), KeyName: in.KeyName})
	return &ec2.ImportKeyPairOutput{KeyPairId: aws.String(id), KeyName: in.KeyName}, nil
}

func (f *EC2) DescribeKeyPairs(_ context.Context, in *ec2.DescribeKeyPairsInput, _ ...func(*ec2.Options)) (*ec2.DescribeKeyPairsOutput, error) {
	var out []ec2types.KeyPairInfo
	for _, kp := range f.keyPairs {
		if len(in.KeyPairIds) > 0 {
			if contains(in.KeyPairIds, aws.ToString(kp.KeyPairId)) {
				out = append(out, kp)
			}
			continue
		}
		for _, flt := range in.Filters {
			if aws.ToString(flt.Name) == "key-name" && len(flt.Values) > 0 && aws.ToString(kp.KeyName) == flt.Values[0] {
				out = append(out, kp)
			}
		}
	}
	return &ec2.DescribeKeyPairsOutput{KeyPairs: out}, nil
}

func (f *EC2) DeleteKeyPair(_ context.Context, in *ec2.DeleteKeyPairInput, _ ...func(*ec2.Options)) (*ec2.DeleteKeyPairOutput, error) {
	name := aws.ToString(in.KeyName)
	for i, kp := range f.keyPairs {
		if aws.ToString(kp.KeyName) == name {
			f.keyPairs = append(f.keyPairs[:i], f.keyPairs[i+1:]...)
			break
		}
	}
	return &ec2.DeleteKeyPairOutput{}, nil
}

// --- Instances ---

func (f *EC2) DescribeInstances(_ context.Context, in *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	var state string
	var nameTag string
	for _, flt := range in.Filters {
		switch aws.ToString(flt.Name) {
		case "instance-state-name":
			if len(flt.Values) > 0 {
				state = flt.Values[0]
			}
		case "tag:Name":
			if len(flt.Values) > 0 {
				nameTag = flt.Values[0]
			}
		}
	}

	var matched []ec2types.Instance
	for _, inst := range f.instances {
		id := aws.ToString(inst.InstanceId)
		if len(in.InstanceIds) > 0 && !contains(in.InstanceIds, id) {
			continue
		}
		if state != "" && string(inst.State.Name) != state {
			continue
		}
		if nameTag != "" && f.tags[id] != nameTag {
			continue
		}
		matched = append(matched, inst)
	}
	return &ec2.DescribeInstancesOutput{
		Reservations: []ec2types.Reservation{{Instances: matched}},
	}, nil
}

func (f *EC2) RunInstances(_ context.Context, in *ec2.RunInstancesInput, _ ...func(*ec2.Options)) (*ec2.RunInstancesOutput, error) {
	count := int(aws.ToInt32(in.MinCount))
	var name string
	for _, spec := range in.TagSpecifications {
		for _, tag := range spec.Tags {
			if aws.ToString(tag.Key) == "Name" {
				name = aws.ToString(tag.Value)
			}
		}
	}

	var created []ec2types.Instance
	for i := 0; i < count; i++ {
		id := f.genID("i")
		inst := ec2types.Instance{
			InstanceId:      aws.String(id),
			State:           &ec2types.InstanceState{Name: ec2types.InstanceStateNameRunning},
			PublicIpAddress: aws.String(fmt.Sprintf("203.0.113.%d", f.nextID)),
		}
		f.instances = append(f.instances, inst)
		if name != "" {
			f.tags[id] = name
		}
		created = append(created, inst)
	}
	return &ec2.RunInstancesOutput{Instances: created}, nil
}

func (f *EC2) TerminateInstances(_ context.Context, in *ec2.TerminateInstancesInput, _ ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error) {
	for _, id := range in.InstanceIds {
		for i, inst := range f.instances {
			if aws.ToString(inst.InstanceId) == id {
				f.instances[i].State = &ec2types.InstanceState{Name: ec2types.InstanceStateNameTerminated}
			}
		}
	}
	return &ec2.TerminateInstancesOutput{}, nil
}

func (f *EC2) CreateTags(_ context.Context, in *ec2.CreateTagsInput, _ ...func(*ec2.Options)) (*ec2.CreateTagsOutput, error) {
	for _, resourceID := range in.Resources {
		for _, tag := range in.Tags {
			if aws.ToString(tag.Key) == "Name" {
				f.tags[resourceID] = aws.ToString(tag.Value)
			}
		}
	}
	return &ec2.CreateTagsOutput{}, nil
}
