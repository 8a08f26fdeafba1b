// Copyright 2018 CoreOS, Inc.
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
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

const vpcCIDR = "172.31.0.0/16"

// Matcher selects which resources a describe call should return: either
// an explicit set of IDs (used when the config names a pre-existing
// resource) or everything carrying a given Name tag (used for resources
// the reconciler itself manages).
type Matcher struct {
	ids    []string
	tagged string
}

// ByID matches resources with one of the given IDs exactly.
func ByID(ids ...string) Matcher { return Matcher{ids: ids} }

// ByTag matches every resource whose Name tag equals name.
func ByTag(name string) Matcher { return Matcher{tagged: name} }

func (m Matcher) vpcFilters() (ids []string, filters []ec2types.Filter) {
	if len(m.ids) > 0 {
		return m.ids, nil
	}
	return nil, []ec2types.Filter{nameFilter(m.tagged)}
}

// DescribeVPC returns the VPC matching m, or a CloudError with Absent
// set if none exists.
func (a *API) DescribeVPC(m Matcher) (*ec2types.Vpc, error) {
	ids, filters := m.vpcFilters()
	out, err := a.ec2.DescribeVpcs(context.Background(), &ec2.DescribeVpcsInput{
		VpcIds:  ids,
		Filters: filters,
	})
	if err != nil {
		return nil, wrapErr("describe vpc", err)
	}
	if len(out.Vpcs) == 0 {
		return nil, &CloudError{Op: "describe vpc", Absent: true, Err: fmt.Errorf("no vpc matching %v", m)}
	}
	return &out.Vpcs[0], nil
}

// CreateVPC creates a VPC tagged name, with DNS hostnames/support
// enabled so launched instances resolve each other.
func (a *API) CreateVPC(name string) (*ec2types.Vpc, error) {
	out, err := a.ec2.CreateVpc(context.Background(), &ec2.CreateVpcInput{
		CidrBlock: aws.String(vpcCIDR),
	})
	if err != nil {
		return nil, wrapErr("create vpc", err)
	}
	vpc := out.Vpc

	if err := a.tagWithName(*vpc.VpcId, name); err != nil {
		return nil, err
	}

	if _, err := a.ec2.ModifyVpcAttribute(context.Background(), &ec2.ModifyVpcAttributeInput{
		VpcId:              vpc.VpcId,
		EnableDnsHostnames: &ec2types.AttributeBooleanValue{Value: aws.Bool(true)},
	}); err != nil {
		return nil, wrapErr("enable dns hostnames", err)
	}
	if _, err := a.ec2.ModifyVpcAttribute(context.Background(), &ec2.ModifyVpcAttributeInput{
		VpcId:            vpc.VpcId,
		EnableDnsSupport: &ec2types.AttributeBooleanValue{Value: aws.Bool(true)},
	}); err != nil {
		return nil, wrapErr("enable dns support", err)
	}

	return vpc, nil
}

// DeleteVPC deletes a VPC the reconciler created. Resources depending on
// it (subnet, security group, gateway) must already be gone.
func (a *API) DeleteVPC(id string) error {
	_, err := a.ec2.DeleteVpc(context.Background(), &ec2.DeleteVpcInput{VpcId: aws.String(id)})
	return wrapErr("delete vpc "+id, err)
}

// DescribeSubnet returns the subnet matching m.
func (a *API) DescribeSubnet(m Matcher) (*ec2types.Subnet, error) {
	ids, filters := m.vpcFilters()
	out, err := a.ec2.DescribeSubnets(context.Background(), &ec2.DescribeSubnetsInput{
		SubnetIds: ids,
		Filters:   filters,
	})
	if err != nil {
		return nil, wrapErr("describe subnet", err)
	}
	if len(out.Subnets) == 0 {
		return nil, &CloudError{Op: "describe subnet", Absent: true, Err: fmt.Errorf("no subnet matching %v", m)}
	}
	return &out.Subnets[0], nil
}

// CreateSubnet creates a subnet in vpcID's first availability zone,
// auto-assigning public IPs, tagged name.
func (a *API) CreateSubnet(vpcID, name string) (*ec2types.Subnet, error) {
	azOut, err := a.ec2.DescribeAvailabilityZones(context.Background(), &ec2.DescribeAvailabilityZonesInput{})
	if err != nil {
		return nil, wrapErr("describe availability zones", err)
	}
	if len(azOut.AvailabilityZones) == 0 {
		return nil, &CloudError{Op: "create subnet", Err: fmt.Errorf("no availability zones in region")}
	}
	zone := azOut.AvailabilityZones[0].ZoneName

	out, err := a.ec2.CreateSubnet(context.Background(), &ec2.CreateSubnetInput{
		VpcId:            aws.String(vpcID),
		AvailabilityZone: zone,
		CidrBlock:        aws.String("172.31.0.0/20"),
	})
	if err != nil {
		return nil, wrapErr("create subnet", err)
	}
	subnet := out.Subnet

	if err := a.tagWithName(*subnet.SubnetId, name); err != nil {
		return nil, err
	}

	if _, err := a.ec2.ModifySubnetAttribute(context.Background(), &ec2.ModifySubnetAttributeInput{
		SubnetId:            subnet.SubnetId,
		MapPublicIpOnLaunch: &ec2types.AttributeBooleanValue{Value: aws.Bool(true)},
	}); err != nil {
		return nil, wrapErr("enable public ip on subnet", err)
	}

	return subnet, nil
}

// DeleteSubnet deletes a subnet the reconciler created.
func (a *API) DeleteSubnet(id string) error {
	_, err := a.ec2.DeleteSubnet(context.Background(), &ec2.DeleteSubnetInput{SubnetId: aws.String(id)})
	return wrapErr("delete subnet "+id, err)
}

// DescribeSecurityGroup returns the security group matching m.
func (a *API) DescribeSecurityGroup(m Matcher) (*ec2types.SecurityGroup, error) {
	ids, filters := m.vpcFilters()
	out, err := a.ec2.DescribeSecurityGroups(context.Background(), &ec2.DescribeSecurityGroupsInput{
		GroupIds: ids,
		Filters:  filters,
	})
	if err != nil {
		return nil, wrapErr("describe security group", err)
	}
	if len(out.SecurityGroups) == 0 {
		return nil, &CloudError{Op: "describe security group", Absent: true, Err: fmt.Errorf("no security group matching %v", m)}
	}
	return &out.SecurityGroups[0], nil
}

// CreateSecurityGroup creates a security group in vpcID, tagged name,
// permitting inbound TCP/22 from sshCIDR and unrestricted outbound.
func (a *API) CreateSecurityGroup(vpcID, name, sshCIDR string) (*ec2types.SecurityGroup, error) {
	out, err := a.ec2.CreateSecurityGroup(context.Background(), &ec2.CreateSecurityGroupInput{
		GroupName:   aws.String(name),
		Description: aws.String("killabeez swarm access"),
		VpcId:       aws.String(vpcID),
	})
	if err != nil {
		return nil, wrapErr("create security group", err)
	}
	groupID := *out.GroupId

	if err := a.tagWithName(groupID, name); err != nil {
		return nil, err
	}

	if _, err := a.ec2.AuthorizeSecurityGroupIngress(context.Background(), &ec2.AuthorizeSecurityGroupIngressInput{
		GroupId: aws.String(groupID),
		IpPermissions: []ec2types.IpPermission{
			{
				IpProtocol: aws.String("tcp"),
				FromPort:   aws.Int32(22),
				ToPort:     aws.Int32(22),
				IpRanges:   []ec2types.IpRange{{CidrIp: aws.String(sshCIDR)}},
			},
		},
	}); err != nil {
		delErr := a.DeleteSecurityGroup(groupID)
		return nil, wrapErr("authorize security group ingress", fmt.Errorf("%w (cleanup delete err: %v)", err, delErr))
	}

	return a.DescribeSecurityGroup(ByID(groupID))
}

// DeleteSecurityGroup deletes a security group the reconciler created.
func (a *API) DeleteSecurityGroup(id string) error {
	_, err := a.ec2.DeleteSecurityGroup(context.Background(), &ec2.DeleteSecurityGroupInput{GroupId: aws.String(id)})
	return wrapErr("delete security group "+id, err)
}

// DescribeInternetGateway returns the gateway attached to vpcID.
func (a *API) DescribeInternetGateway(vpcID string) (*ec2types.InternetGateway, error) {
	out, err := a.ec2.DescribeInternetGateways(context.Background(), &ec2.DescribeInternetGatewaysInput{
		Filters: []ec2types.Filter{
			{Name: aws.String("attachment.vpc-id"), Values: []string{vpcID}},
		},
	})
	if err != nil {
		return nil, wrapErr("describe internet gateway", err)
	}
	if len(out.InternetGateways) == 0 {
		return nil, &CloudError{Op: "describe internet gateway", Absent: true, Err: fmt.Errorf("no internet gateway attached to %s", vpcID)}
	}
	return &out.InternetGateways[0], nil
}

// CreateInternetGateway creates a gateway, attaches it to vpcID, waits
// briefly for the attachment to propagate, then inserts a default route
// into the VPC's main route table.
func (a *API) CreateInternetGateway(vpcID, name string) (*ec2types.InternetGateway, error) {
	out, err := a.ec2.CreateInternetGateway(context.Background(), &ec2.CreateInternetGatewayInput{})
	if err != nil {
		return nil, wrapErr("create internet gateway", err)
	}
	igw := out.InternetGateway

	if err := a.tagWithName(*igw.InternetGatewayId, name); err != nil {
		return nil, err
	}

	if _, err := a.ec2.AttachInternetGateway(context.Background(), &ec2.AttachInternetGatewayInput{
		InternetGatewayId: igw.InternetGatewayId,
		VpcId:             aws.String(vpcID),
	}); err != nil {
		return nil, wrapErr("attach internet gateway", err)
	}

	time.Sleep(5 * time.Second)

	rtOut, err := a.ec2.DescribeRouteTables(context.Background(), &ec2.DescribeRouteTablesInput{
		Filters: []ec2types.Filter{
			{Name: aws.String("vpc-id"), Values: []string{vpcID}},
			{Name: aws.String("association.main"), Values: []string{"true"}},
		},
	})
	if err != nil {
		return nil, wrapErr("describe main route table", err)
	}
	if len(rtOut.RouteTables) == 0 {
		return nil, &CloudError{Op: "create internet gateway", Err: fmt.Errorf("no main route table for %s", vpcID)}
	}

	if _, err := a.ec2.CreateRoute(context.Background(), &ec2.CreateRouteInput{
		RouteTableId:         rtOut.RouteTables[0].RouteTableId,
		DestinationCidrBlock: aws.String("0.0.0.0/0"),
		GatewayId:            igw.InternetGatewayId,
	}); err != nil {
		return nil, wrapErr("create default route", err)
	}

	return igw, nil
}

// DeleteInternetGateway detaches id from vpcID and deletes it.
func (a *API) DeleteInternetGateway(id, vpcID string) error {
	if _, err := a.ec2.DetachInternetGateway(context.Background(), &ec2.DetachInternetGatewayInput{
		InternetGatewayId: aws.String(id),
		VpcId:             aws.String(vpcID),
	}); err != nil {
		return wrapErr("detach internet gateway "+id, err)
	}
	_, err := a.ec2.DeleteInternetGateway(context.Background(), &ec2.DeleteInternetGatewayInput{
		InternetGatewayId: aws.String(id),
	})
	return wrapErr("delete internet gateway "+id, err)
}
