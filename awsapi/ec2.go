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
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/coreos/killabeez/util"
)

// waitPollInterval is the fixed delay between wait() polls, per the
// reconciler's unbounded wait protocol.
const waitPollInterval = 15 * time.Second

// ImportKeyPair imports the public key material in publicKeyFile under
// name. It is not idempotent: an AWS key pair is identified by name, and
// importing the same name twice is an error, which the reconciler's Init
// path avoids by describing first.
func (a *API) ImportKeyPair(name, publicKeyFile string) (string, error) {
	material, err := os.ReadFile(publicKeyFile)
	if err != nil {
		return "", fmt.Errorf("reading public key file %s: %w", publicKeyFile, err)
	}
	out, err := a.ec2.ImportKeyPair(context.Background(), &ec2.ImportKeyPairInput{
		KeyName:           aws.String(name),
		PublicKeyMaterial: material,
	})
	if err != nil {
		return "", wrapErr("import key pair "+name, err)
	}
	return *out.KeyPairId, nil
}

// DescribeKeyPair returns the key pair id matching m. Key pairs are
// identified by KeyName, not a Name tag (ImportKeyPair never applies
// one), so a tagged Matcher filters on key-name rather than tag:Name.
func (a *API) DescribeKeyPair(m Matcher) (string, error) {
	input := &ec2.DescribeKeyPairsInput{}
	if len(m.ids) > 0 {
		input.KeyPairIds = m.ids
	} else {
		input.Filters = []ec2types.Filter{
			{Name: aws.String("key-name"), Values: []string{m.tagged}},
		}
	}
	out, err := a.ec2.DescribeKeyPairs(context.Background(), input)
	if err != nil {
		return "", wrapErr("describe key pair", err)
	}
	if len(out.KeyPairs) == 0 {
		return "", &CloudError{Op: "describe key pair", Absent: true, Err: fmt.Errorf("no key pair matching %v", m)}
	}
	return *out.KeyPairs[0].KeyPairId, nil
}

// DeleteKeyPair deletes the key pair named name.
func (a *API) DeleteKeyPair(name string) error {
	_, err := a.ec2.DeleteKeyPair(context.Background(), &ec2.DeleteKeyPairInput{KeyName: aws.String(name)})
	return wrapErr("delete key pair "+name, err)
}

// DescribeRunningInstances lists Running instances matching m.
func (a *API) DescribeRunningInstances(m Matcher) ([]ec2types.Instance, error) {
	filters := []ec2types.Filter{
		{Name: aws.String("instance-state-name"), Values: []string{string(ec2types.InstanceStateNameRunning)}},
	}
	var ids []string
	if len(m.ids) > 0 {
		ids = m.ids
	} else {
		filters = append(filters, nameFilter(m.tagged))
	}

	out, err := a.ec2.DescribeInstances(context.Background(), &ec2.DescribeInstancesInput{
		InstanceIds: ids,
		Filters:     filters,
	})
	if err != nil {
		return nil, wrapErr("describe instances", err)
	}

	var instances []ec2types.Instance
	for _, r := range out.Reservations {
		instances = append(instances, r.Instances...)
	}
	return instances, nil
}

// LaunchInstances runs count instances of ami in subnetID/securityGroupID
// tagged name, authorized with keyName. It returns as soon as the
// RunInstances call succeeds; callers wait for Running state separately
// via WaitForRunning.
func (a *API) LaunchInstances(name, ami, keyName, subnetID, securityGroupID string, count int) ([]string, error) {
	out, err := a.ec2.RunInstances(context.Background(), &ec2.RunInstancesInput{
		ImageId:          aws.String(ami),
		MinCount:         aws.Int32(int32(count)),
		MaxCount:         aws.Int32(int32(count)),
		KeyName:          aws.String(keyName),
		SubnetId:         aws.String(subnetID),
		SecurityGroupIds: []string{securityGroupID},
		TagSpecifications: []ec2types.TagSpecification{
			{
				ResourceType: ec2types.ResourceTypeInstance,
				Tags:         []ec2types.Tag{{Key: aws.String("Name"), Value: aws.String(name)}},
			},
		},
	})
	if err != nil {
		return nil, wrapErr("run instances", err)
	}

	ids := make([]string, len(out.Instances))
	for i, inst := range out.Instances {
		ids[i] = *inst.InstanceId
	}
	return ids, nil
}

// TerminateInstances schedules the given instance ids for termination.
func (a *API) TerminateInstances(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := a.ec2.TerminateInstances(context.Background(), &ec2.TerminateInstancesInput{InstanceIds: ids})
	return wrapErr("terminate instances", err)
}

// WaitForRunning blocks until every instance in ids reports Running,
// polling every 15 seconds with no timeout. A describe error is logged
// and treated as a reason to keep waiting rather than a fatal condition:
// the cloud side is assumed to eventually become describable again.
func (a *API) WaitForRunning(ids []string) {
	if len(ids) == 0 {
		return
	}
	util.WaitForever(waitPollInterval, func() (bool, error) {
		out, err := a.ec2.DescribeInstances(context.Background(), &ec2.DescribeInstancesInput{
			InstanceIds: ids,
			Filters: []ec2types.Filter{
				{Name: aws.String("instance-state-name"), Values: []string{string(ec2types.InstanceStateNameRunning)}},
			},
		})
		if err != nil {
			return false, err
		}
		running := 0
		for _, r := range out.Reservations {
			running += len(r.Instances)
		}
		return running == len(ids), nil
	})
}

// WaitForTerminated blocks until every instance in ids reports
// Terminated, on the same unbounded poll protocol as WaitForRunning.
func (a *API) WaitForTerminated(ids []string) {
	if len(ids) == 0 {
		return
	}
	util.WaitForever(waitPollInterval, func() (bool, error) {
		out, err := a.ec2.DescribeInstances(context.Background(), &ec2.DescribeInstancesInput{
			InstanceIds: ids,
			Filters: []ec2types.Filter{
				{Name: aws.String("instance-state-name"), Values: []string{string(ec2types.InstanceStateNameTerminated)}},
			},
		})
		if err != nil {
			return false, err
		}
		terminated := 0
		for _, r := range out.Reservations {
			terminated += len(r.Instances)
		}
		return terminated == len(ids), nil
	})
}

// PublicIP returns inst's public IP address, or an error if it has none
// yet (callers only call this after WaitForRunning, but a running
// instance can briefly lack a public IP in eventually-consistent APIs).
func PublicIP(inst ec2types.Instance) (string, error) {
	if inst.PublicIpAddress == nil {
		return "", fmt.Errorf("instance %s has no public ip", *inst.InstanceId)
	}
	return *inst.PublicIpAddress, nil
}
