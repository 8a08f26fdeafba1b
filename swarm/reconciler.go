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

package swarm

import (
	"fmt"

	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/coreos/pkg/capnslog"
	"github.com/pkg/errors"

	"github.com/coreos/killabeez/awsapi"
	"github.com/coreos/killabeez/config"
)

var plog = capnslog.NewPackageLogger("github.com/coreos/killabeez", "swarm")

// Reconciler drives a Swarm's cloud-resident state toward a
// config.SwarmConfig, through three idempotent entry points: Init
// (create-if-missing), Load (assume it exists), and Drop (tear down
// what it created).
type Reconciler struct {
	api *awsapi.API
	cfg *config.SwarmConfig
}

// New builds a Reconciler for cfg, using api for all cloud calls.
func New(api *awsapi.API, cfg *config.SwarmConfig) *Reconciler {
	return &Reconciler{api: api, cfg: cfg}
}

// matcherFor returns an explicit-ID matcher when id is config-supplied,
// falling back to the tag the reconciler manages resources under.
func (r *Reconciler) matcherFor(id string) awsapi.Matcher {
	if id != "" {
		return awsapi.ByID(id)
	}
	return awsapi.ByTag(r.cfg.TagName)
}

// Init creates any resource the config doesn't already name, in
// dependency order: VPC, Subnet, SecurityGroup, InternetGateway, then
// KeyPair, then Instances converged to num_beez.
func (r *Reconciler) Init() (*Swarm, error) {
	net, err := r.reconcileNetwork(true)
	if err != nil {
		return nil, err
	}

	keyName, err := r.reconcileKeyPair(true)
	if err != nil {
		return nil, err
	}

	hosts, err := r.reconcileInstances(net, keyName)
	if err != nil {
		return nil, err
	}

	return &Swarm{
		TagName:  r.cfg.TagName,
		Network:  *net,
		KeyName:  keyName,
		Username: r.cfg.Username,
		Hosts:    hosts,
	}, nil
}

// Load assumes the fleet already exists and fetches its resource
// identifiers without creating anything.
func (r *Reconciler) Load() (*Swarm, error) {
	net, err := r.reconcileNetwork(false)
	if err != nil {
		return nil, err
	}

	keyName, err := r.reconcileKeyPair(false)
	if err != nil {
		return nil, err
	}

	instances, err := r.api.DescribeRunningInstances(r.matcherFor(""))
	if err != nil {
		return nil, err
	}
	hosts, err := instancesToHosts(instances)
	if err != nil {
		return nil, err
	}

	return &Swarm{
		TagName:  r.cfg.TagName,
		Network:  *net,
		KeyName:  keyName,
		Username: r.cfg.Username,
		Hosts:    hosts,
	}, nil
}

// Drop destroys every managed resource in reverse dependency order:
// instances, key pair, internet gateway, security group, subnet, VPC.
// A resource the config named explicitly (not one the reconciler
// created) is left alone.
func (r *Reconciler) Drop(s *Swarm) error {
	ids := make([]string, len(s.Hosts))
	for i, h := range s.Hosts {
		ids[i] = h.InstanceID
	}
	if err := r.api.TerminateInstances(ids); err != nil {
		return err
	}
	r.api.WaitForTerminated(ids)

	if r.cfg.KeyID == "" {
		if err := r.api.DeleteKeyPair(r.cfg.TagName); err != nil && !awsapi.IsAbsent(err) {
			return err
		}
	}

	if r.cfg.VPCID == "" {
		if s.Network.InternetGatewayID != "" {
			if err := r.api.DeleteInternetGateway(s.Network.InternetGatewayID, s.Network.VPCID); err != nil && !awsapi.IsAbsent(err) {
				return err
			}
		}
		if r.cfg.SecurityGroupID == "" {
			if err := r.api.DeleteSecurityGroup(s.Network.SecurityGroupID); err != nil && !awsapi.IsAbsent(err) {
				return err
			}
		}
		if r.cfg.SubnetID == "" {
			if err := r.api.DeleteSubnet(s.Network.SubnetID); err != nil && !awsapi.IsAbsent(err) {
				return err
			}
		}
		if err := r.api.DeleteVPC(s.Network.VPCID); err != nil && !awsapi.IsAbsent(err) {
			return err
		}
	}

	return nil
}

func (r *Reconciler) reconcileNetwork(create bool) (*Network, error) {
	vpc, err := r.api.DescribeVPC(r.matcherFor(r.cfg.VPCID))
	if err != nil {
		if !create || !awsapi.IsAbsent(err) {
			return nil, errors.Wrap(err, "resolving vpc")
		}
		vpc, err = r.api.CreateVPC(r.cfg.TagName)
		if err != nil {
			return nil, errors.Wrap(err, "creating vpc")
		}
	}
	vpcID := *vpc.VpcId

	subnet, err := r.api.DescribeSubnet(r.matcherFor(r.cfg.SubnetID))
	if err != nil {
		if !create || !awsapi.IsAbsent(err) {
			return nil, errors.Wrap(err, "resolving subnet")
		}
		subnet, err = r.api.CreateSubnet(vpcID, r.cfg.TagName)
		if err != nil {
			return nil, errors.Wrap(err, "creating subnet")
		}
	}

	sg, err := r.api.DescribeSecurityGroup(r.matcherFor(r.cfg.SecurityGroupID))
	if err != nil {
		if !create || !awsapi.IsAbsent(err) {
			return nil, errors.Wrap(err, "resolving security group")
		}
		sg, err = r.api.CreateSecurityGroup(vpcID, r.cfg.TagName, r.cfg.SSHCIDRBlock)
		if err != nil {
			return nil, errors.Wrap(err, "creating security group")
		}
	}

	igw, err := r.api.DescribeInternetGateway(vpcID)
	if err != nil {
		if !create || !awsapi.IsAbsent(err) {
			return nil, errors.Wrap(err, "resolving internet gateway")
		}
		igw, err = r.api.CreateInternetGateway(vpcID, r.cfg.TagName)
		if err != nil {
			return nil, errors.Wrap(err, "creating internet gateway")
		}
	}

	return &Network{
		VPCID:             vpcID,
		SubnetID:          *subnet.SubnetId,
		SecurityGroupID:   *sg.GroupId,
		InternetGatewayID: *igw.InternetGatewayId,
	}, nil
}

func (r *Reconciler) reconcileKeyPair(create bool) (string, error) {
	if r.cfg.KeyID != "" {
		if _, err := r.api.DescribeKeyPair(awsapi.ByID(r.cfg.KeyID)); err != nil {
			return "", errors.Wrap(err, "resolving key pair")
		}
		return r.cfg.KeyID, nil
	}

	if _, err := r.api.DescribeKeyPair(awsapi.ByTag(r.cfg.TagName)); err != nil {
		if !create || !awsapi.IsAbsent(err) {
			return "", errors.Wrap(err, "resolving key pair")
		}
		if _, err := r.api.ImportKeyPair(r.cfg.TagName, r.cfg.PublicKeyFile); err != nil {
			return "", errors.Wrap(err, "importing key pair")
		}
	}
	return r.cfg.TagName, nil
}

// reconcileInstances converges the running instance count to
// cfg.NumBeez: launching the shortfall, or terminating the first
// (existing - target) instances in describe order when over, then
// waiting for the converged set to be Running.
func (r *Reconciler) reconcileInstances(net *Network, keyName string) ([]Host, error) {
	existing, err := r.api.DescribeRunningInstances(awsapi.ByTag(r.cfg.TagName))
	if err != nil {
		return nil, errors.Wrap(err, "listing existing instances")
	}

	target := r.cfg.NumBeez
	var surviving []ec2types.Instance
	var waitIDs []string

	switch {
	case len(existing) < target:
		surviving = existing
		shortfall := target - len(existing)
		newIDs, err := r.api.LaunchInstances(r.cfg.TagName, r.cfg.AMI, keyName, net.SubnetID, net.SecurityGroupID, shortfall)
		if err != nil {
			return nil, errors.Wrap(err, "launching instances")
		}
		for _, id := range existing {
			waitIDs = append(waitIDs, *id.InstanceId)
		}
		waitIDs = append(waitIDs, newIDs...)
		plog.Infof("launching %d instances to reach target %d", shortfall, target)

	case len(existing) > target:
		excess := len(existing) - target
		toTerminate := existing[:excess]
		surviving = existing[excess:]
		var termIDs []string
		for _, inst := range toTerminate {
			termIDs = append(termIDs, *inst.InstanceId)
		}
		if err := r.api.TerminateInstances(termIDs); err != nil {
			return nil, errors.Wrap(err, "terminating excess instances")
		}
		r.api.WaitForTerminated(termIDs)
		for _, inst := range surviving {
			waitIDs = append(waitIDs, *inst.InstanceId)
		}
		plog.Infof("terminating %d instances to reach target %d", excess, target)

	default:
		surviving = existing
		for _, inst := range existing {
			waitIDs = append(waitIDs, *inst.InstanceId)
		}
	}

	r.api.WaitForRunning(waitIDs)

	if len(waitIDs) == 0 {
		return nil, nil
	}

	final, err := r.api.DescribeRunningInstances(awsapi.ByID(waitIDs...))
	if err != nil {
		return nil, errors.Wrap(err, "describing converged instances")
	}
	return instancesToHosts(final)
}

func instancesToHosts(instances []ec2types.Instance) ([]Host, error) {
	hosts := make([]Host, 0, len(instances))
	for _, inst := range instances {
		addr, err := awsapi.PublicIP(inst)
		if err != nil {
			return nil, fmt.Errorf("instance %s: %w", *inst.InstanceId, err)
		}
		hosts = append(hosts, Host{InstanceID: *inst.InstanceId, Address: addr})
	}
	return hosts, nil
}
