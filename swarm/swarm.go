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

// Package swarm reconciles the cloud-resident fleet a SwarmConfig
// describes: a VPC/subnet/security-group/gateway network, an imported
// key pair, and a target count of running instances, all identified by
// a shared Name tag so repeated runs converge instead of duplicating.
package swarm

// Network is the set of networking resources a swarm's instances live
// in, created together and torn down together.
type Network struct {
	VPCID             string
	SubnetID          string
	SecurityGroupID   string
	InternetGatewayID string
}

// Host is one running instance in a swarm.
type Host struct {
	InstanceID string
	Address    string // public IPv4
}

// Swarm is a fully reconciled fleet: the network it lives in, the key
// pair its hosts trust, and the hosts themselves.
type Swarm struct {
	TagName  string
	Network  Network
	KeyName  string
	Username string
	Hosts    []Host
}

// Addresses returns the public addresses of every host, in the order
// the reconciler discovered them — the host list a session pool is
// built from.
func (s *Swarm) Addresses() []string {
	addrs := make([]string, len(s.Hosts))
	for i, h := range s.Hosts {
		addrs[i] = h.Address
	}
	return addrs
}
