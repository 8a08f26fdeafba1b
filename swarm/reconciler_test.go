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
	"os"
	"path/filepath"
	"testing"

	"github.com/coreos/killabeez/awsapi"
	"github.com/coreos/killabeez/awsapi/awsapitest"
	"github.com/coreos/killabeez/config"
)

func newTestConfig(t *testing.T, tagName string, numBeez int) *config.SwarmConfig {
	t.Helper()
	pubkey := filepath.Join(t.TempDir(), "id_rsa.pub")
	if err := os.WriteFile(pubkey, []byte("ssh-rsa AAAAfake test-key\n"), 0644); err != nil {
		t.Fatalf("writing fake public key: %v", err)
	}
	return &config.SwarmConfig{
		TagName:       tagName,
		NumBeez:       numBeez,
		SSHCIDRBlock:  "0.0.0.0/0",
		Username:      "ubuntu",
		AMI:           "ami-1234",
		PublicKeyFile: pubkey,
	}
}

func TestReconcilerInitCreatesNetworkAndInstances(t *testing.T) {
	api := awsapi.NewWithEC2Client(awsapitest.New())
	cfg := newTestConfig(t, "test-swarm", 2)
	r := New(api, cfg)

	s, err := r.Init()
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if len(s.Hosts) != 2 {
		t.Fatalf("got %d hosts, want 2", len(s.Hosts))
	}
	if s.Network.VPCID == "" || s.Network.SubnetID == "" || s.Network.SecurityGroupID == "" || s.Network.InternetGatewayID == "" {
		t.Fatalf("incomplete network: %+v", s.Network)
	}
	for _, h := range s.Hosts {
		if h.Address == "" {
			t.Fatalf("host %+v has no address", h)
		}
	}
}

func TestReconcilerInitIsIdempotent(t *testing.T) {
	api := awsapi.NewWithEC2Client(awsapitest.New())
	cfg := newTestConfig(t, "test-swarm", 2)
	r := New(api, cfg)

	first, err := r.Init()
	if err != nil {
		t.Fatalf("first Init: %v", err)
	}

	second, err := r.Init()
	if err != nil {
		t.Fatalf("second Init: %v", err)
	}

	if second.Network.VPCID != first.Network.VPCID {
		t.Fatalf("second Init created a new VPC: %s != %s", second.Network.VPCID, first.Network.VPCID)
	}
	if len(second.Hosts) != 2 {
		t.Fatalf("second Init converged to %d hosts, want 2 (target unchanged)", len(second.Hosts))
	}
}

func TestReconcileInstancesLaunchesShortfall(t *testing.T) {
	api := awsapi.NewWithEC2Client(awsapitest.New())
	cfg := newTestConfig(t, "test-swarm", 2)
	r := New(api, cfg)

	if _, err := r.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	cfg.NumBeez = 5
	s, err := r.Init()
	if err != nil {
		t.Fatalf("second Init with higher target: %v", err)
	}
	if len(s.Hosts) != 5 {
		t.Fatalf("got %d hosts after raising target to 5, want 5", len(s.Hosts))
	}
}

func TestReconcileInstancesTerminatesExcess(t *testing.T) {
	api := awsapi.NewWithEC2Client(awsapitest.New())
	cfg := newTestConfig(t, "test-swarm", 5)
	r := New(api, cfg)

	if _, err := r.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	cfg.NumBeez = 2
	s, err := r.Init()
	if err != nil {
		t.Fatalf("second Init with lower target: %v", err)
	}
	if len(s.Hosts) != 2 {
		t.Fatalf("got %d hosts after lowering target to 2, want 2", len(s.Hosts))
	}
}

func TestDropLeavesConfigSuppliedNetworkIntact(t *testing.T) {
	api := awsapi.NewWithEC2Client(awsapitest.New())

	vpc, err := api.CreateVPC("pre-existing")
	if err != nil {
		t.Fatalf("seeding vpc: %v", err)
	}
	subnet, err := api.CreateSubnet(*vpc.VpcId, "pre-existing")
	if err != nil {
		t.Fatalf("seeding subnet: %v", err)
	}
	sg, err := api.CreateSecurityGroup(*vpc.VpcId, "pre-existing", "0.0.0.0/0")
	if err != nil {
		t.Fatalf("seeding security group: %v", err)
	}

	cfg := newTestConfig(t, "test-swarm", 1)
	cfg.VPCID = *vpc.VpcId
	cfg.SubnetID = *subnet.SubnetId
	cfg.SecurityGroupID = *sg.GroupId

	r := New(api, cfg)
	s, err := r.Init()
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	if err := r.Drop(s); err != nil {
		t.Fatalf("Drop: %v", err)
	}

	if _, err := api.DescribeVPC(awsapi.ByID(*vpc.VpcId)); err != nil {
		t.Fatalf("pre-existing vpc was deleted by Drop: %v", err)
	}
	if _, err := api.DescribeSubnet(awsapi.ByID(*subnet.SubnetId)); err != nil {
		t.Fatalf("pre-existing subnet was deleted by Drop: %v", err)
	}
	if _, err := api.DescribeSecurityGroup(awsapi.ByID(*sg.GroupId)); err != nil {
		t.Fatalf("pre-existing security group was deleted by Drop: %v", err)
	}
}

func TestInstancesToHosts(t *testing.T) {
	api := awsapi.NewWithEC2Client(awsapitest.New())
	cfg := newTestConfig(t, "test-swarm", 3)
	r := New(api, cfg)

	s, err := r.Init()
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if len(s.Addresses()) != 3 {
		t.Fatalf("Addresses() returned %d entries, want 3", len(s.Addresses()))
	}
	for i, addr := range s.Addresses() {
		if addr != s.Hosts[i].Address {
			t.Fatalf("Addresses()[%d] = %q, want %q", i, addr, s.Hosts[i].Address)
		}
	}
}
