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
	"testing"

	"github.com/coreos/killabeez/awsapi/awsapitest"
)

func TestListTaggedFindsEveryManagedResourceKind(t *testing.T) {
	api := NewWithEC2Client(awsapitest.New())

	vpc, err := api.CreateVPC("my-swarm")
	if err != nil {
		t.Fatalf("CreateVPC: %v", err)
	}
	if _, err := api.CreateSubnet(*vpc.VpcId, "my-swarm"); err != nil {
		t.Fatalf("CreateSubnet: %v", err)
	}
	if _, err := api.CreateSecurityGroup(*vpc.VpcId, "my-swarm", "0.0.0.0/0"); err != nil {
		t.Fatalf("CreateSecurityGroup: %v", err)
	}
	pubkey := writeTempPubKey(t)
	if _, err := api.ImportKeyPair("my-swarm", pubkey); err != nil {
		t.Fatalf("ImportKeyPair: %v", err)
	}
	if _, err := api.LaunchInstances("my-swarm", "ami-1", "my-swarm", "subnet-1", "sg-1", 1); err != nil {
		t.Fatalf("LaunchInstances: %v", err)
	}

	resources, err := api.ListTagged("my-swarm")
	if err != nil {
		t.Fatalf("ListTagged: %v", err)
	}

	kinds := map[string]int{}
	for _, r := range resources {
		kinds[r.Kind]++
	}
	for _, kind := range []string{"vpc", "subnet", "security-group", "instance", "key-pair"} {
		if kinds[kind] != 1 {
			t.Fatalf("ListTagged found %d %s resources, want 1 (resources=%v)", kinds[kind], kind, resources)
		}
	}
}

func TestListTaggedFindsNothingForUnrelatedTag(t *testing.T) {
	api := NewWithEC2Client(awsapitest.New())
	if _, err := api.CreateVPC("my-swarm"); err != nil {
		t.Fatalf("CreateVPC: %v", err)
	}

	resources, err := api.ListTagged("other-swarm")
	if err != nil {
		t.Fatalf("ListTagged: %v", err)
	}
	if len(resources) != 0 {
		t.Fatalf("ListTagged(%q) found %v, want none", "other-swarm", resources)
	}
}
