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
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/smithy-go"

	"github.com/coreos/killabeez/awsapi/awsapitest"
)

type apiError struct {
	code string
}

func (e *apiError) Error() string                 { return e.code }
func (e *apiError) ErrorCode() string             { return e.code }
func (e *apiError) ErrorMessage() string          { return e.code }
func (e *apiError) ErrorFault() smithy.ErrorFault { return smithy.FaultUnknown }

func TestWrapErrClassifiesNotFoundAsAbsent(t *testing.T) {
	err := wrapErr("describe vpc", &apiError{code: "InvalidVpcID.NotFound"})
	if !IsAbsent(err) {
		t.Fatalf("expected IsAbsent(err) to be true for a NotFound code")
	}
}

func TestWrapErrDoesNotClassifyOtherErrorsAsAbsent(t *testing.T) {
	err := wrapErr("describe vpc", &apiError{code: "RequestLimitExceeded"})
	if IsAbsent(err) {
		t.Fatalf("expected IsAbsent(err) to be false for a non-NotFound code")
	}

	err = wrapErr("describe vpc", fmt.Errorf("connection reset"))
	if IsAbsent(err) {
		t.Fatalf("expected IsAbsent(err) to be false for a plain transport error")
	}
}

func TestMatcherVPCFiltersPrefersIDs(t *testing.T) {
	m := ByID("vpc-1", "vpc-2")
	ids, filters := m.vpcFilters()
	if len(ids) != 2 || filters != nil {
		t.Fatalf("ByID matcher should yield explicit ids and no filters, got ids=%v filters=%v", ids, filters)
	}

	m = ByTag("my-swarm")
	ids, filters = m.vpcFilters()
	if ids != nil || len(filters) != 1 {
		t.Fatalf("ByTag matcher should yield a single tag filter and no ids, got ids=%v filters=%v", ids, filters)
	}
}

func TestDescribeVPCReturnsAbsentWhenEmpty(t *testing.T) {
	api := NewWithEC2Client(awsapitest.New())
	_, err := api.DescribeVPC(ByTag("nonexistent"))
	if !IsAbsent(err) {
		t.Fatalf("expected DescribeVPC to report absent for no matching vpc, got %v", err)
	}
}

func TestCreateVPCThenDescribeFindsIt(t *testing.T) {
	api := NewWithEC2Client(awsapitest.New())

	vpc, err := api.CreateVPC("my-swarm")
	if err != nil {
		t.Fatalf("CreateVPC: %v", err)
	}

	found, err := api.DescribeVPC(ByTag("my-swarm"))
	if err != nil {
		t.Fatalf("DescribeVPC: %v", err)
	}
	if *found.VpcId != *vpc.VpcId {
		t.Fatalf("DescribeVPC found %q, want %q", *found.VpcId, *vpc.VpcId)
	}
}

func TestDescribeSecurityGroupByID(t *testing.T) {
	api := NewWithEC2Client(awsapitest.New())

	vpc, err := api.CreateVPC("my-swarm")
	if err != nil {
		t.Fatalf("CreateVPC: %v", err)
	}
	sg, err := api.CreateSecurityGroup(*vpc.VpcId, "my-swarm", "0.0.0.0/0")
	if err != nil {
		t.Fatalf("CreateSecurityGroup: %v", err)
	}

	found, err := api.DescribeSecurityGroup(ByID(*sg.GroupId))
	if err != nil {
		t.Fatalf("DescribeSecurityGroup: %v", err)
	}
	if *found.GroupId != *sg.GroupId {
		t.Fatalf("DescribeSecurityGroup found %q, want %q", *found.GroupId, *sg.GroupId)
	}
}

func writeTempPubKey(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "id_rsa.pub")
	if err := os.WriteFile(path, []byte("ssh-rsa AAAAfake test-key\n"), 0644); err != nil {
		t.Fatalf("writing fake public key: %v", err)
	}
	return path
}

func TestImportKeyPairThenDeleteKeyPair(t *testing.T) {
	api := NewWithEC2Client(awsapitest.New())

	pubkey := writeTempPubKey(t)
	if _, err := api.ImportKeyPair("my-swarm", pubkey); err != nil {
		t.Fatalf("ImportKeyPair: %v", err)
	}

	if _, err := api.DescribeKeyPair(ByTag("my-swarm")); err != nil {
		t.Fatalf("DescribeKeyPair after import: %v", err)
	}

	if err := api.DeleteKeyPair("my-swarm"); err != nil {
		t.Fatalf("DeleteKeyPair: %v", err)
	}
	if _, err := api.DescribeKeyPair(ByTag("my-swarm")); !IsAbsent(err) {
		t.Fatalf("expected absent key pair after delete, got %v", err)
	}
}

func TestLaunchThenTerminateInstances(t *testing.T) {
	api := NewWithEC2Client(awsapitest.New())

	ids, err := api.LaunchInstances("my-swarm", "ami-1", "my-swarm", "subnet-1", "sg-1", 3)
	if err != nil {
		t.Fatalf("LaunchInstances: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("got %d instance ids, want 3", len(ids))
	}

	instances, err := api.DescribeRunningInstances(ByTag("my-swarm"))
	if err != nil {
		t.Fatalf("DescribeRunningInstances: %v", err)
	}
	if len(instances) != 3 {
		t.Fatalf("got %d running instances, want 3", len(instances))
	}

	if err := api.TerminateInstances(ids); err != nil {
		t.Fatalf("TerminateInstances: %v", err)
	}
	instances, err = api.DescribeRunningInstances(ByTag("my-swarm"))
	if err != nil {
		t.Fatalf("DescribeRunningInstances after terminate: %v", err)
	}
	if len(instances) != 0 {
		t.Fatalf("got %d running instances after terminate, want 0", len(instances))
	}
}
