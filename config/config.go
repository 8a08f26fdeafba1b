// Copyright 2015 CoreOS, Inc.
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

// Package config loads and validates the TOML swarm configuration a
// fleet is reconciled from.
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	defaultSSHCIDR  = "0.0.0.0/0"
	defaultUsername = "ubuntu"
	defaultAMI      = "ami-04b4f1a9cf54c11d0"
)

// ConfigError reports a problem with the swarm config file itself: a
// missing file, malformed TOML, or a value that violates one of the
// cross-field invariants (exactly one of PublicKeyFile/KeyID).
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// SwarmConfig is the declared desired state a fleet is reconciled
// toward: how many hosts, what image, how to reach them, and which
// pre-existing cloud resources (if any) to adopt instead of creating.
type SwarmConfig struct {
	TagName string `toml:"tag_name"`
	NumBeez int    `toml:"num_beez"`

	SSHCIDRBlock string `toml:"ssh_cidr_block"`
	Username     string `toml:"username"`
	AMI          string `toml:"ami"`

	PublicKeyFile string `toml:"public_key_file"`
	KeyID         string `toml:"key_id"`

	VPCID           string `toml:"vpc_id"`
	SubnetID        string `toml:"subnet_id"`
	SecurityGroupID string `toml:"security_group_id"`
}

// Load reads and validates a SwarmConfig from path, applying defaults
// for SSHCIDRBlock, Username and AMI when the file leaves them unset.
func Load(path string) (*SwarmConfig, error) {
	var sc SwarmConfig
	if _, err := toml.DecodeFile(path, &sc); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	if sc.TagName == "" {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("tag_name is required")}
	}
	if sc.NumBeez < 0 {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("num_beez must be >= 0")}
	}

	if sc.SSHCIDRBlock == "" {
		sc.SSHCIDRBlock = defaultSSHCIDR
	}
	if sc.Username == "" {
		sc.Username = defaultUsername
	}
	if sc.AMI == "" {
		sc.AMI = defaultAMI
	}

	hasPubKey := sc.PublicKeyFile != ""
	hasKeyID := sc.KeyID != ""
	if hasPubKey == hasKeyID {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("exactly one of public_key_file or key_id must be set")}
	}

	hasVPC := sc.VPCID != ""
	hasSubnet := sc.SubnetID != ""
	hasSG := sc.SecurityGroupID != ""
	if (hasVPC || hasSubnet || hasSG) && !(hasVPC && hasSubnet && hasSG) {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("vpc_id, subnet_id and security_group_id must be set together or not at all")}
	}

	return &sc, nil
}

// PrivateKeyFile derives the local private key path from PublicKeyFile:
// stripping a trailing ".pub". Callers only reach this when
// PublicKeyFile is set (KeyID implies no local key material at all). A
// PublicKeyFile not ending in ".pub" is used unchanged, on the
// assumption it already names the private key.
func (sc *SwarmConfig) PrivateKeyFile() string {
	if strings.HasSuffix(sc.PublicKeyFile, ".pub") {
		return strings.TrimSuffix(sc.PublicKeyFile, ".pub")
	}
	return sc.PublicKeyFile
}

// UsesExistingNetwork reports whether the config names a pre-existing
// VPC to adopt instead of creating a new one. VPCID, SubnetID and
// SecurityGroupID are adopted together or not at all.
func (sc *SwarmConfig) UsesExistingNetwork() bool {
	return sc.VPCID != "" && sc.SubnetID != "" && sc.SecurityGroupID != ""
}

func (sc *SwarmConfig) String() string {
	keyID := sc.KeyID
	if keyID == "" {
		keyID = "none"
	}
	pubKey := sc.PublicKeyFile
	if pubKey == "" {
		pubKey = "none"
	}
	return fmt.Sprintf(
		"CONFIG ]---------------------------\n"+
			"Tag Name:     %s\n"+
			"Num Beez:     %d\n"+
			"SSH CIDR:     %s\n"+
			"Username:     %s\n"+
			"AMI:          %s\n"+
			"Pub Key File: %s\n"+
			"Key Id:       %s\n",
		sc.TagName, sc.NumBeez, sc.SSHCIDRBlock, sc.Username, sc.AMI, pubKey, keyID,
	)
}
