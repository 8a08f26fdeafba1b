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

package main

import (
	"fmt"
	"os"

	"github.com/coreos/killabeez/config"
	"github.com/coreos/killabeez/session"
	"github.com/coreos/killabeez/sshclient"
	"github.com/coreos/killabeez/swarm"
)

// loadSwarm loads the config and the cloud-resident fleet it describes
// (assumed to already exist; this never creates resources).
func loadSwarm() (*config.SwarmConfig, *swarm.Swarm, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	api, err := newAPI()
	if err != nil {
		return nil, nil, err
	}
	s, err := swarm.New(api, cfg).Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading swarm: %w", err)
	}
	return cfg, s, nil
}

// ioFactoryFor builds the IOFactory matching the -r/--remote flag.
func ioFactoryFor() session.IOFactory {
	if remote {
		return func(data session.Data) (session.IOHandler, error) {
			return session.NewRemoteIO(data.HostID, verbose), nil
		}
	}
	return func(data session.Data) (session.IOHandler, error) {
		return session.NewStreamIO(data, verbose)
	}
}

// buildPool opens a session.Pool across every host in s, authenticating
// with the config's key material.
func buildPool(cfg *config.SwarmConfig, s *swarm.Swarm) (*session.Pool, error) {
	auth, err := authFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	return session.NewPool(s.Addresses(), cfg.Username, auth, session.DialSSH, dataDir, ioFactoryFor())
}

func authFromConfig(cfg *config.SwarmConfig) (sshclient.Auth, error) {
	if cfg.PublicKeyFile == "" {
		return sshclient.Auth{}, fmt.Errorf("no public_key_file in config; key_id-only swarms cannot SSH without local key material")
	}
	return sshclient.KeyFile(cfg.PrivateKeyFile(), ""), nil
}

// printResults prints one line per host in input order, matching the
// per-host success/failure reporting the driver guarantees.
func printResults(results []session.Result) bool {
	ok := true
	for _, r := range results {
		if r.Err != nil {
			ok = false
			fmt.Fprintf(os.Stderr, "%s: error: %v\n", r.Host, r.Err)
			continue
		}
		fmt.Printf("%s: exit=%d\n", r.Host, r.Status)
	}
	return ok
}
