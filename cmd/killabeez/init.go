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

	"github.com/spf13/cobra"

	"github.com/coreos/killabeez/swarm"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "reconcile the cloud fleet to the declared state",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		api, err := newAPI()
		if err != nil {
			return err
		}

		s, err := swarm.New(api, cfg).Init()
		if err != nil {
			return err
		}

		fmt.Printf("swarm %q ready: %d hosts\n", s.TagName, len(s.Hosts))
		for _, h := range s.Hosts {
			fmt.Printf("  %s %s\n", h.InstanceID, h.Address)
		}
		return nil
	},
}
