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

var terminateCmd = &cobra.Command{
	Use:   "terminate",
	Short: "drop the swarm's instances, then its network",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		api, err := newAPI()
		if err != nil {
			return err
		}

		r := swarm.New(api, cfg)
		s, err := r.Load()
		if err != nil {
			return err
		}
		if err := r.Drop(s); err != nil {
			return err
		}

		fmt.Printf("swarm %q terminated\n", cfg.TagName)
		return nil
	},
}
