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

	"github.com/spf13/cobra"

	killabeezplan "github.com/coreos/killabeez/plan"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "run every action in the plan file against the swarm",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(planPath)
		if err != nil {
			return err
		}
		defer f.Close()

		actions, err := killabeezplan.Parse(f)
		if err != nil {
			return err
		}

		cfg, s, err := loadSwarm()
		if err != nil {
			return err
		}
		pool, err := buildPool(cfg, s)
		if err != nil {
			return err
		}

		allResults := killabeezplan.Run(pool, actions)
		pool.Finish()

		ok := true
		for i, action := range actions {
			fmt.Printf("== %s: %s ==\n", action.Verb, action.Arg)
			if !printResults(allResults[i]) {
				ok = false
			}
		}

		if !ok {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	planCmd.Flags().StringVarP(&planPath, "planfile", "p", "swarm.plan", "path to the plan file")
}
