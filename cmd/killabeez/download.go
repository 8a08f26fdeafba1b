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
	"os"

	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download FILE",
	Short: "pull FILE from every host in the swarm",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file := args[0]

		cfg, s, err := loadSwarm()
		if err != nil {
			return err
		}
		pool, err := buildPool(cfg, s)
		if err != nil {
			return err
		}

		results := pool.Download(file, file)
		ok := printResults(results)
		pool.Finish()

		if !ok {
			os.Exit(1)
		}
		return nil
	},
}
