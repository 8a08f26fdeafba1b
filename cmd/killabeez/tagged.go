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
)

var taggedCmd = &cobra.Command{
	Use:   "tagged",
	Short: "list every cloud resource bearing tag_name",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		api, err := newAPI()
		if err != nil {
			return err
		}

		resources, err := api.ListTagged(cfg.TagName)
		if err != nil {
			return err
		}
		for _, r := range resources {
			fmt.Println(r.String())
		}
		return nil
	},
}
