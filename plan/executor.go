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

package plan

import (
	"fmt"

	"github.com/coreos/killabeez/session"
)

// Pool is the capability set the executor needs from a session.Pool.
// *session.Pool satisfies it; tests substitute a fake to observe the
// barrier-per-action behavior without a network.
type Pool interface {
	Execute(command string) []session.Result
	Upload(localPath, remotePath string) []session.Result
	Download(remotePath, localPath string) []session.Result
}

// Run applies each action to pool in order, one pool-level call per
// action, and returns every action's per-host results in the same
// order. A runtime per-host failure is captured in that host's Result
// and does not halt subsequent actions; only a parse error (already
// surfaced by Parse, before Run is ever called) aborts execution
// entirely.
func Run(pool Pool, actions []Action) [][]session.Result {
	results := make([][]session.Result, len(actions))
	for i, action := range actions {
		switch action.Verb {
		case Execute:
			results[i] = pool.Execute(action.Arg)
		case Upload:
			results[i] = pool.Upload(action.Arg, action.Arg)
		case Download:
			results[i] = pool.Download(action.Arg, action.Arg)
		default:
			panic(fmt.Sprintf("plan: unhandled verb %v", action.Verb))
		}
	}
	return results
}
