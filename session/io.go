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

package session

// IOHandler is the capability set a Session needs to consume a command's
// output and decide what gets fetched at Finish. Two concrete strategies
// implement it: StreamIO and RemoteIO (see stream.go, remote.go).
type IOHandler interface {
	// OnStdout consumes a chunk of stdout bytes as it arrives. Must be
	// safe to call from the transport's receive path.
	OnStdout(data []byte)

	// OnStderr consumes a chunk of stderr bytes as it arrives.
	OnStderr(data []byte)

	// RewriteCommand returns the command to actually execute. The
	// default behavior is identity; RemoteIO wraps it with shell
	// redirection.
	RewriteCommand(command string) string

	// Artifacts lists remote paths Finish should fetch after the
	// session's work is done.
	Artifacts() []string
}
