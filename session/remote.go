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

import (
	"fmt"
	"os"
	"path"

	"github.com/kballard/go-shellquote"
)

// awkTimestampFilter builds the literal filter program embedded in the
// rewritten remote command. It is treated as an opaque string at this
// boundary: neither the transport nor the cloud side interprets it, it
// just runs inside the remote shell.
func awkTimestampFilter(hostID string) string {
	return fmt.Sprintf(`awk '{ print strftime("[%%Y-%%m-%%d %%H:%%M:%%S] %s "), $0 }'`, hostID)
}

// RemoteIO logs a command's output in-situ on the remote host and fetches
// it at Finish, instead of paying network traffic per byte. OnStdout and
// OnStderr drop their input unless verbose mirrors it to the driver's own
// stderr.
type RemoteIO struct {
	hostID  string
	verbose bool
}

// NewRemoteIO builds a Remote strategy tagging its rewritten commands with
// hostID, the same identifier spec uses to distinguish this host's output
// when multiple hosts' logs are later inspected together.
func NewRemoteIO(hostID string, verbose bool) *RemoteIO {
	return &RemoteIO{hostID: hostID, verbose: verbose}
}

func (r *RemoteIO) OnStdout(data []byte) {
	if r.verbose {
		os.Stderr.Write(data)
	}
}

func (r *RemoteIO) OnStderr(data []byte) {
	if r.verbose {
		os.Stderr.Write(data)
	}
}

func (r *RemoteIO) outPath() string { return path.Join(remoteRoot, "stdout.log") }
func (r *RemoteIO) errPath() string { return path.Join(remoteRoot, "stderr.log") }

// RewriteCommand wraps command so its stdout/stderr are each piped through
// a line-prefixing filter and appended into the remote log files, creating
// the remote log directory first if needed. When verbose is set, the
// original command's output additionally tees through to the live channel
// so bytes still flow to OnStdout/OnStderr.
func (r *RemoteIO) RewriteCommand(command string) string {
	filter := awkTimestampFilter(r.hostID)
	mkdir := "mkdir -p " + shellquote.Join(remoteRoot)
	outFilter := fmt.Sprintf(`%s && %s >> %s`, mkdir, filter, shellquote.Join(r.outPath()))
	errFilter := fmt.Sprintf(`%s && %s >> %s`, mkdir, filter, shellquote.Join(r.errPath()))

	if r.verbose {
		return fmt.Sprintf(`%s > >(tee >(%s) >&1) 2> >(tee >(%s) >&2)`, command, outFilter, errFilter)
	}
	return fmt.Sprintf(`%s > >(%s) 2> >(%s)`, command, outFilter, errFilter)
}

// Artifacts names the two remote log files Finish fetches.
func (r *RemoteIO) Artifacts() []string {
	return []string{r.outPath(), r.errPath()}
}
