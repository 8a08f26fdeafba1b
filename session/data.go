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

// Package session implements the parallel remote-execution engine: Sessions
// bind a transport to an IO strategy, and a Pool fans commands and file
// transfers out across many Sessions with bounded concurrency.
package session

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Data is the per-host local/remote path bookkeeping for one Session. It
// mirrors spec's SessionData: a stable host identifier derived from the
// host address, a local directory that exists on disk for the lifetime of
// the process, and the remote directory the Remote IO strategy logs into.
type Data struct {
	HostID     string
	LocalRoot  string
	RemoteRoot string
}

// remoteRoot is fixed: the Remote IO strategy always logs relative to the
// login user's home directory, so every host gets the same relative path.
const remoteRoot = "killabeez"

// NewData derives a Data record for host, creating its local directory
// under dataDir.
func NewData(host, dataDir string) (Data, error) {
	hostID := strings.NewReplacer(":", "_", ".", "_").Replace(host)
	localRoot := filepath.Join(dataDir, hostID)

	if err := os.MkdirAll(localRoot, 0755); err != nil {
		return Data{}, errors.Wrapf(err, "creating local data directory %s", localRoot)
	}

	return Data{
		HostID:     hostID,
		LocalRoot:  localRoot,
		RemoteRoot: remoteRoot,
	}, nil
}

// artifactLocalPath maps a remote artifact path to where Finish stores it
// locally: the artifact's base name, under the host's local directory.
func artifactLocalPath(data Data, remotePath string) string {
	return filepath.Join(data.LocalRoot, filepath.Base(remotePath))
}
