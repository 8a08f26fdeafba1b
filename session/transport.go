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

import "github.com/coreos/killabeez/sshclient"

// Transport is the capability contract a Session needs from a single
// authenticated connection to one host. *sshclient.Client satisfies it;
// tests substitute a fake to drive the fan-out and isolation properties
// without a network.
type Transport interface {
	Execute(command string, onStdout, onStderr sshclient.OutputFunc) (int, error)
	Upload(localPath, remotePath string) (int64, error)
	Download(remotePath, localPath string) (int64, error)
	Disconnect() error
}

// Dialer opens a Transport to host, authenticating as username. It exists
// so Pool construction can be driven against a fake in tests.
type Dialer func(host, username string, auth sshclient.Auth) (Transport, error)

// DialSSH is the production Dialer, backed by sshclient.Connect.
func DialSSH(host, username string, auth sshclient.Auth) (Transport, error) {
	return sshclient.Connect(host, username, auth)
}
