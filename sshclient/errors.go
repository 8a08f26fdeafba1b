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

package sshclient

import "fmt"

// AddressError reports a host string that could not be resolved to a
// dialable endpoint.
type AddressError struct {
	Host string
	Err  error
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("invalid host address %q: %v", e.Host, e.Err)
}

func (e *AddressError) Unwrap() error { return e.Err }

// AuthenticationFailed reports rejected credentials.
type AuthenticationFailed struct {
	Host string
	Err  error
}

func (e *AuthenticationFailed) Error() string {
	return fmt.Sprintf("authentication failed for %s: %v", e.Host, e.Err)
}

func (e *AuthenticationFailed) Unwrap() error { return e.Err }

// ConnectionError reports a transport-level failure that isn't an auth
// rejection (refused connection, timeout, network unreachable, ...).
type ConnectionError struct {
	Host string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connecting to %s: %v", e.Host, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// CommandError reports a remote command that could not be run to a
// reported exit status: the session channel failed to open or start, or
// it closed without reporting an exit status.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("running %q: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// TransferError reports an upload or download failure partway through a
// file transfer. Per the transport contract, a failed upload may leave a
// truncated remote file; TransferError carries how many bytes were moved
// before the failure.
type TransferError struct {
	LocalPath, RemotePath string
	BytesMoved            int64
	Err                   error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transferring %s <-> %s (%d bytes moved): %v", e.LocalPath, e.RemotePath, e.BytesMoved, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }
