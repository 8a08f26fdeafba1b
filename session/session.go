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
	"github.com/pkg/errors"
)

// Session binds one authenticated Transport to an IOHandler and the Data
// bookkeeping for a single host. It is the unit of work a Pool fans out
// across many hosts.
type Session struct {
	Data      Data
	Transport Transport
	IO        IOHandler
}

// New wires a Transport and IOHandler together for host.
func New(data Data, transport Transport, io IOHandler) *Session {
	return &Session{Data: data, Transport: transport, IO: io}
}

// Execute runs command on the remote host, first letting the IO strategy
// rewrite it (RemoteIO wraps it in shell redirection, StreamIO leaves it
// untouched). Output chunks are delivered to the IO strategy as they
// arrive; the remote exit status is returned once the command completes.
func (s *Session) Execute(command string) (int, error) {
	rewritten := s.IO.RewriteCommand(command)
	status, err := s.Transport.Execute(rewritten, s.IO.OnStdout, s.IO.OnStderr)
	if err != nil {
		return status, errors.Wrapf(err, "%s: execute", s.Data.HostID)
	}
	return status, nil
}

// Upload copies localPath to remotePath on the host.
func (s *Session) Upload(localPath, remotePath string) (int64, error) {
	n, err := s.Transport.Upload(localPath, remotePath)
	if err != nil {
		return n, errors.Wrapf(err, "%s: upload", s.Data.HostID)
	}
	return n, nil
}

// Download copies remotePath from the host to localPath.
func (s *Session) Download(remotePath, localPath string) (int64, error) {
	n, err := s.Transport.Download(remotePath, localPath)
	if err != nil {
		return n, errors.Wrapf(err, "%s: download", s.Data.HostID)
	}
	return n, nil
}

// Finish fetches every artifact the IO strategy named (nothing, for
// StreamIO; the two remote log files, for RemoteIO) into the session's
// local data directory. It attempts every artifact even after a failure,
// returning the first error encountered.
func (s *Session) Finish() error {
	var firstErr error
	for _, remotePath := range s.IO.Artifacts() {
		localPath := artifactLocalPath(s.Data, remotePath)
		if _, err := s.Transport.Download(remotePath, localPath); err != nil {
			err = errors.Wrapf(err, "%s: fetch %s", s.Data.HostID, remotePath)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Close disconnects the underlying transport.
func (s *Session) Close() error {
	return s.Transport.Disconnect()
}
