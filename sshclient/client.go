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

// Package sshclient wraps golang.org/x/crypto/ssh and github.com/pkg/sftp
// into the single-host Transport Client contract: connect once, then
// execute commands and move files over that one authenticated session.
package sshclient

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/coreos/pkg/capnslog"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

var plog = capnslog.NewPackageLogger("github.com/coreos/killabeez", "sshclient")

const (
	defaultPort   = 22
	transferChunk = 32 * 1024
)

// Client is a single authenticated session to one host.
type Client struct {
	conn *ssh.Client
	host string
}

// OutputFunc consumes a chunk of bytes as they arrive on a stream.
// Implementations must be safe to call repeatedly in arrival order; the
// Client never calls an OutputFunc concurrently with itself.
type OutputFunc func([]byte)

// Connect dials host (host or host:port, default port 22), authenticates
// as username with auth, and returns a live Client.
func Connect(host, username string, auth Auth) (*Client, error) {
	addr, err := resolveAddr(host)
	if err != nil {
		return nil, &AddressError{Host: host, Err: err}
	}

	method, err := auth.method()
	if err != nil {
		return nil, &AuthenticationFailed{Host: host, Err: err}
	}

	cfg := &ssh.ClientConfig{
		User:            username,
		Auth:            []ssh.AuthMethod{method},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}

	conn, err := ssh.Dial("tcp", addr, cfg)
	if err != nil {
		if isAuthError(err) {
			return nil, &AuthenticationFailed{Host: host, Err: err}
		}
		return nil, &ConnectionError{Host: host, Err: err}
	}

	return &Client{conn: conn, host: host}, nil
}

func resolveAddr(host string) (string, error) {
	if host == "" {
		return "", errors.New("empty host")
	}
	if strings.Contains(host, ":") {
		h, p, err := net.SplitHostPort(host)
		if err != nil {
			return "", err
		}
		if _, err := strconv.ParseUint(p, 10, 16); err != nil {
			return "", fmt.Errorf("invalid port %q: %w", p, err)
		}
		return net.JoinHostPort(h, p), nil
	}
	return net.JoinHostPort(host, strconv.Itoa(defaultPort)), nil
}

func isAuthError(err error) bool {
	return strings.Contains(err.Error(), "unable to authenticate")
}

// Execute runs command on the remote host, delivering stdout/stderr byte
// chunks to onStdout/onStderr as they arrive, and returns the remote exit
// status. A channel that closes without ever reporting an exit status
// surfaces as CommandError, per the transport contract.
func (c *Client) Execute(command string, onStdout, onStderr OutputFunc) (int, error) {
	session, err := c.conn.NewSession()
	if err != nil {
		return 0, &CommandError{Command: command, Err: err}
	}
	defer session.Close()

	stdout, err := session.StdoutPipe()
	if err != nil {
		return 0, &CommandError{Command: command, Err: err}
	}
	stderr, err := session.StderrPipe()
	if err != nil {
		return 0, &CommandError{Command: command, Err: err}
	}

	if err := session.Start(command); err != nil {
		return 0, &CommandError{Command: command, Err: err}
	}

	done := make(chan struct{}, 2)
	go func() {
		drain(stdout, onStdout)
		done <- struct{}{}
	}()
	go func() {
		drain(stderr, onStderr)
		done <- struct{}{}
	}()
	<-done
	<-done

	err = session.Wait()
	if err == nil {
		return 0, nil
	}

	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitStatus(), nil
	}

	var missing *ssh.ExitMissingError
	if errors.As(err, &missing) {
		return 0, &CommandError{Command: command, Err: err}
	}

	return 0, &CommandError{Command: command, Err: err}
}

func drain(r io.Reader, fn OutputFunc) {
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 && fn != nil {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			fn(chunk)
		}
		if err != nil {
			return
		}
	}
}

// Upload streams localPath to remotePath over SFTP in 32 KiB chunks and
// returns the number of bytes written. A failure partway through may leave
// remotePath truncated; no atomicity is attempted.
func (c *Client) Upload(localPath, remotePath string) (int64, error) {
	local, err := os.Open(localPath)
	if err != nil {
		return 0, &TransferError{LocalPath: localPath, RemotePath: remotePath, Err: err}
	}
	defer local.Close()

	sc, err := sftp.NewClient(c.conn)
	if err != nil {
		return 0, &TransferError{LocalPath: localPath, RemotePath: remotePath, Err: err}
	}
	defer sc.Close()

	remote, err := sc.Create(remotePath)
	if err != nil {
		return 0, &TransferError{LocalPath: localPath, RemotePath: remotePath, Err: err}
	}
	defer remote.Close()

	n, err := io.CopyBuffer(remote, local, make([]byte, transferChunk))
	if err != nil {
		return n, &TransferError{LocalPath: localPath, RemotePath: remotePath, BytesMoved: n, Err: err}
	}
	return n, nil
}

// Download streams remotePath to localPath over SFTP in 32 KiB chunks and
// returns the number of bytes written.
func (c *Client) Download(remotePath, localPath string) (int64, error) {
	sc, err := sftp.NewClient(c.conn)
	if err != nil {
		return 0, &TransferError{LocalPath: localPath, RemotePath: remotePath, Err: err}
	}
	defer sc.Close()

	remote, err := sc.Open(remotePath)
	if err != nil {
		return 0, &TransferError{LocalPath: localPath, RemotePath: remotePath, Err: err}
	}
	defer remote.Close()

	local, err := os.Create(localPath)
	if err != nil {
		return 0, &TransferError{LocalPath: localPath, RemotePath: remotePath, Err: err}
	}
	defer local.Close()

	n, err := io.CopyBuffer(local, remote, make([]byte, transferChunk))
	if err != nil {
		return n, &TransferError{LocalPath: localPath, RemotePath: remotePath, BytesMoved: n, Err: err}
	}
	return n, nil
}

// Disconnect gracefully closes the underlying transport.
func (c *Client) Disconnect() error {
	plog.Debugf("disconnecting from %s", c.host)
	return c.conn.Close()
}
