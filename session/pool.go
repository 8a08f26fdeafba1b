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
	"context"
	"sync"

	"github.com/coreos/pkg/capnslog"
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/coreos/killabeez/sshclient"
)

var plog = capnslog.NewPackageLogger("github.com/coreos/killabeez", "session")

// fanoutConcurrency bounds how many Sessions a Pool touches at once,
// across construction, Execute, Upload, Download and Finish alike.
const fanoutConcurrency = 10

// Result is one host's outcome from a Pool fan-out call. Exactly one of
// Status/Bytes is meaningful depending on which method produced it; Err is
// set when that host's operation failed. A failure on one host never
// cancels the others: Pool methods return a Result per host in input order.
type Result struct {
	Host   string
	Status int
	Bytes  int64
	Err    error
}

// Pool holds one Session per host and fans work out across them with
// bounded concurrency. Construction itself is bounded the same way: if
// connecting to every host were unbounded, a large swarm would open
// hundreds of SSH handshakes at once.
type Pool struct {
	sessions []*Session
	hosts    []string
}

// IOFactory builds the IOHandler a new Session should use for one host's
// Data. Swapped in tests and between the Stream/Remote CLI strategies.
type IOFactory func(Data) (IOHandler, error)

// connOrErr is the per-host outcome of the bounded dial fan-out below.
type connOrErr struct {
	session *Session
	err     error
}

// NewPool dials every host concurrently (bounded at fanoutConcurrency),
// authenticating as username with auth via dial, and builds a Session
// per host using ioFactory for its IO strategy and dataDir for its local
// log directory. If any host fails to connect, the sessions that did
// connect are disconnected and the first error encountered is returned:
// a partially-usable pool is never handed back to the caller.
func NewPool(hosts []string, username string, auth sshclient.Auth, dial Dialer, dataDir string, ioFactory IOFactory) (*Pool, error) {
	return newPool(hosts, dataDir, ioFactory, func(host string) (Transport, error) {
		return dial(host, username, auth)
	})
}

func newPool(hosts []string, dataDir string, ioFactory IOFactory, dial func(host string) (Transport, error)) (*Pool, error) {
	sem := semaphore.NewWeighted(fanoutConcurrency)
	ctx := context.Background()

	results := make([]connOrErr, len(hosts))
	var wg sync.WaitGroup
	for i, host := range hosts {
		i, host := i, host
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = connOrErr{err: err}
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = dialHost(host, dataDir, ioFactory, dial)
		}()
	}
	wg.Wait()

	pool := &Pool{hosts: hosts, sessions: make([]*Session, len(hosts))}
	var firstErr error
	for i, r := range results {
		if r.err != nil {
			plog.Errorf("connecting to %s: %v", hosts[i], r.err)
			if firstErr == nil {
				firstErr = errors.Wrapf(r.err, "connecting to %s", hosts[i])
			}
			continue
		}
		pool.sessions[i] = r.session
	}

	if firstErr != nil {
		for _, s := range pool.sessions {
			if s != nil {
				s.Close()
			}
		}
		return nil, firstErr
	}

	return pool, nil
}

func dialHost(host, dataDir string, ioFactory IOFactory, dial func(host string) (Transport, error)) connOrErr {
	data, err := NewData(host, dataDir)
	if err != nil {
		return connOrErr{err: errors.Wrapf(err, "preparing data dir for %s", host)}
	}

	transport, err := dial(host)
	if err != nil {
		return connOrErr{err: err}
	}

	io, err := ioFactory(data)
	if err != nil {
		transport.Disconnect()
		return connOrErr{err: errors.Wrapf(err, "building IO handler for %s", host)}
	}

	return connOrErr{session: New(data, transport, io)}
}

// Execute runs command across every session, bounded at fanoutConcurrency.
// A per-host failure becomes that host's Result.Err; the rest of the
// fleet still runs.
func (p *Pool) Execute(command string) []Result {
	return p.fanout(func(s *Session) Result {
		status, err := s.Execute(command)
		return Result{Status: status, Err: err}
	})
}

// Upload copies localPath to remotePath on every session, bounded at
// fanoutConcurrency.
func (p *Pool) Upload(localPath, remotePath string) []Result {
	return p.fanout(func(s *Session) Result {
		n, err := s.Upload(localPath, remotePath)
		return Result{Bytes: n, Err: err}
	})
}

// Download fetches remotePath from every session into localPath, bounded
// at fanoutConcurrency.
func (p *Pool) Download(remotePath, localPath string) []Result {
	return p.fanout(func(s *Session) Result {
		n, err := s.Download(remotePath, localPath)
		return Result{Bytes: n, Err: err}
	})
}

// Finish fetches every session's IO artifacts and disconnects it. Called
// once, after a Pool's work is done.
func (p *Pool) Finish() []Result {
	return p.fanout(func(s *Session) Result {
		err := s.Finish()
		closeErr := s.Close()
		if err == nil {
			err = closeErr
		}
		return Result{Err: err}
	})
}

// fanout runs fn against every live session, bounded at
// fanoutConcurrency, and returns one Result per host in input order. A
// nil session (only possible if Pool were partially constructed, which
// NewPool never returns) yields a Result carrying its own error.
func (p *Pool) fanout(fn func(*Session) Result) []Result {
	sem := semaphore.NewWeighted(fanoutConcurrency)
	ctx := context.Background()

	results := make([]Result, len(p.sessions))
	var wg sync.WaitGroup
	for i, s := range p.sessions {
		i, s := i, s
		results[i].Host = p.hosts[i]
		if s == nil {
			results[i].Err = errors.Errorf("%s: no session", p.hosts[i])
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i].Err = err
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			r := fn(s)
			r.Host = p.hosts[i]
			results[i] = r
		}()
	}
	wg.Wait()
	return results
}
