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
	"sync/atomic"
	"testing"
	"time"

	"github.com/coreos/killabeez/sshclient"
)

// fakeTransport records invocations and lets tests control concurrency and
// failure injection without a network. active is shared by every
// transport of one pool, so peak records pool-wide concurrency.
type fakeTransport struct {
	host string

	active  *int32
	peak    *int32
	execErr error
	status  int
}

func (f *fakeTransport) Execute(command string, onStdout, onStderr sshclient.OutputFunc) (int, error) {
	cur := atomic.AddInt32(f.active, 1)
	if f.peak != nil {
		for {
			old := atomic.LoadInt32(f.peak)
			if cur <= old || atomic.CompareAndSwapInt32(f.peak, old, cur) {
				break
			}
		}
	}

	time.Sleep(5 * time.Millisecond)

	atomic.AddInt32(f.active, -1)

	if onStdout != nil {
		onStdout([]byte(fmt.Sprintf("hello from %s", f.host)))
	}
	return f.status, f.execErr
}

func (f *fakeTransport) Upload(localPath, remotePath string) (int64, error) {
	return int64(len(localPath)), nil
}

func (f *fakeTransport) Download(remotePath, localPath string) (int64, error) {
	return int64(len(remotePath)), nil
}

func (f *fakeTransport) Disconnect() error { return nil }

type nullIO struct{}

func (nullIO) OnStdout([]byte)                {}
func (nullIO) OnStderr([]byte)                {}
func (nullIO) RewriteCommand(c string) string { return c }
func (nullIO) Artifacts() []string            { return nil }

func newTestPool(t *testing.T, hosts []string, peak *int32, execErrFor map[string]error) *Pool {
	t.Helper()
	dataDir := t.TempDir()

	var active int32
	dial := func(host string) (Transport, error) {
		return &fakeTransport{host: host, active: &active, peak: peak, execErr: execErrFor[host]}, nil
	}

	pool, err := newPool(hosts, dataDir, func(Data) (IOHandler, error) {
		return nullIO{}, nil
	}, dial)
	if err != nil {
		t.Fatalf("newPool: %v", err)
	}
	return pool
}

// Property: fan-out never runs more than fanoutConcurrency sessions at once.
func TestFanoutConcurrencyBound(t *testing.T) {
	hosts := make([]string, 37)
	for i := range hosts {
		hosts[i] = fmt.Sprintf("host-%d", i)
	}

	var peak int32
	pool := newTestPool(t, hosts, &peak, nil)

	pool.Execute("true")

	if peak > fanoutConcurrency {
		t.Fatalf("peak concurrency %d exceeds bound %d", peak, fanoutConcurrency)
	}
	if peak == 0 {
		t.Fatalf("peak concurrency never recorded")
	}
}

// Property: results come back in input host order regardless of completion
// order.
func TestFanoutResultOrdering(t *testing.T) {
	hosts := []string{"a", "b", "c", "d", "e"}
	pool := newTestPool(t, hosts, nil, nil)

	results := pool.Execute("true")
	if len(results) != len(hosts) {
		t.Fatalf("got %d results, want %d", len(results), len(hosts))
	}
	for i, r := range results {
		if r.Host != hosts[i] {
			t.Fatalf("result[%d].Host = %q, want %q", i, r.Host, hosts[i])
		}
	}
}

// Property: a failure on one host does not affect another host's result.
func TestFanoutPerHostIsolation(t *testing.T) {
	hosts := []string{"good-1", "bad", "good-2"}
	pool := newTestPool(t, hosts, nil, map[string]error{
		"bad": fmt.Errorf("boom"),
	})

	results := pool.Execute("true")
	for _, r := range results {
		if r.Host == "bad" {
			if r.Err == nil {
				t.Fatalf("expected error for bad host")
			}
			continue
		}
		if r.Err != nil {
			t.Fatalf("host %s: unexpected error %v", r.Host, r.Err)
		}
	}
}
