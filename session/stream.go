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
	"path/filepath"
	"sync"
	"time"
)

const timestampLayout = "2006-01-02 15:04:05"

// StreamIO logs a command's output locally as bytes arrive over the live
// SSH channel. RewriteCommand is identity: all traffic crosses the
// network. Every write is one timestamp-prefixed entry in stdout.log or
// stderr.log, guarded by a mutex held only for the write+flush pair.
type StreamIO struct {
	verbose bool

	stdoutMu   sync.Mutex
	stdoutFile *os.File
	stderrMu   sync.Mutex
	stderrFile *os.File
}

// NewStreamIO opens (creating if needed) stdout.log and stderr.log under
// data.LocalRoot for append-only writes.
func NewStreamIO(data Data, verbose bool) (*StreamIO, error) {
	stdoutFile, err := os.OpenFile(filepath.Join(data.LocalRoot, "stdout.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	stderrFile, err := os.OpenFile(filepath.Join(data.LocalRoot, "stderr.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		stdoutFile.Close()
		return nil, err
	}

	return &StreamIO{
		verbose:    verbose,
		stdoutFile: stdoutFile,
		stderrFile: stderrFile,
	}, nil
}

func (s *StreamIO) OnStdout(data []byte) {
	s.logTo(&s.stdoutMu, s.stdoutFile, data)
	if s.verbose {
		os.Stderr.Write(data)
	}
}

func (s *StreamIO) OnStderr(data []byte) {
	s.logTo(&s.stderrMu, s.stderrFile, data)
	if s.verbose {
		os.Stderr.Write(data)
	}
}

func (s *StreamIO) logTo(mu *sync.Mutex, f *os.File, data []byte) {
	mu.Lock()
	defer mu.Unlock()

	fmt.Fprintf(f, "[%s] ", time.Now().Format(timestampLayout))
	f.Write(data)
	if len(data) == 0 || data[len(data)-1] != '\n' {
		f.Write([]byte{'\n'})
	}
	f.Sync()
}

// RewriteCommand is identity for the Stream strategy.
func (s *StreamIO) RewriteCommand(command string) string { return command }

// Artifacts is empty: nothing is logged remotely to fetch.
func (s *StreamIO) Artifacts() []string { return nil }

// Close releases the underlying log file handles.
func (s *StreamIO) Close() error {
	err1 := s.stdoutFile.Close()
	err2 := s.stderrFile.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
