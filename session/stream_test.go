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
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

var timestampPrefix = regexp.MustCompile(`^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\] `)

func TestStreamIOLogsOneTimestampedEntryPerWrite(t *testing.T) {
	dir := t.TempDir()
	data, err := NewData("example.com", dir)
	if err != nil {
		t.Fatalf("NewData: %v", err)
	}

	sio, err := NewStreamIO(data, false)
	if err != nil {
		t.Fatalf("NewStreamIO: %v", err)
	}

	sio.OnStdout([]byte("first line"))
	sio.OnStdout([]byte("second line\n"))
	if err := sio.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(data.LocalRoot, "stdout.log"))
	if err != nil {
		t.Fatalf("reading stdout.log: %v", err)
	}

	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), raw)
	}
	for i, l := range lines {
		if !timestampPrefix.MatchString(l) {
			t.Fatalf("line %d missing timestamp prefix: %q", i, l)
		}
	}
	if !strings.HasSuffix(lines[0], "first line") {
		t.Fatalf("line 0 = %q, want suffix %q", lines[0], "first line")
	}
	if !strings.HasSuffix(lines[1], "second line") {
		t.Fatalf("line 1 = %q, want suffix %q", lines[1], "second line")
	}
}

func TestStreamIORewriteCommandIsIdentity(t *testing.T) {
	s := &StreamIO{}
	const cmd = "echo hi | grep h"
	if got := s.RewriteCommand(cmd); got != cmd {
		t.Fatalf("RewriteCommand(%q) = %q, want identity", cmd, got)
	}
}

func TestStreamIOHasNoArtifacts(t *testing.T) {
	s := &StreamIO{}
	if got := s.Artifacts(); got != nil {
		t.Fatalf("Artifacts() = %v, want nil", got)
	}
}
