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
	"strings"
	"testing"
)

func TestRemoteIORewriteCommandNonVerbose(t *testing.T) {
	r := NewRemoteIO("host_1", false)
	got := r.RewriteCommand("do-the-thing")

	if !strings.HasPrefix(got, "do-the-thing > >(") {
		t.Fatalf("rewritten command doesn't start with the original command: %q", got)
	}
	if strings.Contains(got, "tee") {
		t.Fatalf("non-verbose rewrite should not tee: %q", got)
	}
	if !strings.Contains(got, r.outPath()) {
		t.Fatalf("rewritten command missing stdout artifact path: %q", got)
	}
	if !strings.Contains(got, r.errPath()) {
		t.Fatalf("rewritten command missing stderr artifact path: %q", got)
	}
	if !strings.Contains(got, "host_1") {
		t.Fatalf("rewritten command missing host id tag: %q", got)
	}
}

func TestRemoteIORewriteCommandVerboseTees(t *testing.T) {
	r := NewRemoteIO("host_2", true)
	got := r.RewriteCommand("do-the-thing")

	if !strings.Contains(got, "tee") {
		t.Fatalf("verbose rewrite should tee output to the live channel: %q", got)
	}
}

func TestRemoteIOArtifactsAreStdoutAndStderr(t *testing.T) {
	r := NewRemoteIO("host_3", false)
	artifacts := r.Artifacts()
	if len(artifacts) != 2 {
		t.Fatalf("got %d artifacts, want 2", len(artifacts))
	}
	if artifacts[0] != r.outPath() || artifacts[1] != r.errPath() {
		t.Fatalf("artifacts = %v, want [%s %s]", artifacts, r.outPath(), r.errPath())
	}
}

func TestRemoteIODropsOutputWhenNotVerbose(t *testing.T) {
	r := NewRemoteIO("host_4", false)
	// OnStdout/OnStderr must not panic and must not be required to do
	// anything observable when not verbose; this just exercises the path.
	r.OnStdout([]byte("ignored"))
	r.OnStderr([]byte("ignored"))
}
