// Copyright 2016 CoreOS, Inc.
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

package plan

import (
	"testing"

	"github.com/coreos/killabeez/session"
)

type recordingPool struct {
	calls []string
}

func (p *recordingPool) Execute(command string) []session.Result {
	p.calls = append(p.calls, "execute:"+command)
	return []session.Result{{Host: "h1"}}
}

func (p *recordingPool) Upload(localPath, remotePath string) []session.Result {
	p.calls = append(p.calls, "upload:"+localPath+"->"+remotePath)
	return []session.Result{{Host: "h1"}}
}

func (p *recordingPool) Download(remotePath, localPath string) []session.Result {
	p.calls = append(p.calls, "download:"+remotePath+"->"+localPath)
	return []session.Result{{Host: "h1"}}
}

func TestRunAppliesActionsInOrder(t *testing.T) {
	actions := []Action{
		{Verb: Execute, Arg: "uname -a"},
		{Verb: Upload, Arg: "/local/report.txt"},
		{Verb: Download, Arg: "remote-report.log"},
	}
	pool := &recordingPool{}

	results := Run(pool, actions)
	if len(results) != len(actions) {
		t.Fatalf("got %d result sets, want %d", len(results), len(actions))
	}

	want := []string{
		"execute:uname -a",
		"upload:/local/report.txt->/local/report.txt",
		"download:remote-report.log->remote-report.log",
	}
	if len(pool.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", pool.calls, want)
	}
	for i := range want {
		if pool.calls[i] != want[i] {
			t.Fatalf("call[%d] = %q, want %q", i, pool.calls[i], want[i])
		}
	}
}
