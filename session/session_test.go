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
	"testing"

	"github.com/coreos/killabeez/sshclient"
)

type recordingTransport struct {
	executedCommand string
	downloaded      []string
	downloadErr     map[string]error
}

func (r *recordingTransport) Execute(command string, onStdout, onStderr sshclient.OutputFunc) (int, error) {
	r.executedCommand = command
	return 0, nil
}

func (r *recordingTransport) Upload(localPath, remotePath string) (int64, error) { return 0, nil }

func (r *recordingTransport) Download(remotePath, localPath string) (int64, error) {
	r.downloaded = append(r.downloaded, remotePath)
	if err := r.downloadErr[remotePath]; err != nil {
		return 0, err
	}
	return 1, nil
}

func (r *recordingTransport) Disconnect() error { return nil }

type recordingIO struct {
	artifacts []string
}

func (recordingIO) OnStdout([]byte) {}
func (recordingIO) OnStderr([]byte) {}
func (r recordingIO) RewriteCommand(c string) string {
	return "wrapped(" + c + ")"
}
func (r recordingIO) Artifacts() []string { return r.artifacts }

func TestSessionExecuteUsesRewrittenCommand(t *testing.T) {
	transport := &recordingTransport{}
	data := Data{HostID: "h1", LocalRoot: t.TempDir()}
	s := New(data, transport, recordingIO{})

	if _, err := s.Execute("do-thing"); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if transport.executedCommand != "wrapped(do-thing)" {
		t.Fatalf("transport saw %q, want wrapped command", transport.executedCommand)
	}
}

func TestSessionFinishFetchesAllArtifactsDespiteFailure(t *testing.T) {
	transport := &recordingTransport{
		downloadErr: map[string]error{"bad": fmt.Errorf("nope")},
	}
	data := Data{HostID: "h1", LocalRoot: t.TempDir()}
	s := New(data, transport, recordingIO{artifacts: []string{"good1", "bad", "good2"}})

	err := s.Finish()
	if err == nil {
		t.Fatalf("expected Finish to surface the failed artifact's error")
	}
	if len(transport.downloaded) != 3 {
		t.Fatalf("downloaded %v, want all 3 artifacts attempted", transport.downloaded)
	}
}
