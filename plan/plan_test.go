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
	"errors"
	"strings"
	"testing"
)

func TestParseRoundTrip(t *testing.T) {
	input := `
execute: uname -a

upload: /local/file.txt
download: remote-report.log
`
	actions, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := []Action{
		{Verb: Execute, Arg: "uname -a"},
		{Verb: Upload, Arg: "/local/file.txt"},
		{Verb: Download, Arg: "remote-report.log"},
	}
	if len(actions) != len(want) {
		t.Fatalf("got %d actions, want %d", len(actions), len(want))
	}
	for i := range want {
		if actions[i] != want[i] {
			t.Fatalf("action[%d] = %+v, want %+v", i, actions[i], want[i])
		}
	}
}

func TestParseRejectsUnknownVerb(t *testing.T) {
	_, err := Parse(strings.NewReader("reboot: now"))
	if err == nil {
		t.Fatalf("expected ParseError for unknown verb")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error is not *ParseError: %v", err)
	}
	if pe.Line != 1 {
		t.Fatalf("ParseError.Line = %d, want 1", pe.Line)
	}
}

func TestParseRejectsMissingArgument(t *testing.T) {
	_, err := Parse(strings.NewReader("execute:"))
	if err == nil {
		t.Fatalf("expected ParseError for missing argument")
	}
}
