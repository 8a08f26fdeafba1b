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

package util

import (
	"time"

	"github.com/coreos/pkg/capnslog"
)

var plog = capnslog.NewPackageLogger("github.com/coreos/killabeez", "util")

// WaitForever calls checkFunction every delay until it reports done. There
// is no timeout, and an error from checkFunction is treated as a reason to
// keep waiting rather than a reason to give up: a transient describe
// failure looks the same as "not converged yet." This mirrors the
// reconciler's wait protocol, which relies entirely on the cloud provider
// to eventually make progress.
func WaitForever(delay time.Duration, checkFunction func() (bool, error)) {
	for {
		start := time.Now()
		done, err := checkFunction()
		plog.Debugf("WaitForever: checkFunction took %v", time.Since(start))
		if err != nil {
			plog.Warningf("WaitForever: check failed, retrying: %v", err)
			time.Sleep(delay)
			continue
		}
		if done {
			return
		}
		time.Sleep(delay)
	}
}
