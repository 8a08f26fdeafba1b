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

// Command killabeez provisions and drives a fleet of EC2 instances:
// reconciling the declared network/key/instance state and fanning
// commands and file transfers out across every host in parallel.
package main

import (
	"fmt"
	"os"

	"github.com/coreos/pkg/capnslog"
	"github.com/spf13/cobra"

	"github.com/coreos/killabeez/awsapi"
	"github.com/coreos/killabeez/config"
)

var (
	plog = capnslog.NewPackageLogger("github.com/coreos/killabeez", "cmd")

	root = &cobra.Command{
		Use:   "killabeez",
		Short: "provision and drive a swarm of EC2 instances",
	}

	configPath string
	dataDir    string
	verbose    bool
	remote     bool
	planPath   string

	awsRegion          string
	awsCredentialsFile string
	awsProfile         string

	logVerbose bool
	logDebug   bool
	logLevel   = capnslog.NOTICE
)

func init() {
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "swarm.toml", "path to the swarm config file")
	root.PersistentFlags().StringVarP(&dataDir, "datadir", "d", "kb.data", "root of per-host local data directories")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "mirror captured output to stderr")
	root.PersistentFlags().BoolVarP(&remote, "remote", "r", false, "use the Remote IO strategy instead of Stream")

	defaultRegion := os.Getenv("AWS_REGION")
	if defaultRegion == "" {
		defaultRegion = "us-east-1"
	}
	root.PersistentFlags().StringVar(&awsRegion, "region", defaultRegion, "AWS region")
	root.PersistentFlags().StringVar(&awsCredentialsFile, "credentials-file", "", "AWS credentials file")
	root.PersistentFlags().StringVar(&awsProfile, "profile", "", "AWS profile name")

	root.PersistentFlags().BoolVar(&logVerbose, "log-verbose", false, "log at INFO level")
	root.PersistentFlags().BoolVar(&logDebug, "log-debug", false, "log at DEBUG level")

	root.AddCommand(initCmd, taggedCmd, terminateCmd, execCmd, uploadCmd, downloadCmd, planCmd)
}

func startLogging() {
	switch {
	case logDebug:
		logLevel = capnslog.DEBUG
	case logVerbose:
		logLevel = capnslog.INFO
	}
	capnslog.SetFormatter(capnslog.NewStringFormatter(os.Stderr))
	capnslog.SetGlobalLogLevel(logLevel)
}

// loadConfig reads and validates the swarm config named by -c.
func loadConfig() (*config.SwarmConfig, error) {
	return config.Load(configPath)
}

// newAPI builds an awsapi.API from the root command's AWS flags and
// runs a preflight credentials check.
func newAPI() (*awsapi.API, error) {
	api, err := awsapi.New(awsapi.Options{
		Region:          awsRegion,
		CredentialsFile: awsCredentialsFile,
		Profile:         awsProfile,
	})
	if err != nil {
		return nil, err
	}
	if err := api.PreflightCheck(); err != nil {
		return nil, fmt.Errorf("aws preflight check: %w", err)
	}
	return api, nil
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func main() {
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) { startLogging() }
	if err := root.Execute(); err != nil {
		plog.Fatal(err)
	}
}
