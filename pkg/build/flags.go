// SPDX-License-Identifier: MIT
//
// Package build carries the metadata linked into the binary: name,
// build time, commit and version. Values are injected with
//
//	go build -ldflags "-X codeclab/pkg/build.buildName=codeclab -X codeclab/pkg/build.buildVersion=0.1.0 ..."
//
// Development builds keep the defaults.
package build

import (
	"errors"
	"fmt"
)

// Description is the one-line summary shown by the CLI.
const Description = "Live audio codec lab: route, capture and replay the microphone through speech-coder filters"

// Info is the build metadata.
type Info struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

// Package-level variables for build information. These are populated by -ldflags
// during compilation.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildInfo    = &Info{
		Name:    "codeclab",
		Time:    "unknown",
		Commit:  "unknown",
		Version: "dev",
	}
)

// Initialize validates and copies the ldflags variables into the build
// info. On error the development defaults stay in place, so callers may
// log it and carry on.
func Initialize() error {
	var errs []error
	if buildName == "" {
		errs = append(errs, fmt.Errorf("BuildName is required"))
	}
	if buildTime == "" {
		errs = append(errs, fmt.Errorf("BuildTime is required"))
	}
	if buildCommit == "" {
		errs = append(errs, fmt.Errorf("BuildCommit is required"))
	}
	if buildVersion == "" {
		errs = append(errs, fmt.Errorf("BuildVersion is required"))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	buildInfo.Name = buildName
	buildInfo.Time = buildTime
	buildInfo.Commit = buildCommit
	buildInfo.Version = buildVersion

	return nil
}

// Get returns the current build information.
func Get() *Info {
	return buildInfo
}

// String renders the version line, e.g. "0.1.0 (abcdef1, 2025-04-13)".
func (i *Info) String() string {
	commit := i.Commit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return fmt.Sprintf("%s (%s, %s)", i.Version, commit, i.Time)
}
