// SPDX-License-Identifier: MIT
package build

import (
	"os"
	"testing"
)

var (
	origName    string
	origTime    string
	origCommit  string
	origVersion string
	origInfo    Info
)

func TestMain(m *testing.M) {
	origName = buildName
	origTime = buildTime
	origCommit = buildCommit
	origVersion = buildVersion
	if buildInfo != nil {
		origInfo = *buildInfo
	}

	exitCode := m.Run()

	buildName = origName
	buildTime = origTime
	buildCommit = origCommit
	buildVersion = origVersion
	if buildInfo != nil {
		*buildInfo = origInfo
	}

	os.Exit(exitCode)
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name        string
		buildName   string
		buildTime   string
		buildCommit string
		buildVer    string
		wantErrMsg  string
	}{
		{
			"Missing BuildName",
			"",
			"2025-04-13",
			"abcdef123",
			"v1.0.0",
			"BuildName is required",
		},
		{
			"Missing BuildTime",
			"testapp",
			"",
			"abcdef123",
			"v1.0.0",
			"BuildTime is required",
		},
		{
			"Missing BuildCommit",
			"testapp",
			"2025-04-13",
			"",
			"v1.0.0",
			"BuildCommit is required",
		},
		{
			"Missing BuildVersion",
			"testapp",
			"2025-04-13",
			"abcdef123",
			"",
			"BuildVersion is required",
		},
		{
			"Success Case",
			"testapp",
			"2025-04-13",
			"abcdef123",
			"v1.0.0",
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buildInfo = &Info{
				Name:    "codeclab",
				Time:    "unknown",
				Commit:  "unknown",
				Version: "dev",
			}

			buildName = tt.buildName
			buildTime = tt.buildTime
			buildCommit = tt.buildCommit
			buildVersion = tt.buildVer

			err := Initialize()

			if tt.wantErrMsg != "" {
				if err == nil {
					t.Errorf("Initialize() expected error, got nil")
					return
				}
				if err.Error() != tt.wantErrMsg {
					t.Errorf("Initialize() error = %v, want %v", err, tt.wantErrMsg)
					return
				}
				if buildInfo.Version != "dev" {
					t.Errorf("failed Initialize() changed Version to %q", buildInfo.Version)
				}
				return
			}

			if err != nil {
				t.Errorf("Initialize() unexpected error: %v", err)
				return
			}

			if buildInfo.Name != tt.buildName {
				t.Errorf("buildInfo.Name = %v, want %v", buildInfo.Name, tt.buildName)
			}
			if buildInfo.Time != tt.buildTime {
				t.Errorf("buildInfo.Time = %v, want %v", buildInfo.Time, tt.buildTime)
			}
			if buildInfo.Commit != tt.buildCommit {
				t.Errorf("buildInfo.Commit = %v, want %v", buildInfo.Commit, tt.buildCommit)
			}
			if buildInfo.Version != tt.buildVer {
				t.Errorf("buildInfo.Version = %v, want %v", buildInfo.Version, tt.buildVer)
			}
		})
	}
}

func TestInitializeReportsEveryMissingFlag(t *testing.T) {
	buildName, buildTime, buildCommit, buildVersion = "", "", "", ""
	err := Initialize()
	if err == nil {
		t.Fatal("Initialize() expected error, got nil")
	}
	want := "BuildName is required\nBuildTime is required\nBuildCommit is required\nBuildVersion is required"
	if err.Error() != want {
		t.Errorf("Initialize() error = %q, want %q", err, want)
	}
}

func TestGet(t *testing.T) {
	expected := Info{
		Name:    "testapp",
		Time:    "2025-04-13",
		Commit:  "abcdef123",
		Version: "v1.0.0",
	}
	buildInfo = &expected

	info := Get()

	if *info != expected {
		t.Errorf("Get() = %+v, want %+v", info, expected)
	}
}

func TestInfoString(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{"long commit", Info{Version: "v1.0.0", Commit: "abcdef123", Time: "2025-04-13"}, "v1.0.0 (abcdef1, 2025-04-13)"},
		{"short commit", Info{Version: "dev", Commit: "abc", Time: "unknown"}, "dev (abc, unknown)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
