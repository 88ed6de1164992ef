package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestGetInfo(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, Date
	defer func() {
		Version, Commit, Date = origVersion, origCommit, origDate
	}()

	Version = "1.0.0"
	Commit = "abc123def456"
	Date = "2026-01-01T12:00:00Z"

	info := GetInfo()

	if info.Version != "1.0.0" || info.Commit != "abc123def456" || info.Date != "2026-01-01T12:00:00Z" {
		t.Errorf("GetInfo() = %+v", info)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GetInfo().GoVersion = %v, want %v", info.GoVersion, runtime.Version())
	}
	if want := runtime.GOOS + "/" + runtime.GOARCH; info.Platform != want {
		t.Errorf("GetInfo().Platform = %v, want %v", info.Platform, want)
	}
}

func TestInfoString(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want []string
	}{
		{
			name: "long commit is truncated",
			info: Info{Version: "1.0.0", Commit: "abc123def456", Date: "2026-01-01", GoVersion: "go1.24.6", Platform: "linux/amd64"},
			want: []string{"vulnark 1.0.0", "(abc123de)", "built 2026-01-01", "with go1.24.6", "for linux/amd64"},
		},
		{
			name: "short commit kept",
			info: Info{Version: "1.0.0", Commit: "abc123", Platform: "darwin/arm64"},
			want: []string{"(abc123)", "darwin/arm64"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.info.String()
			for _, substr := range tt.want {
				if !strings.Contains(got, substr) {
					t.Errorf("Info.String() = %v, missing %v", got, substr)
				}
			}
		})
	}
}

func TestUserAgent(t *testing.T) {
	info := Info{Version: "2.1.0", Platform: "linux/arm64"}
	if got := info.UserAgent(); got != "vulnark/2.1.0 (linux/arm64)" {
		t.Errorf("UserAgent() = %q", got)
	}
}
