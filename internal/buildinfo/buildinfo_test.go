package buildinfo

import (
	"runtime"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name                                 string
		version, buildDate, commit, revision string
		want                                 Info
	}{
		{
			name: "nothing injected",
			want: Info{Version: UnknownValue, BuildDate: UnknownValue, Commit: UnknownValue},
		},
		{
			name:    "linked values",
			version: "v1.2.0", buildDate: "2024-04-01", commit: "abc123", revision: "ffff",
			want: Info{Version: "v1.2.0", BuildDate: "2024-04-01", Commit: "abc123"},
		},
		{
			name:    "commit from vcs info",
			version: "v1.2.0", revision: "0123456789ab",
			want: Info{Version: "v1.2.0", BuildDate: UnknownValue, Commit: "0123456789ab"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolve(tt.version, tt.buildDate, tt.commit, tt.revision)
			tt.want.GoVersion = runtime.Version()
			if got != tt.want {
				t.Errorf("resolve() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestString(t *testing.T) {
	i := Info{Version: "v1.0.0", BuildDate: "2024-04-01", Commit: "abc", GoVersion: "go1.26"}
	want := "vectorinsight v1.0.0 (commit abc, built 2024-04-01, go1.26)"
	if got := i.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestGetNeverEmpty(t *testing.T) {
	i := Get()
	if i.Version == "" || i.Commit == "" || i.BuildDate == "" {
		t.Errorf("Get() returned empty fields: %+v", i)
	}
}
