// In file: cmd/gateway/version.go
package main

import (
	"fmt"
	"runtime"
)

// serverName is advertised in the MCP initialize result and the health payload.
const serverName = "Hacker News MCP Server"

// Set with -ldflags "-X main.version=... -X main.gitCommit=...".
var (
	version   = "1.0.0"
	buildDate = "unknown"
	gitCommit = "unknown"
)

type BuildInfo struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   version,
		BuildDate: buildDate,
		GitCommit: gitCommit,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}
