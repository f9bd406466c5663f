// Package cliutil provides the small set of version/exit helpers shared by
// cmd/heapshell, cmd/heapstress, and cmd/heapmonitor, in the same vein as
// the teacher's internal/cli package.
package cliutil

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/Masterminds/semver/v3"
)

// versionString is this module's own semantic version; version is that
// string parsed once at package init so an invalid constant fails fast instead of surfacing as a
// confusing comparison error deep inside a flag handler.
const versionString = "0.3.0"

var version = semver.MustParse(versionString)

// VersionInfo is the structured shape printed by --version and by the
// --json variant.
type VersionInfo struct {
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Arch      string `json:"arch"`
}

func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:   version.String(),
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// PrintVersion prints toolName's version, in JSON if requested.
func PrintVersion(toolName string, jsonOutput bool) {
	info := GetVersionInfo()

	if jsonOutput {
		data, err := json.MarshalIndent(map[string]interface{}{
			"tool":    toolName,
			"version": info,
		}, "", "  ")
		if err == nil {
			fmt.Println(string(data))

			return
		}

		fmt.Fprintf(os.Stderr, "Error: failed to marshal version info: %v\n", err)
	}

	fmt.Printf("%s v%s (%s, %s/%s)\n", toolName, info.Version, info.GoVersion, info.Platform, info.Arch)
}

// RequireMinVersion returns an error unless this build's version satisfies
// constraint, which uses the usual semver range syntax (e.g.
// ">= 0.2.0, < 1.0.0"). No command in cmd/ calls it yet.
func RequireMinVersion(constraint string) error {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("cliutil: invalid version constraint %q: %w", constraint, err)
	}

	if !c.Check(version) {
		return fmt.Errorf("cliutil: this build (v%s) does not satisfy required version range %q", version, constraint)
	}

	return nil
}

// ExitWithError prints a formatted error to stderr and exits with code 1.
func ExitWithError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
