// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

// Package version provides build-time version information.
package version

import (
	"fmt"
	"runtime/debug"
)

// Info contains build-time version information injected via ldflags.
type Info struct {
	Version   string // git tag, e.g. "v1.2.3"
	GitCommit string // short commit hash
	BuildTime string // RFC3339
	Modified  bool   // built from a dirty tree
}

// FromBuild fills the fields ldflags left empty from the module and VCS
// stamps the go command records in the binary.
func (i Info) FromBuild() Info {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return i
	}
	return i.merge(bi)
}

func (i Info) merge(bi *debug.BuildInfo) Info {
	if i.Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		i.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if i.GitCommit == "" {
				i.GitCommit = s.Value[:min(len(s.Value), 7)]
			}
		case "vcs.time":
			if i.BuildTime == "" {
				i.BuildTime = s.Value
			}
		case "vcs.modified":
			i.Modified = i.Modified || s.Value == "true"
		}
	}
	return i
}

// String formats the info for the -version flag and the startup log.
func (i Info) String() string {
	commit := orUnknown(i.GitCommit)
	if i.Modified && i.GitCommit != "" {
		commit += "-dirty"
	}
	v := i.Version
	if v == "" {
		v = "dev"
	}
	return fmt.Sprintf("portal %s (commit: %s, built: %s)", v, commit, orUnknown(i.BuildTime))
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
