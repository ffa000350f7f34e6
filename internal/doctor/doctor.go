// Package doctor inspects a nodekit installation and reports problems.
package doctor

import (
	"context"
	"os"
	"path/filepath"
	"slices"

	"nodekit/internal/config"
	"nodekit/internal/platform"
	"nodekit/internal/store"
)

type Finding struct {
	Code    string `json:"code"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

type Report struct {
	Healthy  bool      `json:"healthy"`
	Findings []Finding `json:"findings"`
	Platform string    `json:"platform,omitempty"`
}

type Service struct {
	ConfigPath string
	Root       string
	WorkDir    string
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

func (s *Service) Run(_ context.Context) Report {
	findings := []Finding{}
	add := func(code, level, msg string) {
		findings = append(findings, Finding{Code: code, Level: level, Message: msg})
	}

	if _, err := os.Stat(s.ConfigPath); err != nil {
		add("DOC_CONFIG_MISSING", "error", err.Error())
	} else if _, err := config.Load(s.ConfigPath); err != nil {
		add("DOC_CONFIG_INVALID", "error", err.Error())
	}

	st, stateErr := store.LoadState(s.Root)
	if stateErr != nil {
		add("DOC_STATE_INVALID", "error", stateErr.Error())
	}
	inv, invErr := store.LoadInventory(s.Root)
	if invErr != nil {
		add("DOC_INVENTORY_INVALID", "error", invErr.Error())
	}

	report := Report{}
	if stateErr == nil {
		p, err := platform.Current(s.WorkDir, st, nil)
		switch {
		case err != nil:
			add("DOC_PLATFORM_INVALID", "error", err.Error())
		case p == nil:
			add("DOC_NO_PLATFORM", "warn", "no project pin and no default toolchain; node, npm and yarn run from the system PATH")
		default:
			report.Platform = string(p.Source)
			if invErr == nil {
				if !slices.Contains(inv.Node, p.Node.String()) {
					add("DOC_NODE_NOT_FETCHED", "warn", "node "+p.Node.String()+" is pinned but not fetched yet")
				}
				if p.Yarn != nil && !slices.Contains(inv.Yarn, p.Yarn.String()) {
					add("DOC_YARN_NOT_FETCHED", "warn", "yarn "+p.Yarn.String()+" is pinned but not fetched yet")
				}
			}
		}
	}

	getenv := s.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	shims := store.ShimRoot(s.Root)
	if !slices.Contains(filepath.SplitList(getenv("PATH")), shims) {
		add("DOC_SHIMS_NOT_ON_PATH", "warn", shims+" is not on PATH")
	}

	report.Healthy = true
	for _, f := range findings {
		if f.Level == "error" {
			report.Healthy = false
			break
		}
	}
	report.Findings = findings
	return report
}
