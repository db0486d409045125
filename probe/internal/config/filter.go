package config

import (
	"fmt"

	"github.com/gobwas/glob"
)

// FilterTargets keeps the targets whose id matches one of patterns, in
// their original order. No patterns keeps everything.
func FilterTargets(targets []Target, patterns []string) ([]Target, error) {
	if len(patterns) == 0 {
		return targets, nil
	}
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("config: target pattern %q: %w", p, err)
		}
		globs = append(globs, g)
	}
	var out []Target
	for _, t := range targets {
		for _, g := range globs {
			if g.Match(t.ID) {
				out = append(out, t)
				break
			}
		}
	}
	return out, nil
}
