package render

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	semver "github.com/Masterminds/semver/v3"
)

var versionPattern = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

// ParseVersion extracts the first dotted version from renderer output
// such as "OpenSCAD version 2021.01". Leading zeros are dropped.
func ParseVersion(out string) (*semver.Version, error) {
	m := versionPattern.FindStringSubmatch(out)
	if m == nil {
		return nil, fmt.Errorf("render: no version in %q", out)
	}
	parts := [3]uint64{}
	for i := range parts {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.ParseUint(m[i+1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("render: version %q: %w", m[0], err)
		}
		parts[i] = n
	}
	return semver.New(parts[0], parts[1], parts[2], "", ""), nil
}

func parseConstraint(s string) (*semver.Constraints, error) {
	c, err := semver.NewConstraint(s)
	if err != nil {
		return nil, fmt.Errorf("render.min_version %q: %w", s, err)
	}
	return c, nil
}

// Version asks the executable for its version.
func (e *Exec) Version(ctx context.Context) (*semver.Version, error) {
	stdout, stderr, err := e.run(ctx, e.cfg.Executable, []string{"--version"})
	if err != nil {
		return nil, &ExitError{Executable: e.cfg.Executable, Stderr: string(stderr), Err: err}
	}
	// Older releases print the version on stderr.
	return ParseVersion(string(stdout) + string(stderr))
}

// CheckVersion fails when the executable does not satisfy min_version.
func (e *Exec) CheckVersion(ctx context.Context) error {
	if e.cfg.MinVersion == "" {
		return nil
	}
	c, err := parseConstraint(e.cfg.MinVersion)
	if err != nil {
		return err
	}
	v, err := e.Version(ctx)
	if err != nil {
		return err
	}
	if !c.Check(v) {
		return fmt.Errorf("render: %s version %s does not satisfy %s", e.cfg.Executable, v, e.cfg.MinVersion)
	}
	e.log.Debug("renderer version", "version", v.String())
	return nil
}
