package settings

import (
	"strconv"
	"strings"

	"github.com/google/shlex"
	"github.com/pkg/errors"
)

// ParseSetting parses a single "$N=V" wire command (spec.md 6's
// "settings wire format") into a parameter ID and value.
func ParseSetting(cmd string) (id int, value float32, err error) {
	cmd = strings.TrimSpace(cmd)
	cmd = strings.TrimPrefix(cmd, "$")
	eq := strings.IndexByte(cmd, '=')
	if eq < 0 {
		return 0, 0, errors.Errorf("settings: malformed command %q", cmd)
	}
	id, err = strconv.Atoi(cmd[:eq])
	if err != nil {
		return 0, 0, errors.Wrapf(err, "settings: bad parameter id in %q", cmd)
	}
	v, err := strconv.ParseFloat(cmd[eq+1:], 32)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "settings: bad value in %q", cmd)
	}
	return id, float32(v), nil
}

// SplitCommandLine tokenizes a line containing one or more whitespace
// separated "$N=V" commands, honoring quoting the way a shell would —
// used by cmd/cncsettingsctl to accept a batch of settings on one
// line.
func SplitCommandLine(line string) ([]string, error) {
	tokens, err := shlex.Split(line)
	if err != nil {
		return nil, errors.Wrap(err, "settings: tokenizing command line")
	}
	return tokens, nil
}
