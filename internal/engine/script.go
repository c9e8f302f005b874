package engine

import (
	"fmt"
	"strings"
	"time"
)

// Step is one entry of a command script: a command, a pause, or a canvas
// snapshot.
type Step struct {
	Command  *Command
	Wait     time.Duration
	Snapshot string
}

func (s Step) String() string {
	switch {
	case s.Command != nil:
		return s.Command.String()
	case s.Snapshot != "":
		return "snapshot=" + s.Snapshot
	default:
		return "wait=" + s.Wait.String()
	}
}

// ParseScript parses a comma separated list such as
// "record,wait=2s,stop,play,wait=1s,snapshot=frame.png".
func ParseScript(script string) ([]Step, error) {
	var steps []Step
	for i, raw := range strings.Split(script, ",") {
		item := strings.TrimSpace(raw)
		if item == "" {
			continue
		}
		switch {
		case strings.HasPrefix(item, "wait="):
			d, err := time.ParseDuration(strings.TrimPrefix(item, "wait="))
			if err != nil || d < 0 {
				return nil, fmt.Errorf("step %d: invalid wait %q", i+1, item)
			}
			steps = append(steps, Step{Wait: d})
		case strings.HasPrefix(item, "snapshot="):
			path := strings.TrimPrefix(item, "snapshot=")
			if path == "" {
				return nil, fmt.Errorf("step %d: snapshot needs a file name", i+1)
			}
			steps = append(steps, Step{Snapshot: path})
		default:
			cmd, err := ParseCommand(item)
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", i+1, err)
			}
			steps = append(steps, Step{Command: &cmd})
		}
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("script is empty")
	}
	return steps, nil
}
