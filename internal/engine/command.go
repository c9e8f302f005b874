package engine

import (
	"fmt"
	"strings"

	"github.com/audiolibrelab/loopcanvas/internal/video"
)

// CommandKind names a user action.
type CommandKind string

const (
	CmdRecord     CommandKind = "record"
	CmdStop       CommandKind = "stop"
	CmdPlay       CommandKind = "play"
	CmdDeleteLast CommandKind = "deleteLast"
	CmdDeleteAll  CommandKind = "deleteAll"
	CmdFilter     CommandKind = "filter"
)

type Command struct {
	Kind CommandKind
	// Filter is only used by CmdFilter.
	Filter video.FilterState
}

func (c Command) String() string {
	if c.Kind == CmdFilter {
		return fmt.Sprintf("filter=%s", c.Filter)
	}
	return string(c.Kind)
}

// ParseCommand accepts the command names plus "filter=<mode>" and the bare
// filter names as shorthand.
func ParseCommand(s string) (Command, error) {
	s = strings.TrimSpace(s)
	if mode, ok := strings.CutPrefix(s, "filter="); ok {
		f, err := video.ParseFilter(mode)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: CmdFilter, Filter: f}, nil
	}

	switch strings.ToLower(strings.ReplaceAll(s, "-", "")) {
	case "record":
		return Command{Kind: CmdRecord}, nil
	case "stop":
		return Command{Kind: CmdStop}, nil
	case "play":
		return Command{Kind: CmdPlay}, nil
	case "deletelast":
		return Command{Kind: CmdDeleteLast}, nil
	case "deleteall":
		return Command{Kind: CmdDeleteAll}, nil
	}

	if f, err := video.ParseFilter(s); err == nil {
		return Command{Kind: CmdFilter, Filter: f}, nil
	}
	return Command{}, fmt.Errorf("unknown command: %s", s)
}
