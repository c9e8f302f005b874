package engine

import "github.com/audiolibrelab/loopcanvas/internal/video"

// Binding maps a key name to the command it triggers. Key names follow
// bubbletea's KeyMsg.String().
type Binding struct {
	Key     string
	Label   string
	Command Command
}

var Bindings = []Binding{
	{Key: "r", Label: "record", Command: Command{Kind: CmdRecord}},
	{Key: "s", Label: "stop", Command: Command{Kind: CmdStop}},
	{Key: "p", Label: "play", Command: Command{Kind: CmdPlay}},
	{Key: "backspace", Label: "delete last", Command: Command{Kind: CmdDeleteLast}},
	{Key: "delete", Label: "delete all", Command: Command{Kind: CmdDeleteAll}},
	{Key: "1", Label: "original", Command: Command{Kind: CmdFilter, Filter: video.Original}},
	{Key: "2", Label: "grayscale", Command: Command{Kind: CmdFilter, Filter: video.Grayscale}},
	{Key: "3", Label: "negative", Command: Command{Kind: CmdFilter, Filter: video.Negative}},
	{Key: "0", Label: "off", Command: Command{Kind: CmdFilter, Filter: video.Off}},
}

func CommandForKey(key string) (Command, bool) {
	for _, b := range Bindings {
		if b.Key == key {
			return b.Command, true
		}
	}
	return Command{}, false
}
