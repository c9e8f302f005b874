package cmd

import (
	"github.com/audiolibrelab/loopcanvas/internal/display"

	"github.com/spf13/cobra"
)

var runFlags runtimeFlags

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the loop canvas window",
	Long: `Open a window showing the canvas. Keys: R record, S stop, P play all,
Backspace delete last loop, Delete delete all loops, 1 original, 2 grayscale,
3 negative, 0 video off, H toggle the status line, Esc quit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cfg, runFlags)
		if err != nil {
			return err
		}
		defer rt.Close()

		// The window's update loop is the engine goroutine; the scheduler
		// only queues capture callbacks for it.
		return display.New(rt.eng, rt.sched).Run("loopcanvas")
	},
}

func init() {
	addRuntimeFlags(runCmd, &runFlags)
}
