package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/audiolibrelab/loopcanvas/internal/console"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/spf13/cobra"
)

var (
	consoleFlags    runtimeFlags
	consoleSnapshot string
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Run the loop recorder in the terminal",
	Long: `Run the engine without a window. Loops are shown as text waveforms and
the canvas is still rendered off-screen; press w to save it as PNG when
--snapshot is set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cfg, consoleFlags)
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		done := make(chan struct{})
		go func() {
			rt.sched.Run(ctx, rt.eng.Tick)
			close(done)
		}()

		var snapshot console.Snapshotter
		if consoleSnapshot != "" {
			snapshot = func() (string, error) { return rt.snapshot(consoleSnapshot) }
		}

		program := tea.NewProgram(console.New(rt.eng, rt.sched.Post, snapshot), tea.WithAltScreen(), tea.WithContext(ctx))
		_, err = program.Run()
		stop()
		<-done
		if err != nil && ctx.Err() == nil {
			return fmt.Errorf("console failed: %w", err)
		}
		return nil
	},
}

func init() {
	addRuntimeFlags(consoleCmd, &consoleFlags)
	consoleCmd.Flags().StringVar(&consoleSnapshot, "snapshot", "", "PNG file written when pressing w")
}
