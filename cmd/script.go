package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/audiolibrelab/loopcanvas/internal/engine"

	"github.com/spf13/cobra"
)

var scriptFlags runtimeFlags

var scriptCmd = &cobra.Command{
	Use:   "script [steps]",
	Short: "Run a comma separated list of commands without a window",
	Long: `Run commands in order while the engine renders off-screen. Besides the
commands (record, stop, play, deleteLast, deleteAll, filter=<mode>) a step
can be wait=<duration> or snapshot=<file.png>.

Example: loopcanvas script "record,wait=2s,stop,record,wait=3s,stop,play,wait=1s,snapshot=canvas.png"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, err := engine.ParseScript(args[0])
		if err != nil {
			return fmt.Errorf("invalid script: %w", err)
		}

		rt, err := newRuntime(cfg, scriptFlags)
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
		defer func() {
			stop()
			<-done
		}()

		for i, step := range steps {
			fmt.Printf("Script: step %d/%d: %s\n", i+1, len(steps), step)
			if err := runStep(ctx, rt, step); err != nil {
				return fmt.Errorf("step %d (%s) failed: %w", i+1, step, err)
			}
		}

		status, err := onEngine(ctx, rt, func() (engine.Status, error) { return rt.eng.Status(), nil })
		if err != nil {
			return err
		}
		fmt.Printf("Script: done, %d loops, filter %s\n", status.Loops, status.Filter)
		if status.LastError != "" {
			fmt.Printf("Script: last error: %s\n", status.LastError)
		}
		return nil
	},
}

func runStep(ctx context.Context, rt *appRuntime, step engine.Step) error {
	switch {
	case step.Command != nil:
		_, err := onEngine(ctx, rt, func() (struct{}, error) {
			return struct{}{}, rt.eng.Do(*step.Command)
		})
		return err
	case step.Snapshot != "":
		path, err := onEngine(ctx, rt, func() (string, error) {
			rt.eng.Tick()
			return rt.snapshot(step.Snapshot)
		})
		if err == nil {
			slog.Info("Snapshot saved", "path", path)
		}
		return err
	default:
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(step.Wait):
			return nil
		}
	}
}

// onEngine runs fn on the scheduler goroutine and waits for its result.
func onEngine[T any](ctx context.Context, rt *appRuntime, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	rt.sched.Post(func() {
		v, err := fn()
		ch <- result{v, err}
	})
	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func init() {
	addRuntimeFlags(scriptCmd, &scriptFlags)
}
