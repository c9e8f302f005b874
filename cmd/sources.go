package cmd

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/audiolibrelab/loopcanvas/internal/capture"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List available capture sources",
	Long:  `List the capture devices every backend can record from. Use a substring of a device name as audio.device in the configuration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Capture sources (%s)\n", runtime.GOOS)
		fmt.Printf("═══════════════════════════════════════\n\n")

		selected, err := capture.NewBackend(cfg)
		if err != nil {
			return err
		}

		for _, bt := range capture.GetAvailableBackends() {
			backend, err := backendFor(bt)
			if err != nil {
				return err
			}
			sources, err := backend.ListSources()
			if err != nil {
				slog.Warn("Could not list sources", "backend", bt, "error", err)
				continue
			}

			marker := ""
			if bt == selected.GetType() {
				marker = " [selected]"
			}
			fmt.Printf("%s%s (%d found):\n", bt, marker, len(sources))
			for i, source := range sources {
				fmt.Printf("  %d. %s\n", i+1, source)
			}
			fmt.Println()
		}

		if cfg.Audio.Device != "" {
			fmt.Printf("Configured device filter: %q\n", cfg.Audio.Device)
		}
		return nil
	},
}

func backendFor(bt capture.BackendType) (capture.Backend, error) {
	switch bt {
	case capture.BackendTypeMalgo:
		return capture.MalgoBackend{}, nil
	case capture.BackendTypeTone:
		return capture.ToneBackend{}, nil
	}
	return nil, fmt.Errorf("unknown capture backend: %s", bt)
}
