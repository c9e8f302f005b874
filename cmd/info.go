package cmd

import (
	"fmt"

	"github.com/audiolibrelab/loopcanvas/internal/config"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the resolved configuration",
	Long:  `Display the resolved configuration with inheritance indicators. Shows which values are inherited from default vs profile-specific.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("=== RESOLVED CONFIGURATION ===\n")
		fmt.Printf("file: %s\n", cfgFile)

		field := func(key string, value any) {
			fmt.Printf("%s: %v %s\n", key, value, getInheritanceIndicator(cfg.Inheritance, key))
		}

		fmt.Printf("\n[Audio]\n")
		field("audio.backend", cfg.Audio.Backend)
		field("audio.device", cfg.Audio.Device)
		field("audio.sample_rate", cfg.Audio.SampleRate)
		field("audio.channels", cfg.Audio.Channels)
		field("audio.chunk_ms", cfg.Audio.ChunkMs)
		field("audio.output_buffer_ms", cfg.Audio.OutputBufferMs)
		field("audio.tone_frequency", cfg.Audio.ToneFrequency)
		field("audio.mute", cfg.Audio.Mute)
		field("audio.click_volume", cfg.Audio.ClickVolume)
		field("audio.no_click", cfg.Audio.NoClick)

		fmt.Printf("\n[Analysis]\n")
		field("analysis.resolution", cfg.Analysis.Resolution)
		field("analysis.smoothing", cfg.Analysis.Smoothing)
		field("analysis.min_db", cfg.Analysis.MinDB)
		field("analysis.max_db", cfg.Analysis.MaxDB)

		fmt.Printf("\n[Render]\n")
		field("render.width", cfg.Render.Width)
		field("render.height", cfg.Render.Height)
		field("render.fps", cfg.Render.FPS)

		fmt.Printf("\n[Video]\n")
		field("video.source", cfg.Video.Source)
		field("video.path", cfg.Video.Path)
		field("video.filter", cfg.Video.Filter)

		return nil
	},
}

// getInheritanceIndicator returns a formatted indicator for inheritance status
func getInheritanceIndicator(info *config.InheritanceInfo, key string) string {
	if info == nil {
		return "[built-in]"
	}
	switch info.Fields[key] {
	case config.Inherited:
		return "[inherited]"
	case config.ProfileSpecific:
		return "[profile-specific]"
	default:
		return "[unknown]"
	}
}
