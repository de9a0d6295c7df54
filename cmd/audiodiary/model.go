package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/leonardotrapani/audiodiary/internal/config"
	"github.com/leonardotrapani/audiodiary/internal/models/whisper"
)

func modelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Manage local whisper-cli models",
	}

	cmd.AddCommand(modelListCmd())
	cmd.AddCommand(modelDownloadCmd())
	cmd.AddCommand(modelRemoveCmd())

	return cmd
}

func modelListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List downloadable models",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := whisper.NewRegistry(nil, "")
			for _, m := range whisper.List() {
				prefix := "[ ]"
				if reg.Installed(m.ID) {
					prefix = "[x]"
				}
				lang := "english"
				if m.Multilingual {
					lang = "multilingual"
				}
				fmt.Printf("  %s %-10s %8s  %s\n", prefix, m.ID, humanize.Bytes(uint64(m.SizeBytes)), lang)
			}
			fmt.Printf("\nmodels directory: %s\n", reg.Dir())
			return nil
		},
	}
}

func modelDownloadCmd() *cobra.Command {
	var use bool

	cmd := &cobra.Command{
		Use:   "download <model>",
		Short: "Download a model (e.g. base, small.en)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			reg := whisper.NewRegistry(nil, "")

			path := reg.Path(id)
			if reg.Installed(id) {
				fmt.Printf("model '%s' is already installed at %s\n", id, path)
			} else {
				ctx, cancel := signalContext()
				defer cancel()

				lastPercent := -1
				var err error
				path, err = reg.Download(ctx, id, func(done, total int64) {
					if total <= 0 {
						return
					}
					pct := int(done * 100 / total)
					if pct != lastPercent && pct%5 == 0 {
						lastPercent = pct
						fmt.Printf("\rdownloading %s: %s / %s (%d%%)", id,
							humanize.Bytes(uint64(done)), humanize.Bytes(uint64(total)), pct)
					}
				})
				fmt.Println()
				if err != nil {
					return err
				}
				fmt.Printf("saved %s\n", path)
			}

			if !use {
				return nil
			}
			p, err := resolvePaths()
			if err != nil {
				return err
			}
			settings, err := config.LoadSettings(nil, p.settings)
			if err != nil {
				return err
			}
			settings.ModelType = config.ModelTypeLocal
			settings.Local.ModelPath = path
			if err := config.SaveSettings(nil, p.settings, settings); err != nil {
				return err
			}
			fmt.Printf("local transcription now uses %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&use, "use", false, "switch the settings to local transcription with this model")
	return cmd
}

func modelRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <model>",
		Short: "Delete a downloaded model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := whisper.NewRegistry(nil, "").Remove(args[0]); err != nil {
				return err
			}
			fmt.Printf("removed %s\n", args[0])
			return nil
		},
	}
}
