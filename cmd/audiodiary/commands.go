package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leonardotrapani/audiodiary/internal/config"
	"github.com/leonardotrapani/audiodiary/internal/dashboard"
	"github.com/leonardotrapani/audiodiary/internal/deps"
	"github.com/leonardotrapani/audiodiary/internal/logging"
	"github.com/leonardotrapani/audiodiary/internal/notify"
	"github.com/leonardotrapani/audiodiary/internal/transcriber"
	"github.com/leonardotrapani/audiodiary/internal/tui"
)

func dashboardCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Serve the web control panel",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolvePaths()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = p.env.DashboardAddr
			}

			logger, closer, err := logging.New(logging.Options{Level: "info"})
			if err != nil {
				return err
			}
			defer closer.Close()

			actions, err := dashboard.OpenSQLite(dashboardDB(p.config))
			if err != nil {
				return err
			}
			defer actions.Close()

			ctrl := dashboard.ProcessController{ConfigPath: p.config}
			store := config.NewStore(nil, p.config)
			srv := dashboard.NewServer(store, ctrl, actions, logger)

			ctx, cancel := signalContext()
			defer cancel()
			return srv.Run(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default $AUDIODIARY_DASHBOARD_ADDR or 127.0.0.1:8080)")
	return cmd
}

func demoEmailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo-email <audio-file>",
		Short: "Transcribe one file and email the transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, cfg, settings, err := loadDocuments()
			if err != nil {
				return err
			}

			var key string
			if settings.NeedsAPIKey() {
				if key, err = settings.RequireAPIKey(p.env); err != nil {
					return err
				}
			}
			tcfg, err := settings.ToTranscriberConfig(cfg, key)
			if err != nil {
				return err
			}

			logger, closer, err := logging.New(logging.Options{Level: cfg.Scheduler.LogLevel})
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx, cancel := signalContext()
			defer cancel()

			text, err := transcriber.NewDispatcher(tcfg, nil, nil, logger).TranscribeFile(ctx, args[0])
			if err != nil {
				return fmt.Errorf("transcription failed: %w", err)
			}
			fmt.Println(tui.Section("Transcript"))
			fmt.Println(text)
			fmt.Println()

			mailer := notify.NewSMTPMailer(settings.ToSMTPConfig(p.env.SMTPPassword))
			ok, msg := mailer.SendTranscript(ctx, text)
			if !ok {
				fmt.Println(tui.StyleFailed.Render(msg))
				return fmt.Errorf("email not sent")
			}
			fmt.Println(tui.StyleDone.Render(msg))
			return nil
		},
	}
}

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools, documents and the API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(tui.Section("Tools"))
			missing := 0
			for _, r := range deps.CheckAll() {
				if r.Status.Installed {
					fmt.Printf("  %s %-12s %s\n", tui.StyleDone.Render("ok"), r.Tool.Name, r.Status.Version)
					continue
				}
				missing++
				fmt.Printf("  %s %-12s not found (%s)\n", tui.StyleFailed.Render("!!"), r.Tool.Name, r.Tool.Purpose)
			}

			fmt.Println()
			fmt.Println(tui.Section("Documents"))
			p, _, _, settings, err := loadDocuments()
			if err != nil {
				fmt.Printf("  %s %v\n", tui.StyleFailed.Render("!!"), err)
				return fmt.Errorf("configuration is not usable")
			}
			fmt.Printf("  %s config   %s\n", tui.StyleDone.Render("ok"), p.config)
			fmt.Printf("  %s settings %s\n", tui.StyleDone.Render("ok"), p.settings)

			_, source := settings.ResolveAPIKey(p.env)
			if source == config.KeySourceMissing {
				fmt.Printf("  %s api key  %s\n", tui.StyleFailed.Render("!!"), source)
				return fmt.Errorf("OpenAI API key missing")
			}
			fmt.Printf("  %s api key  %s\n", tui.StyleDone.Render("ok"), source)

			if model, err := settings.ToModel(); err == nil {
				if lm, ok := model.(transcriber.LocalModel); ok {
					if _, err := os.Stat(lm.ModelPath); err != nil {
						fmt.Printf("  %s model    %s missing (try: audiodiary model download base --use)\n", tui.StyleFailed.Render("!!"), lm.ModelPath)
						return fmt.Errorf("local model not found")
					}
					fmt.Printf("  %s model    %s\n", tui.StyleDone.Render("ok"), lm.ModelPath)
				}
			}

			if missing > 0 {
				fmt.Fprintf(os.Stderr, "\n%d tool(s) missing\n", missing)
			}
			return nil
		},
	}
}
