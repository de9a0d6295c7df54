package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/leonardotrapani/audiodiary/internal/bus"
	"github.com/leonardotrapani/audiodiary/internal/config"
	"github.com/leonardotrapani/audiodiary/internal/diary"
	"github.com/leonardotrapani/audiodiary/internal/status"
	"github.com/leonardotrapani/audiodiary/internal/tui"
)

var configFlag string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "audiodiary",
	Short: "Turn recorded voice notes into a dated diary and a to-do list",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "path to the pipeline config (json or yaml)")

	rootCmd.AddCommand(
		initCmd(),
		runCmd(),
		stopCmd(),
		statusCmd(),
		setRunsCmd(),
		setDateCmd(),
		configureCmd(),
		dashboardCmd(),
		demoEmailCmd(),
		doctorCmd(),
		modelCmd(),
	)
}

// paths resolves the environment and the two document locations.
type paths struct {
	env      config.Env
	config   string
	settings string
}

func resolvePaths() (paths, error) {
	env, err := config.LoadEnv(".env")
	if err != nil {
		return paths{}, err
	}
	cfgPath, err := env.GetConfigPath(configFlag)
	if err != nil {
		return paths{}, err
	}
	return paths{env: env, config: cfgPath, settings: env.GetSettingsPath(cfgPath)}, nil
}

func loadDocuments() (paths, *config.Store, *config.Config, *config.Settings, error) {
	p, err := resolvePaths()
	if err != nil {
		return p, nil, nil, nil, err
	}
	store := config.NewStore(nil, p.config)
	cfg, err := store.Load()
	if err != nil {
		return p, nil, nil, nil, err
	}
	settings, err := config.LoadSettings(nil, p.settings)
	if err != nil {
		return p, nil, nil, nil, err
	}
	return p, store, cfg, settings, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write default config and settings files",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolvePaths()
			if err != nil {
				return err
			}

			created, err := config.NewStore(nil, p.config).Init()
			if err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			if created {
				fmt.Printf("created %s\n", p.config)
			} else {
				fmt.Printf("%s already exists\n", p.config)
			}

			fs := afero.NewOsFs()
			exists, err := afero.Exists(fs, p.settings)
			if err != nil {
				return err
			}
			if exists {
				fmt.Printf("%s already exists\n", p.settings)
				return nil
			}
			if err := config.SaveSettings(fs, p.settings, config.DefaultSettings()); err != nil {
				return err
			}
			fmt.Printf("created %s\n", p.settings)
			return nil
		},
	}
}

func stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bus.StopDaemon(); err != nil {
				if errors.Is(err, bus.ErrNotRunning) {
					fmt.Println("scheduler is not running")
					return nil
				}
				return fmt.Errorf("failed to stop scheduler: %w", err)
			}
			fmt.Println("scheduler stopped")
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	var files, costs, noColor bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show scheduler, model and file status",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, cfg, settings, err := loadDocuments()
			if err != nil {
				return err
			}
			report, err := status.Collect(cmd.Context(), status.Options{
				Config:        cfg,
				Settings:      settings,
				Env:           p.env,
				Files:         files,
				CostEstimates: costs,
			})
			if err != nil {
				return err
			}
			status.Render(os.Stdout, report, status.ColorEnabled(noColor))
			return nil
		},
	}

	cmd.Flags().BoolVar(&files, "files", false, "include diary, audit and to-do statistics")
	cmd.Flags().BoolVar(&costs, "cost-estimates", false, "include per-entry organizer cost estimates")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	return cmd
}

func setRunsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-runs <n>",
		Short: "Set how many pipeline cycles run per day (0 runs once)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid runs per day %q: %w", args[0], err)
			}
			p, err := resolvePaths()
			if err != nil {
				return err
			}
			cfg, err := config.NewStore(nil, p.config).SetRunsPerDay(n)
			if err != nil {
				return err
			}
			fmt.Printf("runs per day set to %d\n", cfg.Scheduler.RunsPerDay)
			return nil
		},
	}
}

func setDateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-date [YYMMDD]",
		Short: "Set the current diary date (defaults to today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := time.Now().Format(diary.DateLayout)
			if len(args) == 1 {
				date = args[0]
			}
			p, err := resolvePaths()
			if err != nil {
				return err
			}
			cfg, err := config.NewStore(nil, p.config).SetCurrentDate(date)
			if err != nil {
				return err
			}
			fmt.Printf("diary date set to %s\n", cfg.DiaryManager.CurrentDate)
			return nil
		},
	}
}

func configureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Interactive transcription and organizer settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolvePaths()
			if err != nil {
				return err
			}
			res, err := tui.RunConfigure(nil, p.settings)
			if err != nil {
				return fmt.Errorf("configuration wizard error: %w", err)
			}
			if res.Cancelled {
				fmt.Println("Configuration cancelled.")
				return nil
			}
			fmt.Printf("Settings file location: %s\n", p.settings)
			if _, alive := bus.ReadPid(); alive {
				fmt.Println("Restart the scheduler to apply changes: audiodiary stop && audiodiary run")
			}
			return nil
		},
	}
}

func dashboardDB(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), "dashboard.db")
}
