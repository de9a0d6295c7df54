package tui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/muesli/termenv"
	"github.com/spf13/afero"

	"github.com/leonardotrapani/audiodiary/internal/config"
)

// ConfigureResult holds the outcome of the settings wizard
type ConfigureResult struct {
	Settings  *config.Settings
	Cancelled bool
}

// ConfigSection represents a configuration menu entry
type ConfigSection string

const (
	SectionModel         ConfigSection = "model"
	SectionChunking      ConfigSection = "chunking"
	SectionOrganizer     ConfigSection = "organizer"
	SectionAPIKey        ConfigSection = "api_key"
	SectionEmail         ConfigSection = "email"
	SectionNotifications ConfigSection = "notifications"
	SectionSaveExit      ConfigSection = "save_exit"
	SectionDiscardExit   ConfigSection = "discard_exit"
)

// RunConfigure loads the settings file, lets the user edit it and saves it
// when confirmed.
func RunConfigure(fs afero.Fs, settingsPath string) (*ConfigureResult, error) {
	settings, err := config.LoadSettings(fs, settingsPath)
	if err != nil {
		return nil, err
	}

	res, err := Run(settings)
	if err != nil || res.Cancelled {
		return res, err
	}

	if err := res.Settings.Validate(); err != nil {
		return nil, fmt.Errorf("settings not saved: %w", err)
	}
	if err := config.SaveSettings(fs, settingsPath, res.Settings); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}
	fmt.Println(StyleDone.Render("Saved " + settingsPath))
	return res, nil
}

// Run starts the menu loop on a copy of s.
func Run(s *config.Settings) (*ConfigureResult, error) {
	edited := *s
	edited.Providers = make(map[string]config.ProviderConfig, len(s.Providers))
	for k, v := range s.Providers {
		edited.Providers[k] = v
	}
	cfg := &edited

	for {
		clearScreen()
		fmt.Println(Logo())
		fmt.Println()

		section, err := selectSection(cfg)
		if err != nil {
			return &ConfigureResult{Cancelled: true}, nil
		}

		switch section {
		case SectionSaveExit:
			confirmed, err := showSummary(cfg)
			if err != nil {
				return &ConfigureResult{Cancelled: true}, nil
			}
			if confirmed {
				return &ConfigureResult{Settings: cfg}, nil
			}

		case SectionDiscardExit:
			return &ConfigureResult{Cancelled: true}, nil

		case SectionModel:
			if err := editModel(cfg); err != nil {
				continue
			}

		case SectionChunking:
			if err := editChunking(cfg); err != nil {
				continue
			}

		case SectionOrganizer:
			if err := editOrganizer(cfg); err != nil {
				continue
			}

		case SectionAPIKey:
			if err := editAPIKey(cfg); err != nil {
				continue
			}

		case SectionEmail:
			if err := editEmail(cfg); err != nil {
				continue
			}

		case SectionNotifications:
			if err := editNotifications(cfg); err != nil {
				continue
			}
		}
	}
}

func selectSection(cfg *config.Settings) (ConfigSection, error) {
	options := []huh.Option[ConfigSection]{
		huh.NewOption(formatModelLabel(cfg), SectionModel),
		huh.NewOption(formatChunkingLabel(cfg), SectionChunking),
		huh.NewOption(formatOrganizerLabel(cfg), SectionOrganizer),
		huh.NewOption(formatAPIKeyLabel(cfg), SectionAPIKey),
		huh.NewOption(formatEmailLabel(cfg), SectionEmail),
		huh.NewOption(formatNotificationsLabel(cfg), SectionNotifications),
		huh.NewOption("Save & Exit", SectionSaveExit),
		huh.NewOption("Discard & Exit", SectionDiscardExit),
	}

	var selected ConfigSection
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[ConfigSection]().
				Title("Settings").
				Description("↑/↓ navigate • enter select • esc cancel").
				Options(options...).
				Value(&selected),
		),
	).WithTheme(formTheme())

	if err := form.Run(); err != nil {
		return "", err
	}

	return selected, nil
}

func showSummary(cfg *config.Settings) (bool, error) {
	fmt.Println()
	fmt.Println(StyleTitle.Render("Settings Summary"))
	for _, line := range summaryLines(cfg) {
		fmt.Printf("  %s %s\n", StyleLabel.Render(line[0]+":"), line[1])
	}
	fmt.Println()

	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save these settings?").
				Affirmative("Save").
				Negative("Cancel").
				Value(&confirmed),
		),
	).WithTheme(formTheme())

	if err := form.Run(); err != nil {
		return false, err
	}

	return confirmed, nil
}

// clearScreen clears the terminal screen
func clearScreen() {
	output := termenv.NewOutput(os.Stdout)
	output.ClearScreen()
}
