package tui

import (
	"strconv"

	"github.com/charmbracelet/huh"

	"github.com/leonardotrapani/audiodiary/internal/config"
	"github.com/leonardotrapani/audiodiary/internal/organizer"
)

func editOrganizer(cfg *config.Settings) error {
	model := cfg.Organizer.Model
	temperature := formatFloat(cfg.Organizer.Temperature)
	maxTokens := strconv.Itoa(cfg.Organizer.MaxTokens)
	cache := cfg.Organizer.EnableCache

	var options []huh.Option[string]
	for _, name := range organizer.PricedModels() {
		options = append(options, huh.NewOption(name, name))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Organizer Model").
				Description("Chat model that formats entries and extracts to-do items").
				Options(options...).
				Value(&model),
			huh.NewInput().
				Title("Temperature").
				Description("0 to 2, lower is more literal").
				Value(&temperature).
				Validate(validateFloatRange(0, 2)),
			huh.NewInput().
				Title("Max Tokens").
				Value(&maxTokens).
				Validate(validateIntMin(1)),
			huh.NewConfirm().
				Title("Cache Responses").
				Description("Reuse answers for identical requests while the scheduler runs").
				Value(&cache),
		),
	).WithTheme(formTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Organizer.Model = model
	cfg.Organizer.Temperature, _ = parseFloat(temperature)
	cfg.Organizer.MaxTokens, _ = parseInt(maxTokens)
	cfg.Organizer.EnableCache = cache
	return nil
}

func editAPIKey(cfg *config.Settings) error {
	apiKey := cfg.Providers["openai"].APIKey

	desc := "Get one at https://platform.openai.com/api-keys. Leave empty to use OPENAI_API_KEY."
	if apiKey != "" {
		desc = "Current: " + config.MaskKey(apiKey)
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("OpenAI API Key").
				Description(desc).
				EchoMode(huh.EchoModePassword).
				Value(&apiKey),
		),
	).WithTheme(formTheme())

	if err := form.Run(); err != nil {
		return err
	}

	setAPIKey(cfg, apiKey)
	return nil
}

func setAPIKey(cfg *config.Settings, key string) {
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]config.ProviderConfig)
	}
	if key == "" {
		delete(cfg.Providers, "openai")
		return
	}
	cfg.Providers["openai"] = config.ProviderConfig{APIKey: key}
}

func editEmail(cfg *config.Settings) error {
	host := cfg.Email.Host
	port := strconv.Itoa(cfg.Email.Port)
	username := cfg.Email.Username
	from := cfg.Email.From
	to := cfg.Email.To
	subject := cfg.Email.Subject

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("SMTP Host").Value(&host).Validate(validateRequired),
			huh.NewInput().Title("SMTP Port").Value(&port).Validate(validateIntMin(1)),
			huh.NewInput().
				Title("Username").
				Description("The password is read from AUDIODIARY_SMTP_PASSWORD").
				Value(&username),
		),
		huh.NewGroup(
			huh.NewInput().Title("From").Value(&from).Validate(validateEmail),
			huh.NewInput().Title("To").Value(&to).Validate(validateEmail),
			huh.NewInput().Title("Subject").Value(&subject),
		),
	).WithTheme(formTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Email.Host = host
	cfg.Email.Port, _ = parseInt(port)
	cfg.Email.Username = username
	cfg.Email.From = from
	cfg.Email.To = to
	cfg.Email.Subject = subject
	return nil
}

func editNotifications(cfg *config.Settings) error {
	enabled := cfg.Notifications.Enabled

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Desktop Notifications").
				Description("Send a notify-send message after every cycle").
				Value(&enabled),
		),
	).WithTheme(formTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Notifications.Enabled = enabled
	return nil
}
