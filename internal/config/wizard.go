package config

import (
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard walks through an interactive first-time setup and returns the
// resulting Config, saved to the given path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to carl! Let's get you connected to Canvas.")
	fmt.Println()

	cfg := DefaultConfig()

	urlPrompt := promptui.Prompt{
		Label:   "Canvas URL (e.g. https://school.instructure.com)",
		Default: cfg.Canvas.BaseURL,
		Validate: func(s string) error {
			if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
				return fmt.Errorf("must start with http:// or https://")
			}
			return nil
		},
	}
	baseURL, err := urlPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("canvas url: %w", err)
	}
	cfg.Canvas.BaseURL = strings.TrimRight(baseURL, "/")

	tokenPrompt := promptui.Prompt{
		Label: "Canvas access token (Account > Settings > New Access Token)",
		Mask:  '*',
	}
	token, err := tokenPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("canvas token: %w", err)
	}
	cfg.Canvas.Token = token

	providerPrompt := promptui.Select{
		Label: "Chat model backend (carl still works without one)",
		Items: []string{"ollama", "openai", "none"},
	}
	_, provider, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.LLM.Provider = provider

	if provider != "none" {
		modelPrompt := promptui.Prompt{
			Label:   "Model name",
			Default: cfg.LLM.Model,
		}
		model, err := modelPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("model name: %w", err)
		}
		cfg.LLM.Model = model
	}

	if err := cfg.Save(path); err != nil {
		return nil, err
	}
	fmt.Printf("\nSaved %s. Run `carl serve` to start the assistant.\n", path)
	return cfg, nil
}
