package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .survscan.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to survscan! Let's configure the service.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider for extraction",
		Items: []string{"google", "openai", "anthropic", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)
	cfg.Model = DefaultModel(cfg.Provider)

	// 2. Model override.
	modelPrompt := promptui.Prompt{
		Label:   "Model",
		Default: cfg.Model,
	}
	if model, err := modelPrompt.Run(); err == nil && model != "" {
		cfg.Model = model
	}

	// 3. Survey service base URL.
	apiPrompt := promptui.Prompt{
		Label:   "Survey service API base URL",
		Default: cfg.EncuestasAPIURL,
	}
	if apiURL, err := apiPrompt.Run(); err == nil && apiURL != "" {
		cfg.EncuestasAPIURL = apiURL
	}

	// 4. HTTP port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP port",
		Default: strconv.Itoa(cfg.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("must be a port number")
			}
			return nil
		},
	}
	if portStr, err := portPrompt.Run(); err == nil {
		cfg.Port, _ = strconv.Atoi(portStr)
	}

	// Warn if the provider API key is missing; the wizard never stores keys.
	if envVar := APIKeyEnvVar(cfg.Provider); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: %s is not set. Export it before starting the server.\n", envVar)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("wizard produced invalid config: %w", err)
	}

	if err := cfg.Save(".survscan.yml"); err != nil {
		return nil, err
	}
	fmt.Println("\nConfiguration saved to .survscan.yml")

	return cfg, nil
}
