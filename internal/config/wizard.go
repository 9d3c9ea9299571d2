package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .raggate.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to raggate! Let's configure your gateway.")
	fmt.Println()

	defaults := DefaultConfig()

	portPrompt := promptui.Prompt{
		Label:   "Port to listen on",
		Default: strconv.Itoa(defaults.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	port, _ := strconv.Atoi(portStr)

	inferencePrompt := promptui.Prompt{
		Label:   "Inference service base URL",
		Default: defaults.InferenceBase,
	}
	inferenceBase, err := inferencePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("inference URL: %w", err)
	}

	corsPrompt := promptui.Prompt{
		Label:   "Allowed CORS origin",
		Default: defaults.CORSOrigin,
	}
	corsOrigin, err := corsPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("CORS origin: %w", err)
	}

	dataPrompt := promptui.Prompt{
		Label:   "Data directory",
		Default: defaults.DataDir,
	}
	dataDir, err := dataPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	secretPrompt := promptui.Prompt{
		Label:   "JWT signing secret (leave blank to generate)",
		Default: "",
		Mask:    '*',
	}
	secret, err := secretPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("jwt secret: %w", err)
	}
	if secret == "" {
		secret, err = randomSecret()
		if err != nil {
			return nil, err
		}
		fmt.Println("Generated a random JWT secret.")
	}

	cfg := DefaultConfig()
	cfg.Port = port
	cfg.InferenceBase = inferenceBase
	cfg.CORSOrigin = corsOrigin
	cfg.DataDir = dataDir
	cfg.UploadDir = dataDir + "/docs"
	cfg.JWTSecret = secret

	configPath := ".raggate.yml"
	if err := cfg.Save(configPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", configPath)
	return cfg, nil
}

// randomSecret returns 32 bytes of hex-encoded randomness.
func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
