// Package wizard implements the interactive first-run configuration flow.
// It collects provider and server settings over the terminal and writes the
// YAML settings file plus a .env holding credentials; the core only ever
// consumes the resulting files through the config package.
package wizard

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/Napiersnotes/Dandelions/internal/config"
)

// vendorPreset seeds sensible defaults per supported vendor.
type vendorPreset struct {
	Vendor       string
	DefaultModel string
}

var presets = []vendorPreset{
	{Vendor: "deepseek", DefaultModel: "deepseek-chat"},
	{Vendor: "mistral", DefaultModel: "mistral-small-latest"},
	{Vendor: "openai", DefaultModel: "gpt-4o-mini"},
}

// Wizard runs the interactive setup flow.
type Wizard struct {
	in  *bufio.Reader
	out io.Writer
	dir string
}

// New creates a wizard reading answers from in and writing prompts to out.
// Configuration files are written under dir.
func New(in io.Reader, out io.Writer, dir string) *Wizard {
	return &Wizard{
		in:  bufio.NewReader(in),
		out: out,
		dir: dir,
	}
}

// Run walks through the setup steps and writes the configuration files.
func (w *Wizard) Run() error {
	w.welcome()

	cfg, secrets, err := w.collect()
	if err != nil {
		return err
	}

	if err := w.save(cfg, secrets); err != nil {
		return err
	}

	green := color.New(color.FgGreen, color.Bold)
	_, _ = green.Fprintf(w.out, "\nSetup complete. Configuration written to %s\n", w.dir)
	fmt.Fprintln(w.out, "Start the bot with: dandelion start")
	return nil
}

func (w *Wizard) welcome() {
	cyan := color.New(color.FgCyan, color.Bold)
	_, _ = cyan.Fprintln(w.out, "Dandelion setup")
	fmt.Fprintln(w.out, "This wizard configures your LLM providers and server settings.")
	fmt.Fprintln(w.out, "Press Enter to accept the value shown in brackets.")
	fmt.Fprintln(w.out)
}

// collect gathers the full configuration. Credentials are returned
// separately so they land in .env, not in the YAML file.
func (w *Wizard) collect() (*config.Config, map[string]string, error) {
	cfg := &config.Config{}
	secrets := make(map[string]string)

	yellow := color.New(color.FgYellow, color.Bold)

	_, _ = yellow.Fprintln(w.out, "Step 1: LLM providers")
	priority := 1
	for _, preset := range presets {
		enabled, err := w.askBool(fmt.Sprintf("Enable %s?", preset.Vendor), false)
		if err != nil {
			return nil, nil, err
		}

		entry := config.ProviderEntry{
			Vendor:      preset.Vendor,
			Model:       preset.DefaultModel,
			Temperature: 0.7,
			MaxTokens:   2048,
			Priority:    priority,
			Enabled:     enabled,
		}

		if enabled {
			apiKey, err := w.askString(fmt.Sprintf("%s API key", preset.Vendor), "")
			if err != nil {
				return nil, nil, err
			}
			if apiKey == "" {
				fmt.Fprintln(w.out, "No key entered; provider saved as disabled.")
				entry.Enabled = false
			} else {
				secrets[config.APIKeyEnvVar(preset.Vendor)] = apiKey
			}

			entry.Model, err = w.askString("Model", preset.DefaultModel)
			if err != nil {
				return nil, nil, err
			}
			entry.Priority, err = w.askInt("Priority (lower tried first)", priority)
			if err != nil {
				return nil, nil, err
			}
		}

		cfg.Providers = append(cfg.Providers, entry)
		priority++
	}

	fmt.Fprintln(w.out)
	_, _ = yellow.Fprintln(w.out, "Step 2: server")
	port, err := w.askInt("HTTP port", 8080)
	if err != nil {
		return nil, nil, err
	}
	cfg.Server = config.ServerConfig{Port: port, ReadTimeout: 30, WriteTimeout: 30}

	fmt.Fprintln(w.out)
	_, _ = yellow.Fprintln(w.out, "Step 3: optional services")
	useCache, err := w.askBool("Enable Redis response cache?", false)
	if err != nil {
		return nil, nil, err
	}
	if useCache {
		cfg.Cache.RedisAddr, err = w.askString("Redis address", "localhost:6379")
		if err != nil {
			return nil, nil, err
		}
		cfg.Cache.TTLSeconds = 3600
	}

	useUsage, err := w.askBool("Keep a usage history database?", true)
	if err != nil {
		return nil, nil, err
	}
	if useUsage {
		cfg.Usage.DBPath = filepath.Join(w.dir, "usage.db")
		cfg.Usage.RetentionDays = 30
	}

	return cfg, secrets, nil
}

// save writes settings.yaml and .env under the wizard directory.
func (w *Wizard) save(cfg *config.Config, secrets map[string]string) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	settingsPath := filepath.Join(w.dir, "settings.yaml")
	if err := os.WriteFile(settingsPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", settingsPath, err)
	}

	var envBuilder strings.Builder
	for key, value := range secrets {
		fmt.Fprintf(&envBuilder, "%s=%s\n", key, value)
	}
	envPath := filepath.Join(w.dir, ".env")
	if err := os.WriteFile(envPath, []byte(envBuilder.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", envPath, err)
	}

	return nil
}

func (w *Wizard) askString(prompt, fallback string) (string, error) {
	if fallback != "" {
		fmt.Fprintf(w.out, "%s [%s]: ", prompt, fallback)
	} else {
		fmt.Fprintf(w.out, "%s: ", prompt)
	}

	line, err := w.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	answer := strings.TrimSpace(line)
	if answer == "" {
		return fallback, nil
	}
	return answer, nil
}

func (w *Wizard) askBool(prompt string, fallback bool) (bool, error) {
	hint := "y/N"
	if fallback {
		hint = "Y/n"
	}
	answer, err := w.askString(fmt.Sprintf("%s (%s)", prompt, hint), "")
	if err != nil {
		return false, err
	}
	if answer == "" {
		return fallback, nil
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (w *Wizard) askInt(prompt string, fallback int) (int, error) {
	answer, err := w.askString(prompt, strconv.Itoa(fallback))
	if err != nil {
		return 0, err
	}
	value, err := strconv.Atoi(answer)
	if err != nil {
		fmt.Fprintf(w.out, "Not a number, keeping %d.\n", fallback)
		return fallback, nil
	}
	return value, nil
}
