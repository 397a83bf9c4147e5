package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/replydeck/internal/ai"
	"github.com/replydeck/internal/config"
)

// EnvCommand returns the env command.
func EnvCommand() *cli.Command {
	return &cli.Command{
		Name:  "env",
		Usage: "Check environment variables used by the configured AI provider",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   "Check a specific provider instead of the configured one",
			},
		},
		Action: runEnv,
	}
}

func runEnv(c *cli.Context) error {
	provider := c.String("provider")
	if provider == "" {
		path := c.String("config")
		if _, err := os.Stat(path); err != nil {
			path = ""
		}
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		provider = cfg.AI.Provider
	}

	result := CheckRequiredEnv(provider)
	PrintEnvCheck(result)

	if len(result.Missing) > 0 {
		return fmt.Errorf("%d required variables missing", len(result.Missing))
	}
	return nil
}

// EnvCheckResult holds the result of environment validation.
type EnvCheckResult struct {
	Provider string            // Canonical provider name being checked
	Missing  []string          // Required variables that are missing
	Present  map[string]string // Variables that are set (masked values)
	Warnings []string          // Non-fatal warnings
}

// CheckRequiredEnv validates that the API key for providerName is set, and
// reports any other provider keys that happen to be present.
func CheckRequiredEnv(providerName string) *EnvCheckResult {
	result := &EnvCheckResult{
		Provider: providerName,
		Missing:  []string{},
		Present:  make(map[string]string),
		Warnings: []string{},
	}

	canonical, ok := ai.CanonicalName(providerName)
	if !ok {
		result.Warnings = append(result.Warnings, fmt.Sprintf("unknown provider %q", providerName))
		return result
	}
	result.Provider = canonical

	required := ai.KeyEnvVar(canonical)
	if required == "" {
		// Local inference needs no key.
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%s runs without an API key; make sure the server is reachable", canonical))
	} else {
		val := os.Getenv(required)
		if val == "" {
			result.Missing = append(result.Missing, required)
		} else {
			result.Present[required] = maskSecret(val)
		}
	}

	// Other provider keys are worth surfacing for anyone switching around.
	for _, other := range []string{ai.ProviderOpenAI, ai.ProviderAnthropic, ai.ProviderGemini} {
		envVar := ai.KeyEnvVar(other)
		if envVar == required || envVar == "" {
			continue
		}
		if val := os.Getenv(envVar); val != "" {
			result.Present[envVar] = maskSecret(val)
		}
	}

	return result
}

// PrintEnvCheck prints the environment check results.
func PrintEnvCheck(result *EnvCheckResult) {
	fmt.Println("=== Environment Check ===")
	fmt.Printf("Provider: %s\n", result.Provider)
	fmt.Println("")

	if len(result.Missing) > 0 {
		fmt.Println("❌ Missing required variables:")
		for _, v := range result.Missing {
			fmt.Printf("   - %s\n", v)
		}
		fmt.Println("")
	}

	if len(result.Present) > 0 {
		fmt.Println("✓ Configured variables:")
		for k, v := range result.Present {
			fmt.Printf("   - %s = %s\n", k, v)
		}
		fmt.Println("")
	}

	for _, w := range result.Warnings {
		fmt.Printf("⚠ Warning: %s\n", w)
	}

	if len(result.Missing) == 0 {
		fmt.Println("✓ All required configuration is present")
	}

	fmt.Println("=========================")
}

// maskSecret masks a secret value for display, showing only first and last 2 chars
func maskSecret(value string) string {
	if len(value) <= 8 {
		return "****"
	}
	return value[:2] + "****" + value[len(value)-2:]
}

// LoadEnvFile loads environment variables from a file, overwriting existing ones.
func LoadEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present
		if len(value) >= 2 && ((value[0] == '"' && value[len(value)-1] == '"') || (value[0] == '\'' && value[len(value)-1] == '\'')) {
			value = value[1 : len(value)-1]
		}

		// Overwrite environment variable
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("failed to set env var %s: %w", key, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return err
	}

	return nil
}
