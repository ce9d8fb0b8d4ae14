package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/coreapi2swagger/internal/codec"
	"github.com/mark3labs/coreapi2swagger/internal/document"
	"github.com/mark3labs/coreapi2swagger/internal/swagger"
)

// GenerateConfig captures all inputs that influence the generate command after
// merging defaults, config file values, and CLI overrides.
type GenerateConfig struct {
	Input      string
	Out        string
	Format     string
	Check      bool
	Timeout    time.Duration
	Retries    int
	ConfigPath string
	Verbose    bool

	stdout io.Writer
	stderr io.Writer
}

func defaultGenerateConfig() GenerateConfig {
	settings := document.DefaultSettings()
	return GenerateConfig{
		Timeout: settings.HTTPTimeout,
		Retries: settings.MaxRetries,
	}
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a Swagger 2.0 document from a Core JSON document",
		Long: "Generate a Swagger 2.0 document from a Core JSON document. " +
			"Options can be provided via flags, config files, or defaults.",
		Example: strings.TrimSpace(`  coreapi2swagger generate --input schema.json --out swagger.yaml
  coreapi2swagger generate --input https://api.example.org/schema/ --format yaml --check
  coreapi2swagger --config coreapi2swagger.yaml generate`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			cfg.stdout = cmd.OutOrStdout()
			cfg.stderr = cmd.ErrOrStderr()
			return generateRunner(cmd.Context(), cfg)
		},
	}

	defaults := document.DefaultSettings()
	flags := cmd.Flags()
	flags.String("input", "", "Path or URL to the Core JSON document")
	flags.String("out", "", "Output file; stdout when omitted or \"-\"")
	flags.String("format", "", "Output format (json|yaml); inferred from --out when omitted")
	flags.Bool("check", false, "Load the result with kin-openapi and fail on unaddressable operations")
	flags.Duration("timeout", defaults.HTTPTimeout, "HTTP timeout when --input is a URL")
	flags.Int("retries", defaults.MaxRetries, "Attempts for transient HTTP failures when --input is a URL")

	return cmd
}

func resolveGenerateConfig(cmd *cobra.Command) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyGenerateConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyGenerateFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	if flags.Changed("input") {
		value, err := flags.GetString("input")
		if err != nil {
			return err
		}
		cfg.Input = value
	}
	if flags.Changed("out") {
		value, err := flags.GetString("out")
		if err != nil {
			return err
		}
		cfg.Out = value
	}
	if flags.Changed("format") {
		value, err := flags.GetString("format")
		if err != nil {
			return err
		}
		cfg.Format = value
	}
	if flags.Changed("check") {
		value, err := flags.GetBool("check")
		if err != nil {
			return err
		}
		cfg.Check = value
	}
	if flags.Changed("timeout") {
		value, err := flags.GetDuration("timeout")
		if err != nil {
			return err
		}
		cfg.Timeout = value
	}
	if flags.Changed("retries") {
		value, err := flags.GetInt("retries")
		if err != nil {
			return err
		}
		cfg.Retries = value
	}
	if flags.Changed("verbose") {
		value, err := flags.GetBool("verbose")
		if err != nil {
			return err
		}
		cfg.Verbose = value
	}

	return nil
}

func (c *GenerateConfig) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.Out = strings.TrimSpace(c.Out)
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
}

func (c *GenerateConfig) validate() error {
	if c.Input == "" {
		return newUsageError("generate: --input is required (set via flag or config file)")
	}
	if c.Format != "" {
		if _, err := swagger.ParseFormat(c.Format); err != nil {
			return newUsageError(fmt.Sprintf("generate: %v", err))
		}
	}
	if c.Timeout < 0 {
		return newUsageError("generate: --timeout must not be negative")
	}
	if c.Retries < 0 {
		return newUsageError("generate: --retries must not be negative")
	}
	return nil
}

// outputFormat resolves the format: explicit setting first, then the output
// file extension, then JSON.
func (c *GenerateConfig) outputFormat() swagger.Format {
	if f, err := swagger.ParseFormat(c.Format); err == nil {
		return f
	}
	if c.toStdout() {
		return swagger.FormatJSON
	}
	return swagger.FormatForPath(c.Out)
}

func (c *GenerateConfig) toStdout() bool {
	return c.Out == "" || c.Out == "-"
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	stdout, stderr := cfg.stdout, cfg.stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	logger := newLogger(stderr, cfg.Verbose)

	// 1) Load the Core JSON document (file or http/https URL)
	doc, err := document.Load(ctx, cfg.Input,
		document.WithHTTPTimeout(cfg.Timeout),
		document.WithMaxRetries(cfg.Retries),
		document.WithLogger(logger),
	)
	if err != nil {
		var le *document.LoadError
		if errors.As(err, &le) {
			msg := fmt.Sprintf("document: %s", le.Message)
			if le.Location != "" {
				msg = fmt.Sprintf("%s\nLocation: %s", msg, le.Location)
			}
			// Only a bad --input is the caller's mistake; fetch and parse
			// failures exit like any other failed run.
			if le.Code == document.InputError {
				return newUsageError(msg)
			}
			return errors.New(msg)
		}
		return err
	}

	// 2) Convert
	out := codec.Encode(doc, codec.WithLogger(logger))
	logger.Debug("converted document", "title", doc.Title, "paths", out.Paths.Len())

	if cfg.Check {
		if err := out.Check(); err != nil {
			return err
		}
		logger.Debug("kin-openapi check passed")
	}

	// 3) Serialize
	data, err := swagger.Marshal(out, cfg.outputFormat())
	if err != nil {
		return err
	}
	if cfg.toStdout() {
		_, err = stdout.Write(data)
		return err
	}
	if err := writeFileAtomic(cfg.Out, data); err != nil {
		return newUsageError(fmt.Sprintf("output error for %s: %v\nHint: choose a different --out or check directory permissions.", cfg.Out, err))
	}
	logger.Info("wrote swagger document", "path", cfg.Out)
	return nil
}

// writeFileAtomic writes via temp file + rename.
func writeFileAtomic(path string, data []byte) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return err
	}
	tmp := abs + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, abs); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func applyGenerateConfigFromFile(cfg *GenerateConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newUsageError(fmt.Sprintf("read config file %q: %v", path, err))
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return newUsageError(fmt.Sprintf("parse config file %q: %v", path, err))
	}

	for key, value := range raw {
		normalized := normalizeKey(key)
		switch normalized {
		case "input":
			str, err := valueAsString(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Input = str
		case "out":
			str, err := valueAsString(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Out = str
		case "format":
			str, err := valueAsString(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Format = str
		case "check":
			val, err := valueAsBool(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Check = val
		case "timeout":
			val, err := valueAsDuration(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Timeout = val
		case "retries":
			val, err := valueAsInt(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Retries = val
		case "verbose":
			val, err := valueAsBool(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Verbose = val
		default:
			return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, key))
		}
	}

	return nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		trimmed := strings.ToLower(strings.TrimSpace(val))
		switch trimmed {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n", "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}

func valueAsInt(v any) (int, error) {
	switch val := v.(type) {
	case int:
		return val, nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

// valueAsDuration accepts Go duration strings ("5s") or whole seconds.
func valueAsDuration(v any) (time.Duration, error) {
	switch val := v.(type) {
	case string:
		d, err := time.ParseDuration(strings.TrimSpace(val))
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", val)
		}
		return d, nil
	case int:
		return time.Duration(val) * time.Second, nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("expected duration, got %T", v)
	}
}
