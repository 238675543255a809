package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gofhir/qconvert"
	"github.com/gofhir/qconvert/pkg/logger"
)

// OutputFormat specifies the report format.
type OutputFormat string

// Output format constants.
const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
)

// Config holds the convert settings. Flags set on the command line
// override values read from the config file.
type Config struct {
	From               string       `yaml:"from"`
	To                 string       `yaml:"to"`
	Out                string       `yaml:"out"`
	ConversionTag      bool         `yaml:"conversionTag"`
	PreserveExtensions bool         `yaml:"preserveExtensions"`
	Verify             bool         `yaml:"verify"`
	Workers            int          `yaml:"workers"`
	LogLevel           string       `yaml:"logLevel"`
	Output             OutputFormat `yaml:"output"`
}

// DefaultConfig returns the settings used when neither a config file nor
// a flag says otherwise.
func DefaultConfig() *Config {
	return &Config{
		ConversionTag: true,
		Output:        OutputText,
	}
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Versions parses From and To.
func (c *Config) Versions() (from, to qconvert.FHIRVersion, err error) {
	from, ok := qconvert.ParseVersion(strings.ToUpper(c.From))
	if !ok {
		return "", "", fmt.Errorf("unknown source version %q (want STU3, R4, R4B or R5)", c.From)
	}
	to, ok = qconvert.ParseVersion(strings.ToUpper(c.To))
	if !ok {
		return "", "", fmt.Errorf("unknown target version %q (want STU3, R4, R4B or R5)", c.To)
	}
	return from, to, nil
}

// Validate checks the settings that do not depend on the versions.
func (c *Config) Validate() error {
	switch c.Output {
	case OutputText, OutputJSON:
	default:
		return fmt.Errorf("unknown output format %q", c.Output)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	if c.LogLevel != "" {
		if _, err := logger.ParseLevel(c.LogLevel); err != nil {
			return err
		}
	}
	return nil
}

// convertFlags mirrors Config for flag binding.
type convertFlags struct {
	from, to, out, output string
	noTag, preserve       bool
	verify                bool
	workers               int
}

func (f *convertFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "Source FHIR version (STU3, R4, R4B, R5)")
	cmd.Flags().StringVar(&f.to, "to", "", "Target FHIR version (STU3, R4, R4B, R5)")
	cmd.Flags().StringVar(&f.out, "out", "", "Output directory (default: next to each input)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "text", "Report format: text|json")
	cmd.Flags().BoolVar(&f.noTag, "no-tag", false, "Do not add the conversion meta.tag")
	cmd.Flags().BoolVar(&f.preserve, "preserve-extensions", false, "Keep fields the target cannot express as inter-version extensions")
	cmd.Flags().BoolVar(&f.verify, "verify", false, "Check converted Questionnaires with the invariant rules")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "Parallel conversions (default: number of CPUs)")
}

// apply overlays the flags the user actually set.
func (f *convertFlags) apply(cmd *cobra.Command, cfg *Config) {
	flags := cmd.Flags()
	if flags.Changed("from") {
		cfg.From = f.from
	}
	if flags.Changed("to") {
		cfg.To = f.to
	}
	if flags.Changed("out") {
		cfg.Out = f.out
	}
	if flags.Changed("output") {
		cfg.Output = OutputFormat(strings.ToLower(f.output))
	}
	if flags.Changed("no-tag") {
		cfg.ConversionTag = !f.noTag
	}
	if flags.Changed("preserve-extensions") {
		cfg.PreserveExtensions = f.preserve
	}
	if flags.Changed("verify") {
		cfg.Verify = f.verify
	}
	if flags.Changed("workers") {
		cfg.Workers = f.workers
	}
}
