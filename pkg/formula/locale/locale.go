// Package locale describes the locale-dependent characters the formula
// lexer consults: the decimal separator, the argument separator, and the
// two array-literal separators. A Config is pure data; it has no behavior
// beyond validation and loading.
package locale

import (
	"fmt"
	"os"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Config holds the separator characters for one locale plus the BCP-47
// language tag used for text collation.
type Config struct {
	Language          string `yaml:"language"`            // BCP-47 tag, e.g. "en", "fr"
	DecimalSeparator  byte   `yaml:"decimal_separator"`   // in numeric literals
	ArgSeparator      byte   `yaml:"argument_separator"`  // between function arguments
	ArrayRowSeparator byte   `yaml:"array_row_separator"` // between array literal rows
	ArrayColSeparator byte   `yaml:"array_col_separator"` // between array literal cells
}

// Default returns the en-US configuration: '.' decimal, ',' arguments,
// ';' array rows, ',' array columns.
func Default() Config {
	return Config{
		Language:          "en",
		DecimalSeparator:  '.',
		ArgSeparator:      ',',
		ArrayRowSeparator: ';',
		ArrayColSeparator: ',',
	}
}

// yamlConfig is the on-disk shape: separators written as one-character
// strings so YAML files stay readable.
type yamlConfig struct {
	Language          string `yaml:"language"`
	DecimalSeparator  string `yaml:"decimal_separator"`
	ArgSeparator      string `yaml:"argument_separator"`
	ArrayRowSeparator string `yaml:"array_row_separator"`
	ArrayColSeparator string `yaml:"array_col_separator"`
}

// Load reads a locale configuration from a YAML file. Fields left out of
// the file keep their Default() values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading locale config: %w", err)
	}
	return FromYAML(data)
}

// FromYAML parses a locale configuration from YAML bytes.
func FromYAML(data []byte) (Config, error) {
	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parsing locale config: %w", err)
	}

	cfg := Default()
	if raw.Language != "" {
		cfg.Language = raw.Language
	}
	if err := setSeparator(&cfg.DecimalSeparator, raw.DecimalSeparator, "decimal_separator"); err != nil {
		return Config{}, err
	}
	if err := setSeparator(&cfg.ArgSeparator, raw.ArgSeparator, "argument_separator"); err != nil {
		return Config{}, err
	}
	if err := setSeparator(&cfg.ArrayRowSeparator, raw.ArrayRowSeparator, "array_row_separator"); err != nil {
		return Config{}, err
	}
	if err := setSeparator(&cfg.ArrayColSeparator, raw.ArrayColSeparator, "array_col_separator"); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setSeparator(dst *byte, s, name string) error {
	if s == "" {
		return nil
	}
	if len(s) != 1 {
		return fmt.Errorf("locale %s must be a single ASCII character, got %q", name, s)
	}
	*dst = s[0]
	return nil
}

// Validate checks that the separators are printable ASCII and do not
// collide in ways the lexer cannot disambiguate.
func (c Config) Validate() error {
	for name, ch := range map[string]byte{
		"decimal_separator":   c.DecimalSeparator,
		"argument_separator":  c.ArgSeparator,
		"array_row_separator": c.ArrayRowSeparator,
		"array_col_separator": c.ArrayColSeparator,
	} {
		if ch <= ' ' || ch > '~' {
			return fmt.Errorf("locale %s must be printable ASCII, got %q", name, ch)
		}
	}
	if c.DecimalSeparator == c.ArgSeparator {
		return fmt.Errorf("decimal_separator and argument_separator are both %q", c.DecimalSeparator)
	}
	if c.DecimalSeparator == c.ArrayRowSeparator || c.DecimalSeparator == c.ArrayColSeparator {
		return fmt.Errorf("decimal_separator %q collides with an array separator", c.DecimalSeparator)
	}
	if c.ArrayRowSeparator == c.ArrayColSeparator {
		return fmt.Errorf("array_row_separator and array_col_separator are both %q", c.ArrayRowSeparator)
	}
	if _, err := language.Parse(c.Language); err != nil {
		return fmt.Errorf("invalid language tag %q: %w", c.Language, err)
	}
	return nil
}

// Tag returns the parsed language tag, falling back to English if the
// tag is invalid. Collation and display formatting key off this.
func (c Config) Tag() language.Tag {
	tag, err := language.Parse(c.Language)
	if err != nil {
		return language.English
	}
	return tag
}
