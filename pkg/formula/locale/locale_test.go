package locale

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/language"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Language != "en" || cfg.DecimalSeparator != '.' || cfg.ArgSeparator != ',' ||
		cfg.ArrayRowSeparator != ';' || cfg.ArrayColSeparator != ',' {
		t.Errorf("Default() = %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate(): %v", err)
	}
}

func TestFromYAML(t *testing.T) {
	cfg, err := FromYAML([]byte(`
language: fr
decimal_separator: ","
argument_separator: ";"
array_col_separator: "."
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Language != "fr" || cfg.DecimalSeparator != ',' || cfg.ArgSeparator != ';' {
		t.Errorf("FromYAML = %+v", cfg)
	}
	// omitted fields keep their defaults
	if cfg.ArrayRowSeparator != ';' {
		t.Errorf("array_row_separator = %q", cfg.ArrayRowSeparator)
	}
	if cfg.ArrayColSeparator != '.' {
		t.Errorf("array_col_separator = %q", cfg.ArrayColSeparator)
	}
}

func TestFromYAMLRejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not yaml", `{{{`},
		{"multi-char separator", `decimal_separator: "ab"`},
		{"decimal equals argument", "decimal_separator: \",\"\nargument_separator: \",\""},
		{"decimal equals array col", `decimal_separator: ","`},
		{"row equals col", `array_row_separator: ","`},
		{"bad language", `language: "not a tag!"`},
	}
	for _, tt := range tests {
		if _, err := FromYAML([]byte(tt.in)); err == nil {
			t.Errorf("%s: expected an error", tt.name)
		}
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.DecimalSeparator = 0
	if err := cfg.Validate(); err == nil {
		t.Error("non-printable separator accepted")
	}

	cfg = Default()
	cfg.ArgSeparator = '.'
	if err := cfg.Validate(); err == nil {
		t.Error("decimal/argument collision accepted")
	}

	// fr-style config: argument and array-row sharing ';' is fine, the
	// lexer tells them apart by brace depth
	cfg = Config{
		Language:          "fr",
		DecimalSeparator:  ',',
		ArgSeparator:      ';',
		ArrayRowSeparator: ';',
		ArrayColSeparator: '.',
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("fr config rejected: %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locale.yaml")
	body := "language: de\ndecimal_separator: \",\"\nargument_separator: \";\"\narray_col_separator: \".\"\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Language != "de" || cfg.DecimalSeparator != ',' {
		t.Errorf("Load = %+v", cfg)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestTag(t *testing.T) {
	if got := Default().Tag(); got != language.English {
		t.Errorf("Tag() = %v", got)
	}
	cfg := Default()
	cfg.Language = "fr"
	if got := cfg.Tag(); got != language.French {
		t.Errorf("Tag() = %v", got)
	}
	cfg.Language = "!!"
	if got := cfg.Tag(); got != language.English {
		t.Errorf("fallback Tag() = %v", got)
	}
}
