package parsers

import "fmt"

// ReadConfig controls how sheets are turned into raw tables
type ReadConfig struct {
	// SkipEmptyRows drops rows in which every cell is blank
	SkipEmptyRows bool `mapstructure:"skip_empty_rows"`
	// MaxRows caps the data rows read per sheet; 0 means no limit
	MaxRows int `mapstructure:"max_rows"`

	// CSV inputs only
	Delimiter        rune `mapstructure:"-"`
	TrimLeadingSpace bool `mapstructure:"trim_leading_space"`
	ValidateEncoding bool `mapstructure:"validate_encoding"`
}

// DefaultReadConfig returns a configuration with sensible defaults
func DefaultReadConfig() *ReadConfig {
	return &ReadConfig{
		SkipEmptyRows:    true,
		MaxRows:          0,
		Delimiter:        ',',
		TrimLeadingSpace: true,
		ValidateEncoding: true,
	}
}

// Validate validates the read configuration
func (c *ReadConfig) Validate() error {
	if c.MaxRows < 0 {
		return fmt.Errorf("max rows cannot be negative, got %d", c.MaxRows)
	}
	if c.Delimiter == 0 || c.Delimiter == '\n' || c.Delimiter == '\r' || c.Delimiter == '"' {
		return fmt.Errorf("invalid CSV delimiter %q", c.Delimiter)
	}
	return nil
}
