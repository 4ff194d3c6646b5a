package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateExtract(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateExtract() error {
	if _, err := CompileFilter(c.Extract.Filter); err != nil {
		return fmt.Errorf("extract.filter: %w", err)
	}
	return nil
}

func (c *Config) validateOutput() error {
	switch c.Output.Format {
	case "json", "yaml":
	default:
		return fmt.Errorf("output.format must be one of [json, yaml], got %q", c.Output.Format)
	}
	name := c.Output.MergedName
	if name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("output.merged_name must be a bare file name, got %q", name)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be one of [console, json], got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("logging.level must be one of [debug, info, warn, error]")
	}
	return nil
}

// filterMatchTimeout bounds backtracking on user supplied patterns.
const filterMatchTimeout = time.Second

// CompileFilter compiles a file name filter. Patterns use .NET regular
// expression syntax, so lookarounds such as (?!vanity) are allowed.
func CompileFilter(pattern string) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = filterMatchTimeout
	return re, nil
}
