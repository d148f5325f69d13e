// Package config reads tyinfer.toml, which holds defaults for the CLI
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cottand/tyinfer/internal/log"
	"github.com/pkg/errors"
)

const FileName = "tyinfer.toml"

type Config struct {
	Log   Log   `toml:"log"`
	Check Check `toml:"check"`
}

type Log struct {
	// Level is one of debug, info, warn or error
	Level string `toml:"level"`
	// Sections whose records below warn are emitted, like infer or region
	Sections []string `toml:"sections"`
}

type Check struct {
	// Parallelism bounds how many problem files are checked at once
	Parallelism int `toml:"parallelism"`
	// ReportUnresolved turns variables left unresolved into diagnostics
	ReportUnresolved bool `toml:"report_unresolved"`
}

func Default() Config {
	return Config{
		Log: Log{
			Level:    "error",
			Sections: []string{"cli"},
		},
		Check: Check{
			Parallelism:      runtime.GOMAXPROCS(0),
			ReportUnresolved: true,
		},
	}
}

// Load decodes the file at path on top of Default. Unknown keys are an
// error, so that typos do not go unnoticed
func Load(path string) (Config, error) {
	conf := Default()
	md, err := toml.DecodeFile(path, &conf)
	if err != nil {
		return Config{}, errors.Wrapf(err, "parsing %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.Errorf("%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if conf.Check.Parallelism < 1 {
		return Config{}, errors.Errorf("%s: check.parallelism must be at least 1, got %d", path, conf.Check.Parallelism)
	}
	if _, err := conf.SlogLevel(); err != nil {
		return Config{}, errors.Wrapf(err, "%s", path)
	}
	return conf, nil
}

// Find looks for tyinfer.toml in dir and then in its parents, and loads the
// first one found. If there is none, the path is empty and Default is returned
func Find(dir string) (string, Config, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", Config{}, errors.WithStack(err)
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			conf, err := Load(path)
			return path, conf, err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", Default(), nil
		}
		dir = parent
	}
}

func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, errors.Wrapf(err, "log.level")
	}
	return level, nil
}

// Apply sets up logging as c says
func (c Config) Apply() error {
	level, err := c.SlogLevel()
	if err != nil {
		return err
	}
	log.SetLevel(level)
	log.SetSections(c.Log.Sections...)
	return nil
}
