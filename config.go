package main

import (
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Config controls how modules are located and how the compiler logs.
type Config struct {
	// ModulePaths are searched for <name>.ki after the importing module's
	// own directory.
	ModulePaths []string

	// FS is the file system modules are read from. Nil means the OS.
	FS fs.FS

	Logger  *log.Logger
	Verbose bool
}

// DefaultConfig returns a config reading from the OS file system, logging
// to stderr, with module paths taken from KIRAZ_PATH.
func DefaultConfig() *Config {
	cfg := &Config{
		FS:     osFS{},
		Logger: log.New(os.Stderr, "kiraz: ", 0),
	}
	cfg.ModulePaths = splitPathList(os.Getenv("KIRAZ_PATH"))
	return cfg
}

// withDefaults fills unset fields without touching the caller's config.
func (c *Config) withDefaults() *Config {
	out := Config{}
	if c != nil {
		out = *c
	}
	if out.FS == nil {
		out.FS = osFS{}
	}
	if out.Logger == nil {
		out.Logger = log.New(io.Discard, "kiraz: ", 0)
	}
	return &out
}

// debugf logs only in verbose mode.
func (c *Config) debugf(format string, args ...any) {
	if c.Verbose {
		c.Logger.Printf(format, args...)
	}
}

func splitPathList(list string) []string {
	var paths []string
	for _, p := range strings.Split(list, string(os.PathListSeparator)) {
		if p != "" {
			paths = append(paths, filepath.Clean(p))
		}
	}
	return paths
}

// osFS opens files by their OS path. Unlike os.DirFS it accepts absolute
// and relative paths.
type osFS struct{}

func (osFS) Open(name string) (fs.File, error) {
	return os.Open(name)
}

func (osFS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}
