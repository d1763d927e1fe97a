package config

import (
	"os"
	"path/filepath"
)

// Paths locates hubrelay's files. Home is ~/.hubrelay unless HUBRELAY_HOME
// is set; Config may later be replaced by the --config flag.
type Paths struct {
	Home   string
	Config string
	Env    string
}

// ResolvePaths computes the default file locations.
func ResolvePaths() (Paths, error) {
	home := os.Getenv("HUBRELAY_HOME")
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		home = filepath.Join(userHome, ".hubrelay")
	}

	return Paths{
		Home:   home,
		Config: filepath.Join(home, "config.yaml"),
		Env:    filepath.Join(home, ".env"),
	}, nil
}

// EnsureConfigDir creates the directory that holds the config file. Files
// there carry credentials, so it is private to the user.
func (p Paths) EnsureConfigDir() error {
	return os.MkdirAll(filepath.Dir(p.Config), 0o700)
}
