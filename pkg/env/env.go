package env

import (
	"os"
	"path/filepath"
)

// GetConfigDir returns the user config directory for binfetch
// (~/.config/binfetch unless XDG_CONFIG_HOME overrides it).
func GetConfigDir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "binfetch"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "binfetch"), nil
}

// GetDataDir returns the user data directory for binfetch
// (~/.local/share/binfetch unless XDG_DATA_HOME overrides it).
func GetDataDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "binfetch"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "binfetch"), nil
}

// GetBinDir returns the default directory binaries are installed into.
func GetBinDir() (string, error) {
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "bin"), nil
}

// ReceiptsDBPath returns the path of the install receipts database.
func ReceiptsDBPath() (string, error) {
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "receipts.db"), nil
}

// DefaultManifestPath returns the manifest location used when no
// --manifest flag is given: ./binfetch.toml when present, otherwise the
// one in the config directory.
func DefaultManifestPath() string {
	if _, err := os.Stat("binfetch.toml"); err == nil {
		return "binfetch.toml"
	}
	configDir, err := GetConfigDir()
	if err != nil {
		return "binfetch.toml"
	}
	return filepath.Join(configDir, "binfetch.toml")
}

// ExpandPath expands ~ to home directory and environment variables in a path.
// Examples:
//   - "~/.config" -> "/home/user/.config"
//   - "$HOME/bin" -> "/home/user/bin"
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			if len(path) == 1 {
				return home
			}
			if path[1] == '/' {
				return filepath.Join(home, path[2:])
			}
		}
	}
	return os.ExpandEnv(path)
}
