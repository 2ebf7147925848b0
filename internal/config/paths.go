package config

import (
	"os"
	"path/filepath"
)

const (
	DefaultInstance = "default"
	DefaultProfile  = "default"
)

// InstancePaths contains all paths for a Luma instance.
type InstancePaths struct {
	Home        string // Instance home directory
	ConfigDB    string // SQLite configuration store path
	Bootstrap   string // Optional YAML bootstrap override file
	Logs        string // Logs directory
	ProfilesDir string // Profiles directory
}

// GetInstancePaths returns all paths for a given instance.
// Empty instance name defaults to "default".
func GetInstancePaths(instanceName string) InstancePaths {
	if instanceName == "" {
		instanceName = DefaultInstance
	}

	instanceDir := filepath.Join(GetLumaHome(), "instances", instanceName)

	return InstancePaths{
		Home:        instanceDir,
		ConfigDB:    filepath.Join(instanceDir, "config.db"),
		Bootstrap:   filepath.Join(GetLumaHome(), "bootstrap.yaml"),
		Logs:        filepath.Join(instanceDir, "logs"),
		ProfilesDir: filepath.Join(instanceDir, "profiles"),
	}
}

// GetLumaHome returns the Luma home directory (~/.luma).
func GetLumaHome() string {
	userHome, _ := os.UserHomeDir()
	return filepath.Join(userHome, ".luma")
}

// EnsureInstanceDirs creates the directory structure for the given instance
// if it does not exist.
func EnsureInstanceDirs(instanceName string) (InstancePaths, error) {
	paths := GetInstancePaths(instanceName)

	dirs := []string{
		paths.Home,
		paths.Logs,
		paths.ProfilesDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return InstancePaths{}, err
		}
	}

	return paths, nil
}

// EnsureProfileDirs creates the profile directory for an instance/profile pair.
func EnsureProfileDirs(instanceName, profileName string) (string, error) {
	if profileName == "" {
		profileName = DefaultProfile
	}
	paths, err := EnsureInstanceDirs(instanceName)
	if err != nil {
		return "", err
	}
	profileHome := filepath.Join(paths.ProfilesDir, profileName)
	if err := os.MkdirAll(profileHome, 0o755); err != nil {
		return "", err
	}
	return profileHome, nil
}
