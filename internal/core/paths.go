package core

import (
	"os"
	"path/filepath"
)

const appName = "matchcolor"

type Paths struct {
	HomeDir    string
	DataDir    string
	ConfigDir  string
	LogFile    string
	StoreFile  string
	ConfigFile string
}

var defaultPaths *Paths

// NewPaths lays out the matchcolor files under homeDir
func NewPaths(homeDir string) *Paths {
	dataDir := filepath.Join(homeDir, ".local", "share", appName)
	configDir := filepath.Join(homeDir, ".config", appName)

	return &Paths{
		HomeDir:    homeDir,
		DataDir:    dataDir,
		ConfigDir:  configDir,
		LogFile:    filepath.Join(dataDir, appName+".log"),
		StoreFile:  filepath.Join(dataDir, appName+".db"),
		ConfigFile: filepath.Join(configDir, "config.yaml"),
	}
}

func ensureDefaultPaths() {
	if defaultPaths == nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			panic(err)
		}

		defaultPaths = NewPaths(homeDir)

		err = os.MkdirAll(defaultPaths.DataDir, 0755)
		if err != nil {
			panic(err)
		}
	}
}

func HomeDir() string {
	ensureDefaultPaths()
	return defaultPaths.HomeDir
}

func DataDir() string {
	ensureDefaultPaths()
	return defaultPaths.DataDir
}

func LogFile() string {
	ensureDefaultPaths()
	return defaultPaths.LogFile
}

func StoreFile() string {
	ensureDefaultPaths()
	return defaultPaths.StoreFile
}

func ConfigFile() string {
	ensureDefaultPaths()
	return defaultPaths.ConfigFile
}
