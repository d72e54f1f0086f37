package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

type Paths struct {
	HomeDir     string
	DataDir     string
	ConfigFile  string
	LogFile     string
	HistoryFile string
}

var defaultPaths *Paths

func ensureDefaultPaths() {
	if defaultPaths == nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			panic(err)
		}

		defaultPaths = &Paths{
			HomeDir:     homeDir,
			DataDir:     filepath.Join(homeDir, ".local", "share", "gosh"),
			ConfigFile:  filepath.Join(homeDir, ".config", "gosh", "config.yaml"),
			LogFile:     filepath.Join(homeDir, ".local", "share", "gosh", "gosh.zst"),
			HistoryFile: filepath.Join(homeDir, ".local", "share", "gosh", "history.db"),
		}

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

func ConfigFile() string {
	ensureDefaultPaths()
	return defaultPaths.ConfigFile
}

func LogFile() string {
	ensureDefaultPaths()
	return defaultPaths.LogFile
}

func HistoryFile() string {
	ensureDefaultPaths()
	return defaultPaths.HistoryFile
}

func LogDir() string {
	ensureDefaultPaths()
	return defaultPaths.DataDir
}

// RotateLogFiles removes old compressed log files to prevent unbounded
// growth. Keeps the most recent 10 files by modification time and is called
// whenever a new log sink is created.
func RotateLogFiles() error {
	ensureDefaultPaths()

	entries, err := os.ReadDir(defaultPaths.DataDir)
	if err != nil {
		return err
	}

	var logFiles []logFileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		// Match pattern: gosh.<anything>.zst
		if strings.HasPrefix(name, "gosh.") && strings.HasSuffix(name, ".zst") {
			info, err := entry.Info()
			if err != nil {
				continue
			}

			logFiles = append(logFiles, logFileInfo{
				name:    name,
				path:    filepath.Join(defaultPaths.DataDir, name),
				modTime: info.ModTime(),
			})
		}
	}

	const maxLogFiles = 10
	if len(logFiles) <= maxLogFiles {
		return nil
	}

	sort.Slice(logFiles, func(i, j int) bool {
		return logFiles[i].modTime.After(logFiles[j].modTime)
	})

	for i := maxLogFiles; i < len(logFiles); i++ {
		if err := os.Remove(logFiles[i].path); err != nil {
			return err
		}
	}

	return nil
}

type logFileInfo struct {
	name    string
	path    string
	modTime time.Time
}
