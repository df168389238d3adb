package pkg

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// Prefix returns the base name of the running executable, used to name the
// configuration and cache directories.
//
// Debugger builds ("__debug_bin1234") map to [Name] and leading dots are
// removed.
//
//nolint:gochecknoglobals
var Prefix = sync.OnceValue(
	func() string {
		id := os.Args[0]
		if exe, err := os.Executable(); err == nil {
			id = exe
		}

		id = filepath.Base(id)
		id = strings.TrimSuffix(id, filepath.Ext(id))
		id = debugBin.ReplaceAllString(id, Name)
		id = strings.TrimLeft(id, ".")

		if id == "" {
			return Name
		}

		return id
	},
)

var debugBin = regexp.MustCompile(`^__debug_bin\d*$`)

// userDir resolves a per-user directory using primary, falling back to
// fallback under the home directory and finally to the working directory.
func userDir(primary func() (string, error), fallback string) string {
	dir, err := primary()
	if err != nil {
		if home, herr := os.UserHomeDir(); herr == nil {
			dir = filepath.Join(home, fallback)
		} else if wd, werr := os.Getwd(); werr == nil {
			dir = wd
		} else {
			dir = "."
		}
	}

	return filepath.Join(dir, Prefix())
}

// ConfigDir returns the configuration directory path.
//
//nolint:gochecknoglobals
var ConfigDir = sync.OnceValue(func() string {
	return userDir(os.UserConfigDir, ".config")
})

// CacheDir returns the cache directory path used for transient files.
//
//nolint:gochecknoglobals
var CacheDir = sync.OnceValue(func() string {
	return userDir(os.UserCacheDir, ".cache")
})
