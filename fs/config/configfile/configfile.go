// Package configfile implements a config file loader and saver
//
// The file is INI based with one section per account, for example
//
//	[default]
//	consumer_key = ...
//	consumer_secret = ...
//	token = ...
//	token_secret = ...
//	sandbox = false
package configfile

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Unknwon/goconfig"
	"github.com/meocloud-go/meocloud/fs"
	"github.com/pkg/errors"
)

// EnvPrefix is the prefix of environment variables which override
// values read from the config file, eg MEOCLOUD_TOKEN.
const EnvPrefix = "MEOCLOUD_"

// ErrorConfigFileNotFound is returned when the config file doesn't exist
var ErrorConfigFileNotFound = errors.New("config file not found")

// DefaultPath returns the default location of the config file
func DefaultPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "meocloud", "meocloud.conf")
	}
	return ".meocloud.conf"
}

// Storage implements loading and saving config data in a simple INI
// based file.
type Storage struct {
	path      string
	mu        sync.Mutex           // to protect the following variables
	gc        *goconfig.ConfigFile // config file loaded - not thread safe
	fiModTime time.Time            // stat of the file when last loaded
	fiSize    int64                // stat of the file size
}

// New makes a Storage for the config file at path.  Call Load before
// reading anything.
func New(path string) *Storage {
	return &Storage{path: path}
}

// Path returns the path of the config file
func (s *Storage) Path() string {
	return s.path
}

// Check to see if we need to reload the config
//
// mu must be held when calling this
func (s *Storage) _check() {
	if s.path == "" {
		return
	}
	// Check to see if config file has changed since it was last loaded
	fi, err := os.Stat(s.path)
	if err != nil {
		return
	}
	// check to see if config file has changed and if it has, reload it
	if fi.ModTime().After(s.fiModTime) || fi.Size() != s.fiSize {
		fs.Debugf(nil, "Config file has changed externally - reloading")
		err := s._load()
		if err != nil {
			fs.Errorf(nil, "Failed to read config file - using previous config: %v", err)
		}
	}
}

// _load the config from permanent storage
//
// mu must be held when calling this
func (s *Storage) _load() (err error) {
	// Make sure we have a sensible default even when we error
	defer func() {
		if s.gc == nil {
			s.gc, _ = goconfig.LoadFromReader(bytes.NewReader([]byte{}))
		}
	}()

	if s.path == "" {
		return ErrorConfigFileNotFound
	}
	fd, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrorConfigFileNotFound
		}
		return err
	}
	defer fs.CheckClose(fd, &err)

	// Update s.fiModTime and s.fiSize with the current file info
	fi, err := fd.Stat()
	if err != nil {
		return err
	}
	s.fiModTime, s.fiSize = fi.ModTime(), fi.Size()

	gc, err := goconfig.LoadFromReader(fd)
	if err != nil {
		return errors.Wrapf(err, "failed to parse config file %q", s.path)
	}
	s.gc = gc
	return nil
}

// Load the config from permanent storage
func (s *Storage) Load() (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s._load()
}

// _save the config to permanent storage
//
// mu must be held when calling this
func (s *Storage) _save() (err error) {
	var buf bytes.Buffer
	if err := goconfig.SaveConfigData(s.gc, &buf); err != nil {
		return errors.Wrap(err, "failed to save config file")
	}
	if s.path == "" {
		return errors.New("failed to save config file, path is empty")
	}

	dir, name := filepath.Split(s.path)
	if dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return errors.Wrap(err, "failed to create config directory")
		}
	}
	td, err := os.CreateTemp(dir, name)
	if err != nil {
		return errors.Wrap(err, "failed to create temp file for new config")
	}
	defer func() {
		_ = td.Close()
		if err := os.Remove(td.Name()); err != nil && !os.IsNotExist(err) {
			fs.Errorf(nil, "failed to remove temp config file: %v", err)
		}
	}()

	if _, err = td.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}
	if err = td.Sync(); err != nil {
		return errors.Wrap(err, "failed to write config file to disk")
	}
	if err = td.Close(); err != nil {
		return errors.Wrap(err, "failed to close config file")
	}

	// the file holds secrets
	var fileMode os.FileMode = 0600
	info, err := os.Stat(s.path)
	if err != nil {
		fs.Debugf(nil, "Using default permissions for config file: %v", fileMode)
	} else if info.Mode() != fileMode {
		fs.Debugf(nil, "Keeping previous permissions for config file: %v", info.Mode())
		fileMode = info.Mode()
	}
	if err = os.Chmod(td.Name(), fileMode); err != nil {
		fs.Errorf(nil, "Failed to set permissions on config file: %v", err)
	}

	if err = os.Rename(td.Name(), s.path); err != nil {
		return errors.Wrapf(err, "failed to move newly written config from %s to final location", td.Name())
	}

	// Update s.fiModTime and s.fiSize with the newly written file
	if fi, err := os.Stat(s.path); err == nil {
		s.fiModTime, s.fiSize = fi.ModTime(), fi.Size()
	}
	return nil
}

// Save the config to permanent storage
func (s *Storage) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s._save()
}

// Serialize the config into a string
func (s *Storage) Serialize() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s._check()
	var buf bytes.Buffer
	if err := goconfig.SaveConfigData(s.gc, &buf); err != nil {
		return "", errors.Wrap(err, "failed to save config file")
	}

	return buf.String(), nil
}

// HasSection returns true if section exists in the config file
func (s *Storage) HasSection(section string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s._check()
	_, err := s.gc.GetSection(section)
	return err == nil
}

// DeleteSection removes the named section and all config from the
// config file
func (s *Storage) DeleteSection(section string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s._check()
	s.gc.DeleteSection(section)
}

// GetSectionList returns a slice of strings with names for all the
// sections
func (s *Storage) GetSectionList() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s._check()
	return s.gc.GetSectionList()
}

// GetKeyList returns the keys in section
func (s *Storage) GetKeyList(section string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s._check()
	return s.gc.GetKeyList(section)
}

// GetValue returns the key in section with a found flag
func (s *Storage) GetValue(section string, key string) (value string, found bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s._check()
	value, err := s.gc.GetValue(section, key)
	if err != nil {
		return "", false
	}
	return value, true
}

// SetValue sets the value under key in section
func (s *Storage) SetValue(section string, key string, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s._check()
	s.gc.SetValue(section, key, value)
}

// DeleteKey removes the key under section
func (s *Storage) DeleteKey(section string, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s._check()
	return s.gc.DeleteKey(section, key)
}

// Section returns a copy of the keys and values in section with any
// MEOCLOUD_<KEY> environment variables applied on top.
//
// A missing section is not an error if the environment supplies
// values.
func (s *Storage) Section(section string) (map[string]string, error) {
	s.mu.Lock()
	values := map[string]string{}
	s._check()
	found := false
	if s.gc != nil {
		if m, err := s.gc.GetSection(section); err == nil {
			found = true
			for k, v := range m {
				values[k] = v
			}
		}
	}
	s.mu.Unlock()

	env := envOverrides(os.Environ())
	for k, v := range env {
		values[k] = v
	}
	if !found && len(env) == 0 {
		return nil, errors.Errorf("account %q not found in config file %q", section, s.path)
	}
	return values, nil
}

// envOverrides picks the MEOCLOUD_ variables out of environ, keyed by
// the lower cased remainder of the name.
func envOverrides(environ []string) map[string]string {
	out := map[string]string{}
	for _, kv := range environ {
		if !strings.HasPrefix(kv, EnvPrefix) {
			continue
		}
		i := strings.IndexByte(kv, '=')
		if i < 0 {
			continue
		}
		key := strings.ToLower(kv[len(EnvPrefix):i])
		if key == "" || key == "config" || key == "account" {
			continue
		}
		out[key] = kv[i+1:]
	}
	return out
}
