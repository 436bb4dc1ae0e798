// Package settings is the persisted key/value configuration store backed by
// a viper config file under $HOME/.flowsmith. Environment variables override
// file values on reads; writes go to the file.
package settings

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/flowsmith/flowsmith/pkg/domain"
)

const (
	configDirName  = ".flowsmith"
	configFileName = "config.yaml"
)

// Store implements domain.SettingsStore on a single yaml file.
type Store struct {
	mu    sync.Mutex
	viper *viper.Viper
	path  string
}

// NewStore opens (or prepares) the settings file. A missing file is not an
// error; it is created on first Set.
func NewStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}

	return NewStoreAt(filepath.Join(home, configDirName, configFileName))
}

// NewStoreAt opens the settings file at an explicit path.
func NewStoreAt(path string) (*Store, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return nil, fmt.Errorf("error reading settings file: %w", err)
			}
		}
		log.Debug().Str("path", path).Msg("settings file not found, starting empty")
	}

	return &Store{viper: v, path: path}, nil
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.viper.IsSet(key) {
		return "", domain.ErrSettingNotFound
	}

	return s.viper.GetString(key), nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.viper.Set(key, value)

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	if err := s.viper.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	return nil
}

func (s *Store) GetAll(ctx context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := map[string]string{}
	for _, key := range s.viper.AllKeys() {
		all[key] = s.viper.GetString(key)
	}

	return all, nil
}
