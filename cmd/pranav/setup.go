package main

import (
	"context"

	"github.com/spf13/viper"

	"github.com/pranav-agent/pranav/pkg/agent"
	"github.com/pranav-agent/pranav/pkg/profile"
	"github.com/pranav-agent/pranav/pkg/storage"
)

// storageConfigFromViper assembles the storage configuration, starting from
// the defaults and applying any config file or environment overrides.
func storageConfigFromViper() (storage.Config, error) {
	cfg, err := storage.DefaultConfig()
	if err != nil {
		return storage.Config{}, err
	}

	if backend := viper.GetString("storage.backend"); backend != "" {
		cfg.Backend = backend
	}
	if dir := viper.GetString("storage.dir"); dir != "" {
		cfg.Dir = dir
	}
	if dbFile := viper.GetString("storage.db_file"); dbFile != "" {
		cfg.DBFile = dbFile
	}
	if boltFile := viper.GetString("storage.bolt_file"); boltFile != "" {
		cfg.BoltFile = boltFile
	}
	if addr := viper.GetString("storage.redis.addr"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if password := viper.GetString("storage.redis.password"); password != "" {
		cfg.Redis.Password = password
	}
	if db := viper.GetInt("storage.redis.db"); db != 0 {
		cfg.Redis.DB = db
	}

	return cfg, nil
}

// openStorage opens the configured storage backend.
func openStorage(ctx context.Context) (storage.Backend, error) {
	cfg, err := storageConfigFromViper()
	if err != nil {
		return nil, err
	}
	return storage.Open(ctx, cfg)
}

// buildAgent constructs the agent from the configuration, applying a named
// profile on top when one is requested. Profile settings win over config
// file settings since the profile was asked for explicitly.
func buildAgent(ctx context.Context, store storage.Backend, profileName string) (*agent.Agent, error) {
	opts := []agent.Option{agent.WithStore(store)}

	if name := viper.GetString("agent.name"); name != "" {
		opts = append(opts, agent.WithName(name))
	}
	if capabilities := viper.GetStringSlice("agent.capabilities"); len(capabilities) > 0 {
		opts = append(opts, agent.WithCapabilities(capabilities...))
	}
	if config := viper.GetStringMap("agent.config"); len(config) > 0 {
		opts = append(opts, agent.WithConfig(config))
	}

	if profileName != "" {
		loader, err := profile.NewLoader()
		if err != nil {
			return nil, err
		}
		prof, err := loader.Load(ctx, profileName)
		if err != nil {
			return nil, err
		}
		opts = append(opts, prof.Options()...)
	}

	return agent.New(ctx, opts...), nil
}
