package main

import (
	"sync"

	"dropsort/internal/config"
)

// commandContext lazily loads configuration once per invocation and shares it
// across subcommands.
type commandContext struct {
	configFlag *string

	mu     sync.Mutex
	cfg    *config.Config
	path   string
	exists bool
	loaded bool
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return c.cfg, nil
	}

	flag := ""
	if c.configFlag != nil {
		flag = *c.configFlag
	}
	cfg, path, exists, err := config.Load(flag)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	c.path = path
	c.exists = exists
	c.loaded = true
	return cfg, nil
}

func (c *commandContext) configPath() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.path
}

func (c *commandContext) configExists() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exists
}
