package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Port string

	// Document source
	DocsRoot string

	// Auth
	APIKey string

	// Cache sizing
	DocCacheCapacity  int
	AddrCacheCapacity int

	// Parse bound
	MaxHeadings int
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		DocsRoot: os.Getenv("DOCS_ROOT"),

		APIKey: os.Getenv("MDSTORE_API_KEY"),

		DocCacheCapacity:  envInt("DOC_CACHE_CAPACITY", 50),
		AddrCacheCapacity: envInt("ADDR_CACHE_CAPACITY", 500),

		MaxHeadings: envInt("MAX_HEADINGS", 1000),
	}

	if cfg.DocCacheCapacity <= 0 {
		cfg.DocCacheCapacity = 50
	}
	if cfg.AddrCacheCapacity <= 0 {
		cfg.AddrCacheCapacity = 500
	}
	if cfg.MaxHeadings <= 0 {
		cfg.MaxHeadings = 1000
	}

	return cfg
}

func (c Config) Validate() error {
	if c.DocsRoot == "" {
		return fmt.Errorf("DOCS_ROOT is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
