package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/language"
)

type Config struct {
	Port string `json:"port"`

	// Метамодель (DSL) и каталоги сообщений
	MetaDir        string `json:"metaDir"`
	MessagesDir    string `json:"messagesDir"`
	MessagesBundle string `json:"messagesBundle"`
	Namespace      string `json:"namespace"`
	DefaultLocale  string `json:"defaultLocale"`

	DBURL       string `json:"dbUrl"`
	AutoMigrate bool   `json:"autoMigrate"`

	Debug        bool `json:"debug"`
	BuildWorkers int  `json:"buildWorkers"`
}

func def() Config {
	return Config{
		Port:           "8080",
		MetaDir:        "model",
		MessagesDir:    "messages",
		MessagesBundle: "messages",
		Namespace:      "Service",
		DefaultLocale:  "en",
		DBURL:          "",
		AutoMigrate:    false,
		Debug:          false,
		BuildWorkers:   4,
	}
}

func loadJSON(path string, c *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, c); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

func getenv(k, fallback string) string {
	if v, ok := os.LookupEnv(k); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

func getenvBool(k string, fallback bool) bool {
	if v, ok := os.LookupEnv(k); ok {
		if b, ok := parseBool(v); ok {
			return b
		}
	}
	return fallback
}

func getenvInt(k string, fallback int) int {
	if v, ok := os.LookupEnv(k); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}

func parseBool(v string) (bool, bool) {
	switch strings.TrimSpace(strings.ToLower(v)) {
	case "1", "true", "yes":
		return true, true
	case "0", "false", "no":
		return false, true
	}
	return false, false
}

// Load: значения по умолчанию → JSON (если файл есть) → ENV (EDM_*) → флаги.
// Флаг -config указывает другой JSON; тогда порядок повторяется для него.
func Load(jsonPath string, args []string) (Config, error) {
	path := jsonPath
	for i, a := range args {
		a = "-" + strings.TrimLeft(a, "-")
		switch {
		case a == "-config" && i+1 < len(args):
			path = args[i+1]
		case strings.HasPrefix(a, "-config="):
			path = strings.TrimPrefix(a, "-config=")
		}
	}

	cfg := def()

	// JSON (если файл существует)
	if st, err := os.Stat(path); err == nil && !st.IsDir() {
		if err := loadJSON(path, &cfg); err != nil {
			return cfg, err
		}
	} else if path != jsonPath {
		return cfg, fmt.Errorf("config %s: not found", path)
	}

	// ENV overrides
	cfg.Port = getenv("EDM_PORT", cfg.Port)
	cfg.MetaDir = getenv("EDM_META_DIR", cfg.MetaDir)
	cfg.MessagesDir = getenv("EDM_MESSAGES_DIR", cfg.MessagesDir)
	cfg.MessagesBundle = getenv("EDM_MESSAGES_BUNDLE", cfg.MessagesBundle)
	cfg.Namespace = getenv("EDM_NAMESPACE", cfg.Namespace)
	cfg.DefaultLocale = getenv("EDM_DEFAULT_LOCALE", cfg.DefaultLocale)
	cfg.DBURL = getenv("EDM_DB_URL", cfg.DBURL)
	cfg.AutoMigrate = getenvBool("EDM_AUTO_MIGRATE", cfg.AutoMigrate)
	cfg.Debug = getenvBool("EDM_DEBUG", cfg.Debug)
	cfg.BuildWorkers = getenvInt("EDM_BUILD_WORKERS", cfg.BuildWorkers)

	// Flags overrides
	fs := flag.NewFlagSet("edm-server", flag.ContinueOnError)
	fs.String("config", path, "Path to config JSON")
	port := fs.String("port", cfg.Port, "HTTP port")
	meta := fs.String("meta", cfg.MetaDir, "Path to model DSL directory")
	msgs := fs.String("messages", cfg.MessagesDir, "Path to message catalogs")
	bundle := fs.String("messages-bundle", cfg.MessagesBundle, "Message catalog bundle name")
	ns := fs.String("namespace", cfg.Namespace, "Schema namespace")
	locale := fs.String("default-locale", cfg.DefaultLocale, "Default message locale")
	db := fs.String("db", cfg.DBURL, "Postgres URL (empty = no DDL)")
	auto := fs.String("auto-migrate", strconv.FormatBool(cfg.AutoMigrate), "Apply generated DDL on start (true/false)")
	debug := fs.Bool("debug", cfg.Debug, "Development logging")
	workers := fs.Int("build-workers", cfg.BuildWorkers, "Parallel schema build workers (0 = unlimited)")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	cfg.Port = strings.TrimSpace(*port)
	cfg.MetaDir = strings.TrimSpace(*meta)
	cfg.MessagesDir = strings.TrimSpace(*msgs)
	cfg.MessagesBundle = strings.TrimSpace(*bundle)
	cfg.Namespace = strings.TrimSpace(*ns)
	cfg.DefaultLocale = strings.TrimSpace(*locale)
	cfg.DBURL = strings.TrimSpace(*db)
	if b, ok := parseBool(*auto); ok {
		cfg.AutoMigrate = b
	} else {
		return cfg, fmt.Errorf("auto-migrate: invalid value %q", *auto)
	}
	cfg.Debug = *debug
	cfg.BuildWorkers = *workers

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	var errs []error
	if c.Namespace == "" {
		errs = append(errs, errors.New("namespace is empty"))
	}
	if c.BuildWorkers < 0 {
		errs = append(errs, fmt.Errorf("build-workers: %d < 0", c.BuildWorkers))
	}
	if _, err := language.Parse(c.DefaultLocale); err != nil {
		errs = append(errs, fmt.Errorf("default-locale %q: %w", c.DefaultLocale, err))
	}
	return errors.Join(errs...)
}

// Locale: локаль сообщений по умолчанию (после validate разбирается без ошибок).
func (c Config) Locale() language.Tag {
	tag, err := language.Parse(c.DefaultLocale)
	if err != nil {
		return language.English
	}
	return tag
}

// Addr: адрес для http-сервера.
func (c Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}
