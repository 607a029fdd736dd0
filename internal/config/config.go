package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/bnema/dockcatalog/internal/catalog"
	"github.com/bnema/dockcatalog/internal/identity"
	"github.com/bnema/dockcatalog/internal/links"
	"github.com/bnema/dockcatalog/internal/manifest"
	"github.com/bnema/dockcatalog/pkg/bytesize"
)

type Config struct {
	Paths    PathsConfig    `mapstructure:"paths"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Identity IdentityConfig `mapstructure:"identity"`
	Manifest ManifestConfig `mapstructure:"manifest"`
	Links    LinksConfig    `mapstructure:"links"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// PathsConfig locates the inputs and outputs of every command.
type PathsConfig struct {
	Apps      string `mapstructure:"apps"`
	Icons     string `mapstructure:"icons"`
	Manifests string `mapstructure:"manifests"`
	Catalog   string `mapstructure:"catalog"`
	Report    string `mapstructure:"report"`
	Published string `mapstructure:"published"`
	Failed    string `mapstructure:"failed"`
}

type CatalogConfig struct {
	Descriptor        string   `mapstructure:"descriptor"`
	Encoding          string   `mapstructure:"encoding"`
	FallbackEncoding  string   `mapstructure:"fallback_encoding"`
	Denylist          []string `mapstructure:"denylist"`
	Workers           int      `mapstructure:"workers"`
	IconExtension     string   `mapstructure:"icon_extension"`
	// MaxDescriptorSize caps descriptor reads, e.g. "1MB".
	MaxDescriptorSize string   `mapstructure:"max_descriptor_size"`
}

type IdentityConfig struct {
	Digits     int `mapstructure:"digits"`
	Letters    int `mapstructure:"letters"`
	MaxRetries int `mapstructure:"max_retries"`
}

type ManifestConfig struct {
	File        string   `mapstructure:"file"`
	Extension   string   `mapstructure:"extension"`
	Placeholder string   `mapstructure:"placeholder"`
	NamePrefix  string   `mapstructure:"name_prefix"`
	RemoveKeys  []string `mapstructure:"remove_keys"`
	PruneFiles  []string `mapstructure:"prune_files"`
}

// LinksConfig holds the public URL templates. Each carries exactly one "{}".
type LinksConfig struct {
	Icon     string `mapstructure:"icon"`
	Manifest string `mapstructure:"manifest"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	// MaxSize is a human-friendly size ("10MB") at which the file rotates.
	MaxSize    string `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// EnvPrefix is prepended to environment overrides, e.g. DOCKCATALOG_PATHS_APPS.
const EnvPrefix = "DOCKCATALOG"

// EnvKeyReplacer maps nested keys onto environment variable names.
func EnvKeyReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_")
}

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault("paths.apps", "Apps")
	viper.SetDefault("paths.icons", "icons")
	viper.SetDefault("paths.manifests", "docker-compose")
	viper.SetDefault("paths.catalog", "apps.json")
	viper.SetDefault("paths.report", "missing_files.log")
	viper.SetDefault("paths.published", "output.json")
	viper.SetDefault("paths.failed", "failed_apps.txt")

	viper.SetDefault("catalog.descriptor", catalog.DefaultDescriptor)
	viper.SetDefault("catalog.encoding", catalog.EncodingUTF8)
	viper.SetDefault("catalog.fallback_encoding", catalog.EncodingUTF8Sig)
	viper.SetDefault("catalog.denylist", catalog.DefaultDenylist)
	viper.SetDefault("catalog.workers", 4)
	viper.SetDefault("catalog.icon_extension", "png")
	viper.SetDefault("catalog.max_descriptor_size", "1MB")

	viper.SetDefault("identity.digits", identity.DefaultDigits)
	viper.SetDefault("identity.letters", identity.DefaultLetters)
	viper.SetDefault("identity.max_retries", identity.DefaultMaxRetries)

	viper.SetDefault("manifest.file", "docker-compose.yml")
	viper.SetDefault("manifest.extension", "yml")
	viper.SetDefault("manifest.placeholder", manifest.DefaultPlaceholder)
	viper.SetDefault("manifest.name_prefix", manifest.DefaultNamePrefix)
	viper.SetDefault("manifest.remove_keys", []string{manifest.DefaultInstallerKey})
	viper.SetDefault("manifest.prune_files", []string{"config.json", "icon.png"})

	viper.SetDefault("links.icon", "https://raw.githubusercontent.com/dockcatalog/catalog/main/icons/{}.png")
	viper.SetDefault("links.manifest", "https://raw.githubusercontent.com/dockcatalog/catalog/main/docker-compose/{}.yml")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.file", "")
	viper.SetDefault("logging.max_size", "10MB")
	viper.SetDefault("logging.max_backups", 3)
	viper.SetDefault("logging.max_age", 28)
	viper.SetDefault("logging.compress", true)
}

func Load() (*Config, error) {
	var cfg Config

	SetDefaults()

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %v", err)
	}

	cfg.Manifest.Extension = strings.TrimPrefix(cfg.Manifest.Extension, ".")
	cfg.Catalog.IconExtension = strings.TrimPrefix(cfg.Catalog.IconExtension, ".")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Debug().
		Str("apps", cfg.Paths.Apps).
		Str("catalog", cfg.Paths.Catalog).
		Msg("Configuration loaded")

	return &cfg, nil
}

// Validate checks values that would only fail later, mid-run.
func (c *Config) Validate() error {
	if c.Paths.Apps == "" {
		return fmt.Errorf("paths.apps is required")
	}
	if c.Paths.Catalog == "" {
		return fmt.Errorf("paths.catalog is required")
	}

	if err := catalog.ValidateEncoding(c.Catalog.Encoding); err != nil {
		return fmt.Errorf("catalog.encoding: %w", err)
	}
	if c.Catalog.FallbackEncoding != "" {
		if err := catalog.ValidateEncoding(c.Catalog.FallbackEncoding); err != nil {
			return fmt.Errorf("catalog.fallback_encoding: %w", err)
		}
	}
	if _, err := c.MaxDescriptorBytes(); err != nil {
		return fmt.Errorf("catalog.max_descriptor_size: %w", err)
	}
	if c.Catalog.Workers < 1 {
		return fmt.Errorf("catalog.workers must be at least 1, got %d", c.Catalog.Workers)
	}

	if c.Identity.Digits < 0 || c.Identity.Letters < 0 || c.Identity.Digits+c.Identity.Letters == 0 {
		return fmt.Errorf("identity composition must have at least one character (digits=%d, letters=%d)",
			c.Identity.Digits, c.Identity.Letters)
	}

	if c.Manifest.Placeholder == "" {
		return fmt.Errorf("manifest.placeholder cannot be empty")
	}
	if c.Manifest.Extension == "" {
		return fmt.Errorf("manifest.extension cannot be empty")
	}

	if err := c.Templates().Validate(); err != nil {
		return fmt.Errorf("links: %w", err)
	}

	if c.Logging.MaxSize != "" {
		if _, err := bytesize.Parse(c.Logging.MaxSize); err != nil {
			return fmt.Errorf("logging.max_size: %w", err)
		}
	}

	return nil
}

// MaxDescriptorBytes returns the descriptor size cap in bytes; zero means
// no cap.
func (c *Config) MaxDescriptorBytes() (int64, error) {
	if c.Catalog.MaxDescriptorSize == "" {
		return 0, nil
	}
	return bytesize.Parse(c.Catalog.MaxDescriptorSize)
}

// Templates returns the configured link templates.
func (c *Config) Templates() links.Templates {
	return links.Templates{Icon: c.Links.Icon, Manifest: c.Links.Manifest}
}

// AssemblerOptions maps the catalog section onto catalog.Options.
func (c *Config) AssemblerOptions() catalog.Options {
	// Validated by Load.
	maxSize, _ := c.MaxDescriptorBytes()
	return catalog.Options{
		Descriptor:       c.Catalog.Descriptor,
		Encoding:         c.Catalog.Encoding,
		FallbackEncoding: c.Catalog.FallbackEncoding,
		Denylist:         c.Catalog.Denylist,
		BaseDir:          c.Paths.Apps,
		Workers:          c.Catalog.Workers,
		MaxSize:          maxSize,
	}
}

// IdentityOptions maps the identity section onto identity.Options.
func (c *Config) IdentityOptions() identity.Options {
	return identity.Options{
		Digits:     c.Identity.Digits,
		Letters:    c.Identity.Letters,
		MaxRetries: c.Identity.MaxRetries,
	}
}

// NormalizerOptions maps the manifest section onto manifest.Options.
func (c *Config) NormalizerOptions() manifest.Options {
	return manifest.Options{
		Placeholder: c.Manifest.Placeholder,
		RemoveKeys:  c.Manifest.RemoveKeys,
		NamePrefix:  c.Manifest.NamePrefix,
	}
}
