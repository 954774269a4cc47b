package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultDatabasePort = "5432"
	databaseNamePrefix  = "proyecto_"
)

// ProjectConfig is the single resolved configuration of a customization run.
// It is built once per invocation and passed by value.
type ProjectConfig struct {
	Project      Project
	Domain       Domain
	Branding     Branding
	CloudAccount CloudAccount
	OAuth        OAuth
	Database     Database
	Email        Email
	Infra        Infra
	Environment  string
}

// Project identifies the application being customized.
type Project struct {
	Name        string `yaml:"name" toml:"name"`
	DisplayName string `yaml:"display_name" toml:"display_name"`
	Subtitle    string `yaml:"subtitle" toml:"subtitle"`
	Description string `yaml:"description" toml:"description"`
}

// Domain holds the public addresses of the deployment.
type Domain struct {
	Base      string `yaml:"base" toml:"base"`
	Subdomain string `yaml:"subdomain" toml:"subdomain"`
	BaseURL   string `yaml:"base_url" toml:"base_url"`
}

// Branding holds the visible brand name and colors.
type Branding struct {
	Name           string `yaml:"name" toml:"name"`
	PrimaryColor   string `yaml:"primary_color" toml:"primary_color"`
	SecondaryColor string `yaml:"secondary_color" toml:"secondary_color"`
}

// CloudAccount names the AWS region and account.
type CloudAccount struct {
	Region    string `yaml:"region" toml:"region"`
	AccountID string `yaml:"account_id" toml:"account_id"`
}

// OAuth holds the Google OAuth client credentials.
type OAuth struct {
	ClientID     string `yaml:"client_id" toml:"client_id"`
	ClientSecret string `yaml:"client_secret" toml:"client_secret"`
}

// Database holds the RDS connection parameters.
type Database struct {
	NameSuffix string `yaml:"name_suffix" toml:"name_suffix"`
	Host       string `yaml:"host" toml:"host"`
	User       string `yaml:"user" toml:"user"`
	Password   string `yaml:"password" toml:"password"`
	Port       string `yaml:"port" toml:"port"`
}

// Email holds the sender address of outgoing mail.
type Email struct {
	FromEmail string `yaml:"from_email" toml:"from_email"`
}

// Infra names the Terraform state backend resources.
type Infra struct {
	BackendBucket    string `yaml:"backend_bucket" toml:"backend_bucket"`
	BackendKeyPrefix string `yaml:"backend_key_prefix" toml:"backend_key_prefix"`
	LockTableName    string `yaml:"lock_table_name" toml:"lock_table_name"`
}

// DatabaseName returns the derived database identifier, e.g. proyecto_acme.
func (c ProjectConfig) DatabaseName() string {
	return databaseNamePrefix + c.Database.NameSuffix
}

// StagingURL returns the conventional staging address for the base domain.
func (c ProjectConfig) StagingURL() string {
	return "https://staging." + c.Domain.Base
}

// fileConfig is the on-disk shape of a project file. It mirrors
// ProjectConfig except that the database port may be written as a number.
type fileConfig struct {
	Project      Project      `yaml:"project" toml:"project"`
	Domain       Domain       `yaml:"domain" toml:"domain"`
	Branding     Branding     `yaml:"branding" toml:"branding"`
	CloudAccount CloudAccount `yaml:"cloud_account" toml:"cloud_account"`
	OAuth        OAuth        `yaml:"oauth" toml:"oauth"`
	Database     fileDatabase `yaml:"database" toml:"database"`
	Email        Email        `yaml:"email" toml:"email"`
	Infra        Infra        `yaml:"infra" toml:"infra"`
	Environment  string       `yaml:"environment" toml:"environment"`
}

type fileDatabase struct {
	NameSuffix string    `yaml:"name_suffix" toml:"name_suffix"`
	Host       string    `yaml:"host" toml:"host"`
	User       string    `yaml:"user" toml:"user"`
	Password   string    `yaml:"password" toml:"password"`
	Port       portValue `yaml:"port" toml:"port"`
}

// portValue accepts a TOML port given as a string or an integer. Any other
// type is treated as absent.
type portValue string

// UnmarshalTOML implements toml.Unmarshaler.
func (p *portValue) UnmarshalTOML(v any) error {
	switch value := v.(type) {
	case string:
		*p = portValue(value)
	case int64:
		*p = portValue(strconv.FormatInt(value, 10))
	default:
		*p = ""
	}
	return nil
}

func (f *fileConfig) projectConfig() ProjectConfig {
	return ProjectConfig{
		Project:      f.Project,
		Domain:       f.Domain,
		Branding:     f.Branding,
		CloudAccount: f.CloudAccount,
		OAuth:        f.OAuth,
		Database: Database{
			NameSuffix: f.Database.NameSuffix,
			Host:       f.Database.Host,
			User:       f.Database.User,
			Password:   f.Database.Password,
			Port:       string(f.Database.Port),
		},
		Email:       f.Email,
		Infra:       f.Infra,
		Environment: f.Environment,
	}
}

// LookupFunc resolves a named environment input. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// Sources names the optional inputs layered on top of the defaults.
// Precedence: Environment variables > dotenv file > config file > Defaults
type Sources struct {
	// ConfigFile is a YAML or TOML project file, selected by extension.
	ConfigFile string
	// EnvFile is a dotenv file. A missing file is only an error when
	// EnvFileRequired is set.
	EnvFile         string
	EnvFileRequired bool
	// Lookup replaces os.LookupEnv, mainly for tests.
	Lookup LookupFunc
}

// field binds one configuration value to its environment variable and default.
type field struct {
	env   string
	def   string
	ref   func(*ProjectConfig) *string
	valid func(string) bool
}

var fields = []field{
	{env: "PROJECT_NAME", def: "template-app", ref: func(c *ProjectConfig) *string { return &c.Project.Name }},
	{env: "PROJECT_DISPLAY_NAME", def: "Template App", ref: func(c *ProjectConfig) *string { return &c.Project.DisplayName }},
	{env: "PROJECT_SUBTITLE", def: "APP", ref: func(c *ProjectConfig) *string { return &c.Project.Subtitle }},
	{env: "PROJECT_DESCRIPTION", def: "Aplicación Template basada en AWS", ref: func(c *ProjectConfig) *string { return &c.Project.Description }},
	{env: "DOMAIN", def: "template.cloud-it.com.ar", ref: func(c *ProjectConfig) *string { return &c.Domain.Base }},
	{env: "SUBDOMAIN", def: "template", ref: func(c *ProjectConfig) *string { return &c.Domain.Subdomain }},
	{env: "BASE_URL", def: "https://template.cloud-it.com.ar", ref: func(c *ProjectConfig) *string { return &c.Domain.BaseURL }},
	{env: "BRAND_NAME", def: "Template", ref: func(c *ProjectConfig) *string { return &c.Branding.Name }},
	{env: "BRAND_COLOR_PRIMARY", def: "#10b981", ref: func(c *ProjectConfig) *string { return &c.Branding.PrimaryColor }},
	{env: "BRAND_COLOR_SECONDARY", def: "#6366f1", ref: func(c *ProjectConfig) *string { return &c.Branding.SecondaryColor }},
	{env: "AWS_REGION", def: "us-east-1", ref: func(c *ProjectConfig) *string { return &c.CloudAccount.Region }},
	{env: "AWS_ACCOUNT_ID", def: "000000000000", ref: func(c *ProjectConfig) *string { return &c.CloudAccount.AccountID }},
	{env: "GOOGLE_CLIENT_ID", def: "YOUR_GOOGLE_CLIENT_ID", ref: func(c *ProjectConfig) *string { return &c.OAuth.ClientID }},
	{env: "GOOGLE_CLIENT_SECRET", def: "YOUR_GOOGLE_CLIENT_SECRET", ref: func(c *ProjectConfig) *string { return &c.OAuth.ClientSecret }},
	{env: "DB_NAME_SUFFIX", def: "template", ref: func(c *ProjectConfig) *string { return &c.Database.NameSuffix }},
	{env: "DB_HOST", def: "YOUR_RDS_ENDPOINT", ref: func(c *ProjectConfig) *string { return &c.Database.Host }},
	{env: "DB_USER", def: "YOUR_DB_USER", ref: func(c *ProjectConfig) *string { return &c.Database.User }},
	{env: "DB_PASSWORD", def: "YOUR_DB_PASSWORD", ref: func(c *ProjectConfig) *string { return &c.Database.Password }},
	{env: "DB_PORT", def: defaultDatabasePort, ref: func(c *ProjectConfig) *string { return &c.Database.Port }, valid: validPort},
	{env: "FROM_EMAIL", def: "noreply@cloud-it.com.ar", ref: func(c *ProjectConfig) *string { return &c.Email.FromEmail }},
	{env: "TF_BACKEND_BUCKET", def: "terraform-state-bucket-vz26twi7", ref: func(c *ProjectConfig) *string { return &c.Infra.BackendBucket }},
	{env: "TF_BACKEND_KEY_PREFIX", def: "template-app", ref: func(c *ProjectConfig) *string { return &c.Infra.BackendKeyPrefix }},
	{env: "TF_DYNAMODB_TABLE", def: "terraform-lock-table", ref: func(c *ProjectConfig) *string { return &c.Infra.LockTableName }},
	{env: "ENVIRONMENT", def: "dev", ref: func(c *ProjectConfig) *string { return &c.Environment }},
}

// Load resolves the project configuration from all sources.
// Missing or malformed inputs fall back to defaults; only an explicitly
// requested file that cannot be read or parsed yields an error.
func Load(sources *Sources) (ProjectConfig, error) {
	cfg := Defaults()
	if sources == nil {
		sources = &Sources{}
	}

	if sources.ConfigFile != "" {
		fileCfg, err := loadFromFile(sources.ConfigFile)
		if err != nil {
			return ProjectConfig{}, fmt.Errorf("load config file: %w", err)
		}
		applyFileConfig(&cfg, fileCfg.projectConfig())
	}

	if sources.EnvFile != "" {
		values, err := loadEnvFile(sources.EnvFile, sources.EnvFileRequired)
		if err != nil {
			return ProjectConfig{}, fmt.Errorf("load env file: %w", err)
		}
		applyEnvConfig(&cfg, mapLookup(values))
	}

	lookup := sources.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	applyEnvConfig(&cfg, lookup)

	return cfg, nil
}

// FromLookup resolves every field from lookup alone, defaulting the rest.
func FromLookup(lookup LookupFunc) ProjectConfig {
	cfg := Defaults()
	applyEnvConfig(&cfg, lookup)
	return cfg
}

// Defaults returns a ProjectConfig with every field set to its default.
func Defaults() ProjectConfig {
	var cfg ProjectConfig
	for _, f := range fields {
		*f.ref(&cfg) = f.def
	}
	return cfg
}

// EnvKeys lists the recognised environment variables in declaration order.
func EnvKeys() []string {
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.env)
	}
	return keys
}

// loadFromFile decodes a YAML or TOML project file.
func loadFromFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fileCfg fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parse TOML: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension %q", filepath.Ext(path))
	}

	return &fileCfg, nil
}

// applyFileConfig copies every usable value of fileCfg onto cfg.
func applyFileConfig(cfg *ProjectConfig, fileCfg ProjectConfig) {
	for _, f := range fields {
		if value, ok := usable(f, *f.ref(&fileCfg)); ok {
			*f.ref(cfg) = value
		}
	}
}

// applyEnvConfig overrides cfg with every usable value lookup returns.
func applyEnvConfig(cfg *ProjectConfig, lookup LookupFunc) {
	for _, f := range fields {
		raw, found := lookup(f.env)
		if !found {
			continue
		}
		if value, ok := usable(f, raw); ok {
			*f.ref(cfg) = value
		}
	}
}

func loadEnvFile(path string, required bool) (map[string]string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil, nil
		}
		return nil, err
	}
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return values, nil
}

func mapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

func usable(f field, raw string) (string, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", false
	}
	if f.valid != nil && !f.valid(value) {
		return "", false
	}
	return value, true
}

func validPort(value string) bool {
	port, err := strconv.Atoi(value)
	return err == nil && port > 0 && port <= 65535
}
