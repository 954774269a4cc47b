// Package config resolves the project configuration of a template
// customization run from multiple sources (YAML or TOML project files, a
// dotenv file, environment variables) with precedence: Environment
// variables > dotenv file > config file > Defaults. Every field always
// resolves to a non-empty value.
package config
