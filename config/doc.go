// Package config loads the agent configuration.
//
// Values come from a YAML file with ${VAR} expansion, or from the
// AZURE_OPENAI_* and PORT environment variables when no file is given.
// The .env and .env.user files are loaded into the environment first.
package config
