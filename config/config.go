// Package config loads pipeline settings from an optional YAML file with
// environment-variable overrides. Environment always wins so deployed
// credentials never have to live in a file.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProjectProfile holds the per-project settings keyed by issue key prefix.
type ProjectProfile struct {
	GlossaryFile string `yaml:"glossary_file"`
	GlossaryName string `yaml:"glossary_name"`
	StepsField   string `yaml:"steps_field"`
}

// Config is the full runtime configuration.
type Config struct {
	JiraURL      string `yaml:"jira_url"`
	JiraEmail    string `yaml:"jira_email"`
	JiraAPIToken string `yaml:"jira_api_token"`

	OpenAIAPIKey  string `yaml:"openai_api_key"`
	OpenAIBaseURL string `yaml:"openai_base_url"`
	OpenAIModel   string `yaml:"openai_model"`

	GlossaryDir  string `yaml:"glossary_dir"`
	BatchRetries int    `yaml:"batch_retries"`

	// Projects maps a project key (the part of the issue key before the
	// dash) to its profile. DefaultProject names the profile used for
	// unlisted projects.
	Projects       map[string]ProjectProfile `yaml:"projects"`
	DefaultProject string                    `yaml:"default_project"`
}

func defaults() *Config {
	return &Config{
		OpenAIBaseURL: "https://api.openai.com/v1",
		OpenAIModel:   "gpt-5.2",
		GlossaryDir:   "glossaries",
		BatchRetries:  2,
		Projects: map[string]ProjectProfile{
			"PUBG": {
				GlossaryFile: "pubg_glossary.json",
				GlossaryName: "PUBG",
				StepsField:   "customfield_10237",
			},
			"P2": {
				GlossaryFile: "pbb_glossary.json",
				GlossaryName: "PBB(Project Black Budget)",
				StepsField:   "customfield_10399",
			},
			"PAYDAY": {
				GlossaryFile: "heist_glossary.json",
				GlossaryName: "HeistRoyale",
				StepsField:   "customfield_10237",
			},
		},
		DefaultProject: "P2",
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// it exists; an empty path skips the file entirely), then environment
// variables.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// optional file
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(cfg)
	cfg.JiraURL = strings.TrimRight(cfg.JiraURL, "/")
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setIfPresent(&cfg.JiraURL, "JIRA_URL")
	setIfPresent(&cfg.JiraEmail, "JIRA_EMAIL")
	setIfPresent(&cfg.JiraAPIToken, "JIRA_API_TOKEN")
	setIfPresent(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	setIfPresent(&cfg.OpenAIBaseURL, "OPENAI_BASE_URL")
	setIfPresent(&cfg.OpenAIModel, "OPENAI_MODEL")
	setIfPresent(&cfg.GlossaryDir, "GLOSSARY_DIR")
}

func setIfPresent(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Validate checks that the credentials every translation run needs are set.
func (c *Config) Validate() error {
	var missing []string
	if c.JiraURL == "" {
		missing = append(missing, "JIRA_URL")
	}
	if c.JiraEmail == "" {
		missing = append(missing, "JIRA_EMAIL")
	}
	if c.JiraAPIToken == "" {
		missing = append(missing, "JIRA_API_TOKEN")
	}
	if c.OpenAIAPIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Profile returns the project profile for an issue key prefix, falling back
// to the default project's profile for unlisted projects.
func (c *Config) Profile(projectKey string) ProjectProfile {
	if p, ok := c.Projects[projectKey]; ok {
		return p
	}
	if p, ok := c.Projects[c.DefaultProject]; ok {
		return p
	}
	return ProjectProfile{}
}
