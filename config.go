package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/utilitywarehouse/gitlab-gogs-mirror/giturl"
)

// Config holds the resolved process configuration. All values come from the
// named environment variables (via flag sources), tokens are never logged.
type Config struct {
	GitLabHost    string
	GitLabToken   string
	GitLabGroupID string

	GogsURL      string
	GogsUsername string
	GogsToken    string
	// GogsOrg is optional, empty means repositories are mirrored into the
	// personal scope of GogsUsername
	GogsOrg string

	PushgatewayURL string
}

// requiredVars maps required config fields to the environment variables an
// operator has to set, used to build actionable validation errors.
var requiredVars = []struct {
	envVar string
	value  func(*Config) string
}{
	{"GITLAB_TOKEN", func(c *Config) string { return c.GitLabToken }},
	{"GITLAB_GROUP_ID", func(c *Config) string { return c.GitLabGroupID }},
	{"GOGS_INSTANCE_URL", func(c *Config) string { return c.GogsURL }},
	{"GOGS_USERNAME", func(c *Config) string { return c.GogsUsername }},
	{"GOGS_ACCESS_TOKEN", func(c *Config) string { return c.GogsToken }},
}

func configFromCommand(c *cli.Command) (*Config, error) {
	cfg := &Config{
		GitLabHost:     c.String("gitlab-host"),
		GitLabToken:    c.String("gitlab-token"),
		GitLabGroupID:  c.String("gitlab-group-id"),
		GogsURL:        c.String("gogs-url"),
		GogsUsername:   c.String("gogs-username"),
		GogsToken:      c.String("gogs-token"),
		GogsOrg:        c.String("gogs-org"),
		PushgatewayURL: c.String("pushgateway-url"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.normalise()

	return cfg, nil
}

// validate reports every missing required variable in one error so an
// operator can fix the environment in a single pass.
func (c *Config) validate() error {
	var missing []string
	for _, rv := range requiredVars {
		if rv.value(c) == "" {
			missing = append(missing, rv.envVar)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) normalise() {
	c.GogsURL = giturl.Normalise(c.GogsURL)
	c.GitLabHost = giturl.Normalise(c.GitLabHost)
}
