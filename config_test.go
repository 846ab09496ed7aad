package main

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		GitLabHost:    "gitlab.example.com",
		GitLabToken:   "glpat-test",
		GitLabGroupID: "42",
		GogsURL:       "https://gogs.example.com",
		GogsUsername:  "mirror-bot",
		GogsToken:     "s3cret",
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		wantMissing []string
	}{
		{"all-set", func(c *Config) {}, nil},
		{"org-is-optional", func(c *Config) { c.GogsOrg = "" }, nil},
		{"no-gitlab-token", func(c *Config) { c.GitLabToken = "" }, []string{"GITLAB_TOKEN"}},
		{"no-group-id", func(c *Config) { c.GitLabGroupID = "" }, []string{"GITLAB_GROUP_ID"}},
		{"no-gogs-url", func(c *Config) { c.GogsURL = "" }, []string{"GOGS_INSTANCE_URL"}},
		{"no-gogs-username", func(c *Config) { c.GogsUsername = "" }, []string{"GOGS_USERNAME"}},
		{"no-gogs-token", func(c *Config) { c.GogsToken = "" }, []string{"GOGS_ACCESS_TOKEN"}},
		{
			"all-missing-are-listed",
			func(c *Config) { *c = Config{GitLabHost: "gitlab.com"} },
			[]string{"GITLAB_TOKEN", "GITLAB_GROUP_ID", "GOGS_INSTANCE_URL", "GOGS_USERNAME", "GOGS_ACCESS_TOKEN"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.validate()
			if len(tt.wantMissing) == 0 {
				if err != nil {
					t.Fatalf("validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("validate() error = nil, want error")
			}
			for _, envVar := range tt.wantMissing {
				if !strings.Contains(err.Error(), envVar) {
					t.Errorf("validate() error %q does not mention %s", err, envVar)
				}
			}
		})
	}
}

func TestConfigNormalise(t *testing.T) {
	cfg := validConfig()
	cfg.GogsURL = "https://gogs.example.com/"
	cfg.GitLabHost = " gitlab.example.com "

	cfg.normalise()

	if cfg.GogsURL != "https://gogs.example.com" {
		t.Errorf("GogsURL = %q, want trailing slash removed", cfg.GogsURL)
	}
	if cfg.GitLabHost != "gitlab.example.com" {
		t.Errorf("GitLabHost = %q, want trimmed", cfg.GitLabHost)
	}
}
