package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/urfave/cli/v3"

	"github.com/utilitywarehouse/gitlab-gogs-mirror/batch"
	"github.com/utilitywarehouse/gitlab-gogs-mirror/gitlab"
	"github.com/utilitywarehouse/gitlab-gogs-mirror/gogs"
	"github.com/utilitywarehouse/gitlab-gogs-mirror/mirror"
)

const metricsNamespace = "gitlab_gogs_mirror"

var (
	loggerLevel = new(slog.LevelVar)
	logger      *slog.Logger

	levelStrings = map[string]slog.Level{
		"trace": slog.Level(-8),
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}

	flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "gitlab-host",
			Sources: cli.EnvVars("GITLAB_HOST_URL"),
			Value:   "gitlab.com",
			Usage:   "Host of the source GitLab instance.",
		},
		&cli.StringFlag{
			Name:    "gitlab-token",
			Sources: cli.EnvVars("GITLAB_TOKEN"),
			Usage:   "GitLab personal access token with read access to the group.",
		},
		&cli.StringFlag{
			Name:    "gitlab-group-id",
			Sources: cli.EnvVars("GITLAB_GROUP_ID"),
			Usage:   "ID or full path of the GitLab group to mirror.",
		},
		&cli.StringFlag{
			Name:    "gogs-url",
			Sources: cli.EnvVars("GOGS_INSTANCE_URL"),
			Usage:   "Base URL of the destination Gogs instance.",
		},
		&cli.StringFlag{
			Name:    "gogs-username",
			Sources: cli.EnvVars("GOGS_USERNAME"),
			Usage:   "Gogs user owning the access token.",
		},
		&cli.StringFlag{
			Name:    "gogs-token",
			Sources: cli.EnvVars("GOGS_ACCESS_TOKEN"),
			Usage:   "Gogs access token.",
		},
		&cli.StringFlag{
			Name:    "gogs-org",
			Sources: cli.EnvVars("GOGS_ORG"),
			Usage:   "Optional Gogs organization to mirror into, empty means personal repositories.",
		},
		&cli.StringFlag{
			Name:    "pushgateway-url",
			Sources: cli.EnvVars("PUSHGATEWAY_URL"),
			Usage:   "Optional Prometheus Pushgateway to push run metrics to.",
		},
		&cli.StringFlag{
			Name:    "log-level",
			Sources: cli.EnvVars("LOG_LEVEL"),
			Value:   "info",
			Usage:   "Log level",
		},
	}
)

func init() {
	loggerLevel.Set(slog.LevelInfo)
	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: loggerLevel,
	}))
}

func main() {
	// .env files are honoured the same way exported variables would be
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:   "gitlab-gogs-mirror",
		Usage:  "gitlab-gogs-mirror replicates every repository of a gitlab group to a gogs instance.",
		Flags:  flags,
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger.Error("mirror run failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, c *cli.Command) error {
	// set log level according to argument
	if v, ok := levelStrings[strings.ToLower(c.String("log-level"))]; ok {
		loggerLevel.Set(v)
	}

	cfg, err := configFromCommand(c)
	if err != nil {
		return err
	}

	logger.Info("starting mirror run",
		"gitlab-host", cfg.GitLabHost,
		"gitlab-group-id", cfg.GitLabGroupID,
		"gogs-url", cfg.GogsURL,
		"gogs-username", cfg.GogsUsername,
		"gogs-org", cfg.GogsOrg,
	)

	source, err := gitlab.New(cfg.GitLabHost, cfg.GitLabToken)
	if err != nil {
		return err
	}

	dest := gogs.NewClient(cfg.GogsURL, cfg.GogsUsername, cfg.GogsToken, cfg.GogsOrg,
		logger.With("logger", "gogs"))

	// the organization must pre-exist, verify before any enumeration or
	// git transport activity
	if err := dest.VerifyOrg(ctx); err != nil {
		return err
	}

	mirror.EnableMetrics(metricsNamespace, prometheus.DefaultRegisterer)

	// path to resolve git
	gitENV := []string{fmt.Sprintf("PATH=%s", os.Getenv("PATH"))}

	engine := mirror.New(dest, cfg.GitLabToken, gitENV, logger.With("logger", "mirror"))

	summary, err := batch.NewRunner(source, engine, logger).Run(ctx, cfg.GitLabGroupID)
	if summary != nil {
		summary.Log(logger)
		pushMetrics(cfg.PushgatewayURL)
	}
	if err != nil {
		return err
	}

	if !summary.Ok() {
		return fmt.Errorf("%d of %d repositories failed", len(summary.Failed()), summary.Total())
	}

	logger.Info("mirror run completed successfully")
	return nil
}

// pushMetrics delivers the run's metrics to a pushgateway if one is
// configured, a one-shot process has no scrape endpoint to expose.
func pushMetrics(gatewayURL string) {
	if gatewayURL == "" {
		return
	}

	if err := push.New(gatewayURL, "gitlab-gogs-mirror").
		Gatherer(prometheus.DefaultGatherer).
		Push(); err != nil {
		logger.Error("unable to push metrics", "err", err)
	}
}
