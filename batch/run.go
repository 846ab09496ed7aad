// Package batch drives one full mirror pass over the configured source
// group. One broken repository must never block the rest of the group, a
// per-repository failure is recorded and iteration continues. Only
// enumeration failures and a missing destination organization abort the run.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/utilitywarehouse/gitlab-gogs-mirror/gitlab"
	"github.com/utilitywarehouse/gitlab-gogs-mirror/gogs"
)

// Source enumerates the repositories to mirror.
// *gitlab.Client satisfies it.
type Source interface {
	Group(ctx context.Context, gid string) (*gitlab.Group, error)
	GroupProjects(ctx context.Context, gid string) ([]gitlab.Project, error)
	Project(ctx context.Context, id int) (*gitlab.Project, error)
}

// Mirrorer transfers one repository.
// *mirror.Engine satisfies it.
type Mirrorer interface {
	Mirror(ctx context.Context, project *gitlab.Project) error
}

// Runner performs one sequential mirror pass over a group.
type Runner struct {
	source Source
	engine Mirrorer
	log    *slog.Logger
}

// NewRunner creates a runner mirroring projects enumerated from source
// through the given engine.
func NewRunner(source Source, engine Mirrorer, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}

	return &Runner{
		source: source,
		engine: engine,
		log:    log,
	}
}

// Run enumerates the group and mirrors every project in enumeration order,
// recording exactly one outcome per project. An enumeration failure returns
// a nil summary. A missing destination organization detected mid-run aborts
// the pass and returns the partial summary along with the error, every other
// per-project failure is contained.
func (r *Runner) Run(ctx context.Context, groupID string) (*Summary, error) {
	group, err := r.source.Group(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve group err:%w", err)
	}
	r.log.Info("resolved source group", "group", group.Name)

	projects, err := r.source.GroupProjects(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("unable to enumerate group projects err:%w", err)
	}
	r.log.Info("enumerated projects to mirror", "group", group.Name, "count", len(projects))

	summary := &Summary{}

	for i, p := range projects {
		progress := fmt.Sprintf("%03d/%03d", i+1, len(projects))

		// the group listing may carry partial fields, fetch full detail
		project, err := r.source.Project(ctx, p.ID)
		if err != nil {
			r.log.Error("unable to fetch project detail", "progress", progress, "repo", p.Name, "err", err)
			summary.RecordFailure(p.Name, err)
			continue
		}

		r.log.Info("starting mirror", "progress", progress, "repo", project.PathWithNamespace)

		if err := r.engine.Mirror(ctx, project); err != nil {
			r.log.Error("mirror failed", "progress", progress, "repo", project.Name, "err", err)
			summary.RecordFailure(project.Name, err)

			// a missing destination organization cannot heal mid-run,
			// every remaining project would fail the same way
			if errors.Is(err, gogs.ErrOrgNotFound) {
				return summary, fmt.Errorf("destination organization missing, aborting run err:%w", err)
			}
			continue
		}

		summary.RecordSuccess(project.Name)
	}

	return summary, nil
}
