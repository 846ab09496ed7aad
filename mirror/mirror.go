package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/utilitywarehouse/gitlab-gogs-mirror/gitlab"
	"github.com/utilitywarehouse/gitlab-gogs-mirror/giturl"
	"github.com/utilitywarehouse/gitlab-gogs-mirror/gogs"
	"github.com/utilitywarehouse/gitlab-gogs-mirror/internal/utils"
)

// sourceTokenUser is the username gitlab expects for token authenticated
// https clones.
const sourceTokenUser = "oauth2"

var gitExecutablePath string

func init() {
	gitExecutablePath = exec.Command("git").String()
}

// Destination manages repositories on the mirror target.
// *gogs.Client satisfies it.
type Destination interface {
	RepoExists(ctx context.Context, name string) (bool, error)
	CreateRepo(ctx context.Context, name, description string, private bool) (*gogs.Repository, error)
	CloneURL(name string) string
}

// Engine transfers repositories from the source to the destination one at a
// time. Transfers are independent of each other, a failed transfer leaves no
// state behind apart from whatever refs were already pushed.
type Engine struct {
	dest        Destination
	sourceToken string
	envs        []string // envs which will be passed to git commands
	log         *slog.Logger
}

// New creates a transfer engine pushing to the given destination.
// sourceToken is embedded into source clone URLs for authentication.
func New(dest Destination, sourceToken string, envs []string, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}

	return &Engine{
		dest:        dest,
		sourceToken: sourceToken,
		envs:        envs,
		log:         log,
	}
}

// Mirror replicates the complete ref set of the given project into the
// destination. Any step's failure aborts the remaining steps and is returned
// as a single error, the scratch directory is removed on every exit path.
// Retrying is the caller's decision.
func (e *Engine) Mirror(ctx context.Context, project *gitlab.Project) (err error) {
	log := e.log.With("repo", project.Name)

	defer updateMirrorLatency(project.Name, time.Now())
	defer func() {
		recordMirror(project.Name, err == nil)
	}()

	dir, err := os.MkdirTemp("", "gitlab-gogs-mirror-*")
	if err != nil {
		return fmt.Errorf("unable to create scratch dir err:%w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			log.Error("unable to remove scratch dir", "path", dir, "err", rmErr)
		}
	}()

	srcURL, err := giturl.WithCredentials(project.HTTPURLToRepo, sourceTokenUser, e.sourceToken)
	if err != nil {
		return fmt.Errorf("unable to build source clone url err:%w", err)
	}

	log.Info("cloning from source", "url", giturl.Redact(project.HTTPURLToRepo))
	// git clone --mirror <src> <dir>
	// a mirror clone is bare and maps everything in refs/* on the remote
	// directly into refs/* locally, exactly the set a mirror push sends
	if _, err := e.runGit(ctx, log, "", "clone", "--mirror", srcURL, dir); err != nil {
		return fmt.Errorf("unable to clone source repo err:%w", err)
	}

	exists, err := e.dest.RepoExists(ctx, project.Name)
	if err != nil {
		return fmt.Errorf("unable to check destination repo err:%w", err)
	}
	if !exists {
		log.Info("creating destination repository")
		if _, err := e.dest.CreateRepo(ctx, project.Name, project.Description, !project.Public()); err != nil {
			return fmt.Errorf("unable to create destination repo err:%w", err)
		}
	}

	destURL := e.dest.CloneURL(project.Name)
	log.Info("re-pointing remote at destination", "url", giturl.Redact(destURL))

	// the mirror clone's origin points at the source, replace it rather
	// than add a second remote so re-runs against the same scratch dir
	// never accumulate remotes
	// git remote rm origin
	if _, err := e.runGit(ctx, log, dir, "remote", "rm", "origin"); err != nil {
		return fmt.Errorf("unable to remove source remote err:%w", err)
	}
	// git remote add --mirror=push origin <dest>
	if _, err := e.runGit(ctx, log, dir, "remote", "add", "--mirror=push", "origin", destURL); err != nil {
		return fmt.Errorf("unable to add destination remote err:%w", err)
	}

	log.Info("pushing to destination")
	// git push --mirror origin
	if _, err := e.runGit(ctx, log, dir, "push", "--mirror", "origin"); err != nil {
		return fmt.Errorf("unable to push to destination repo err:%w", err)
	}

	log.Info("mirror complete")
	return nil
}

func (e *Engine) runGit(ctx context.Context, log *slog.Logger, cwd string, args ...string) (string, error) {
	return utils.RunCommand(ctx, log, e.envs, cwd, gitExecutablePath, args...)
}
