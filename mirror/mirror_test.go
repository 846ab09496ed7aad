package mirror

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/utilitywarehouse/gitlab-gogs-mirror/gitlab"
	"github.com/utilitywarehouse/gitlab-gogs-mirror/gogs"
	"github.com/utilitywarehouse/gitlab-gogs-mirror/internal/utils"
)

// fakeDestination records calls and pushes to a local bare repository.
type fakeDestination struct {
	exists      bool
	cloneURL    string
	existsCalls int
	created     []fakeCreate
}

type fakeCreate struct {
	name        string
	description string
	private     bool
}

func (d *fakeDestination) RepoExists(_ context.Context, name string) (bool, error) {
	d.existsCalls++
	return d.exists, nil
}

func (d *fakeDestination) CreateRepo(_ context.Context, name, description string, private bool) (*gogs.Repository, error) {
	d.created = append(d.created, fakeCreate{name, description, private})
	return &gogs.Repository{Name: name}, nil
}

func (d *fakeDestination) CloneURL(name string) string {
	return d.cloneURL
}

func mustGit(t *testing.T, cwd string, args ...string) string {
	t.Helper()

	out, err := utils.RunCommand(context.Background(), slog.Default(), nil, cwd, "git", args...)
	if err != nil {
		t.Fatalf("git %v failed: %v", args, err)
	}
	return out
}

// newSourceRepo creates a local repository with a commit, a tag and a branch
// so the full ref set transfer can be verified.
func newSourceRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	mustGit(t, dir, "init", "-q")
	if err := os.WriteFile(filepath.Join(dir, "readme"), []byte("mirror me\n"), 0600); err != nil {
		t.Fatalf("unable to write file: %v", err)
	}
	mustGit(t, dir, "add", ".")
	mustGit(t, dir, "-c", "user.email=test@example.com", "-c", "user.name=test", "commit", "-q", "-m", "initial")
	mustGit(t, dir, "tag", "v1.0.0")
	mustGit(t, dir, "branch", "feature")

	return dir
}

func skipWithoutGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git executable not found")
	}
}

func TestMirror(t *testing.T) {
	skipWithoutGit(t)
	ctx := context.Background()

	src := newSourceRepo(t)
	dst := filepath.Join(t.TempDir(), "app.git")
	mustGit(t, "", "init", "-q", "--bare", dst)

	dest := &fakeDestination{cloneURL: dst}
	engine := New(dest, "", nil, slog.Default())

	project := &gitlab.Project{
		ID:                1,
		Name:              "app",
		PathWithNamespace: "platform/app",
		Description:       "demo app",
		Visibility:        "private",
		HTTPURLToRepo:     src,
	}

	if err := engine.Mirror(ctx, project); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// destination repo was created with the source description and the
	// private flag derived from visibility
	wantCreated := []fakeCreate{{name: "app", description: "demo app", private: true}}
	if diff := cmp.Diff(wantCreated, dest.created, cmp.AllowUnexported(fakeCreate{})); diff != "" {
		t.Errorf("created repos mismatch (-want +got):\n%s", diff)
	}

	// all refs (branches and tags) must be present on the destination
	srcRefs := mustGit(t, src, "show-ref")
	dstRefs := mustGit(t, dst, "show-ref")
	if diff := cmp.Diff(srcRefs, dstRefs); diff != "" {
		t.Errorf("refs mismatch (-src +dst):\n%s", diff)
	}
}

func TestMirror_Idempotent(t *testing.T) {
	skipWithoutGit(t)
	ctx := context.Background()

	src := newSourceRepo(t)
	dst := filepath.Join(t.TempDir(), "app.git")
	mustGit(t, "", "init", "-q", "--bare", dst)

	dest := &fakeDestination{cloneURL: dst}
	engine := New(dest, "", nil, slog.Default())

	project := &gitlab.Project{ID: 1, Name: "app", Visibility: "public", HTTPURLToRepo: src}

	if err := engine.Mirror(ctx, project); err != nil {
		t.Fatalf("unexpected error on first mirror: %v", err)
	}
	refsAfterFirst := mustGit(t, dst, "show-ref")

	// second run against unchanged source, repo now exists on destination
	dest.exists = true
	if err := engine.Mirror(ctx, project); err != nil {
		t.Fatalf("unexpected error on second mirror: %v", err)
	}

	if len(dest.created) != 1 {
		t.Errorf("created %d times, want 1", len(dest.created))
	}
	refsAfterSecond := mustGit(t, dst, "show-ref")
	if diff := cmp.Diff(refsAfterFirst, refsAfterSecond); diff != "" {
		t.Errorf("second mirror changed refs (-first +second):\n%s", diff)
	}
}

func TestMirror_PublicRepoCreatedPublic(t *testing.T) {
	skipWithoutGit(t)
	ctx := context.Background()

	src := newSourceRepo(t)
	dst := filepath.Join(t.TempDir(), "app.git")
	mustGit(t, "", "init", "-q", "--bare", dst)

	dest := &fakeDestination{cloneURL: dst}
	engine := New(dest, "", nil, slog.Default())

	project := &gitlab.Project{ID: 1, Name: "app", Visibility: "public", HTTPURLToRepo: src}
	if err := engine.Mirror(ctx, project); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(dest.created) != 1 || dest.created[0].private {
		t.Errorf("created = %+v, want one public repo", dest.created)
	}
}

func TestMirror_CloneFailure(t *testing.T) {
	skipWithoutGit(t)
	ctx := context.Background()

	dest := &fakeDestination{}
	engine := New(dest, "", nil, slog.Default())

	project := &gitlab.Project{
		ID:            1,
		Name:          "app",
		HTTPURLToRepo: filepath.Join(t.TempDir(), "does-not-exist"),
	}

	if err := engine.Mirror(ctx, project); err == nil {
		t.Fatal("expected error for missing source repo")
	}
	// clone failed so the destination must not have been touched
	if dest.existsCalls != 0 || len(dest.created) != 0 {
		t.Errorf("destination touched after clone failure: existsCalls=%d created=%v",
			dest.existsCalls, dest.created)
	}
}
