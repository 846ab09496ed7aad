// Package gitlab resolves the source group and enumerates the projects to be
// mirrored using the GitLab REST API.
package gitlab

import (
	"context"
	"fmt"
	"strings"

	api "gitlab.com/gitlab-org/api/client-go"
)

const perPage = 100

// Group identifies the source group, the display name is used for logging.
type Group struct {
	ID   int
	Name string
}

// Project describes one repository to replicate. It is produced here and
// read-only for downstream components.
type Project struct {
	ID                int
	Name              string
	PathWithNamespace string
	Description       string
	Visibility        string
	HTTPURLToRepo     string
}

// Public reports whether the project is publicly visible. Mirrored
// repositories of non-public projects are created private.
func (p *Project) Public() bool {
	return p.Visibility == string(api.PublicVisibility)
}

// Client wraps the GitLab API client for group and project lookups.
type Client struct {
	gl *api.Client
}

// New creates a client for the given GitLab host authenticated with the
// given personal access token. host may be given with or without a scheme.
func New(host, token string) (*Client, error) {
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}

	gl, err := api.NewClient(token, api.WithBaseURL(host))
	if err != nil {
		return nil, fmt.Errorf("unable to create gitlab client err:%w", err)
	}

	return &Client{gl: gl}, nil
}

// Group resolves the given group id or full path.
func (c *Client) Group(ctx context.Context, gid string) (*Group, error) {
	group, _, err := c.gl.Groups.GetGroup(gid, &api.GetGroupOptions{}, api.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("unable to get group %s err:%w", gid, err)
	}

	return &Group{ID: group.ID, Name: group.Name}, nil
}

// GroupProjects returns all non-archived projects of the group including
// projects in nested subgroups. The full list is materialised as the caller
// needs the exact count up front for progress reporting.
func (c *Client) GroupProjects(ctx context.Context, gid string) ([]Project, error) {
	opt := &api.ListGroupProjectsOptions{
		ListOptions:      api.ListOptions{PerPage: perPage},
		Archived:         api.Ptr(false),
		IncludeSubGroups: api.Ptr(true),
	}

	var projects []Project
	for {
		page, resp, err := c.gl.Groups.ListGroupProjects(gid, opt, api.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("unable to list projects of group %s err:%w", gid, err)
		}

		for _, p := range page {
			projects = append(projects, toProject(p))
		}

		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}

	return projects, nil
}

// Project returns full detail of the given project. The group listing may
// carry partial fields so each enumerated project is re-fetched before its
// transfer.
func (c *Client) Project(ctx context.Context, id int) (*Project, error) {
	p, _, err := c.gl.Projects.GetProject(id, &api.GetProjectOptions{}, api.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("unable to get project %d err:%w", id, err)
	}

	project := toProject(p)
	return &project, nil
}

func toProject(p *api.Project) Project {
	return Project{
		ID:                p.ID,
		Name:              p.Name,
		PathWithNamespace: p.PathWithNamespace,
		Description:       p.Description,
		Visibility:        string(p.Visibility),
		HTTPURLToRepo:     p.HTTPURLToRepo,
	}
}
