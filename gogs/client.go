// Package gogs is a minimal client for the parts of the Gogs v1 API needed
// to reconcile mirrored repositories: repository existence checks, idempotent
// repository creation and authenticated clone URL construction.
//
// Repositories are owned either by a named organization or by the
// authenticated user. The scope is fixed when the client is created and every
// request uses the matching path form, never a mix of both.
package gogs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/utilitywarehouse/gitlab-gogs-mirror/giturl"
)

const (
	apiRoot = "/api/v1"

	// fixed upper bound for pure API calls, git transfers are not subject to it
	requestTimeout = 30 * time.Second
)

// ErrOrgNotFound indicates the configured destination organization does not
// exist or is not accessible with the configured token. It is a configuration
// error, not a per-repository failure, and callers treat it as fatal.
var ErrOrgNotFound = errors.New("organization not found")

// Repository is the subset of the Gogs repository object this tool reads.
type Repository struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Private  bool   `json:"private"`
	CloneURL string `json:"clone_url"`
}

type createRepoRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Private     bool   `json:"private"`
}

// Client talks to one Gogs instance with a static token.
type Client struct {
	baseURL  string
	username string
	token    string
	org      string // empty means personal scope
	client   *http.Client
	log      *slog.Logger
}

// NewClient creates a Gogs API client. If org is non-empty all repository
// operations are scoped to that organization, otherwise to the user.
func NewClient(baseURL, username, token, org string, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		baseURL:  giturl.Normalise(baseURL),
		username: username,
		token:    token,
		org:      org,
		client:   &http.Client{Timeout: requestTimeout},
		log:      log,
	}
}

// owner returns the path segment owning mirrored repositories.
func (c *Client) owner() string {
	if c.org != "" {
		return c.org
	}
	return c.username
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("unable to encode request body err:%w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiRoot+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("unable to create request err:%w", err)
	}
	req.Header.Set("Authorization", "token "+c.token)
	req.Header.Set("Content-Type", "application/json")

	return c.client.Do(req)
}

// apiError drains the response body into an error carrying enough context to
// diagnose the failed call.
func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return fmt.Errorf("gogs api request failed status:%d body:%q", resp.StatusCode, body)
}

// RepoExists reports whether a repository of the given name already exists in
// the configured scope. A 404 response means absent, any other non-200
// response is returned as an error.
func (c *Client) RepoExists(ctx context.Context, name string) (bool, error) {
	endpoint := fmt.Sprintf("/repos/%s/%s", c.owner(), name)

	resp, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("unable to check repo %s err:%w", name, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, apiError(resp)
	}
}

// CreateRepo creates a repository in the configured scope. A 409 conflict
// means the repository already exists and is treated as success with a
// minimal Repository, so an exists/create race cannot fail the transfer.
// A 404 while an organization is configured wraps ErrOrgNotFound.
func (c *Client) CreateRepo(ctx context.Context, name, description string, private bool) (*Repository, error) {
	var endpoint string
	if c.org != "" {
		// Gogs uses the singular 'org' path form for creation
		endpoint = fmt.Sprintf("/org/%s/repos", c.org)
		c.log.Info("creating repository in organization", "repo", name, "org", c.org)
	} else {
		endpoint = "/user/repos"
		c.log.Info("creating repository for user", "repo", name, "user", c.username)
	}

	resp, err := c.do(ctx, http.MethodPost, endpoint, createRepoRequest{
		Name:        name,
		Description: description,
		Private:     private,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create repo %s err:%w", name, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		repo := &Repository{}
		if err := json.NewDecoder(resp.Body).Decode(repo); err != nil {
			return nil, fmt.Errorf("unable to decode created repo err:%w", err)
		}
		return repo, nil
	case http.StatusConflict:
		c.log.Info("repository already exists", "repo", name)
		return &Repository{Name: name}, nil
	case http.StatusNotFound:
		if c.org != "" {
			return nil, fmt.Errorf(
				"organization %q not found or token cannot create repositories in it, verify the organization exists and the token has org repo creation permissions: %w",
				c.org, ErrOrgNotFound)
		}
		return nil, apiError(resp)
	default:
		return nil, apiError(resp)
	}
}

// VerifyOrg checks that the configured organization exists and is accessible.
// It is a no-op when no organization is configured, the personal scope of the
// authenticated user always exists.
func (c *Client) VerifyOrg(ctx context.Context) error {
	if c.org == "" {
		return nil
	}

	resp, err := c.do(ctx, http.MethodGet, "/orgs/"+c.org, nil)
	if err != nil {
		return fmt.Errorf("unable to verify organization %q err:%w", c.org, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		c.log.Info("verified organization exists", "org", c.org)
		return nil
	case http.StatusNotFound:
		return fmt.Errorf(
			"organization %q not found, create the organization first or check the organization name: %w",
			c.org, ErrOrgNotFound)
	case http.StatusForbidden:
		return fmt.Errorf(
			"access denied to organization %q, ensure the token has permission to access it",
			c.org)
	default:
		return apiError(resp)
	}
}

// CloneURL returns the authenticated push/pull endpoint of the given
// repository in the configured scope.
func (c *Client) CloneURL(name string) string {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		// baseURL is operator input validated at startup
		return ""
	}
	u.User = url.UserPassword(c.username, c.token)
	u.Path = path.Join(u.Path, c.owner(), name) + ".git"
	return u.String()
}
