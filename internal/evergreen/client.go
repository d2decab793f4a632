// Package evergreen is a minimal client for the evergreen REST v2 API.
package evergreen

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/armadaproject/perftools/internal/common/fetch"
	"github.com/armadaproject/perftools/internal/common/logging"
)

// API is the part of evergreen used to find the tasks of a workload.
type API interface {
	BuildsByVersion(ctx context.Context, versionID string) ([]Build, error)
	TaskByID(ctx context.Context, taskID string) (*Task, error)
}

type Client struct {
	baseURL string
	http    *fetch.Client
}

// NewClient returns a client for the API at baseURL (e.g. https://evergreen.mongodb.com/rest/v2).
func NewClient(baseURL, user, apiKey string, options fetch.Options) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    fetch.NewClient(options, map[string]string{"Api-User": user, "Api-Key": apiKey}),
	}
}

// BuildsByVersion returns the builds of a version or patch.
func (c *Client) BuildsByVersion(ctx context.Context, versionID string) ([]Build, error) {
	var builds []Build
	endpoint := fmt.Sprintf("%s/versions/%s/builds", c.baseURL, url.PathEscape(versionID))
	if err := c.http.GetJSON(ctx, endpoint, &builds); err != nil {
		return nil, err
	}
	logging.WithField("version", versionID).Debugf("Found %d builds", len(builds))
	return builds, nil
}

// TaskByID returns a task including all of its previous executions.
func (c *Client) TaskByID(ctx context.Context, taskID string) (*Task, error) {
	task := &Task{}
	endpoint := fmt.Sprintf("%s/tasks/%s?fetch_all_executions=true", c.baseURL, url.PathEscape(taskID))
	if err := c.http.GetJSON(ctx, endpoint, task); err != nil {
		return nil, err
	}
	return task, nil
}
