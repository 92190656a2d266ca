package posiflow

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Installation is an app installation record in the Posiflow apps registry.
type Installation struct {
	ID        string `json:"_id"`
	ProjectID string `json:"project_id"`
	AppID     string `json:"app_id"`
	CreatedAt int64  `json:"createdAt"`
}

// AppsClient talks to the apps registry, which tracks which projects have
// the connector installed. Install state is separate from connect state: a
// project can be installed without having configured a bot yet.
type AppsClient struct {
	http *resty.Client
}

func NewAppsClient(appsAPIURL string) *AppsClient {
	return &AppsClient{
		http: resty.New().SetBaseURL(appsAPIURL).SetTimeout(30 * time.Second),
	}
}

// GetInstallation returns nil without error when the app is not installed.
func (c *AppsClient) GetInstallation(ctx context.Context, projectID, appID string) (*Installation, error) {
	var installation Installation
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&installation).
		Get(fmt.Sprintf("/api/installation/%s/%s", projectID, appID))
	if err != nil {
		return nil, fmt.Errorf("failed to get installation: %w", err)
	}
	if resp.StatusCode() == 404 {
		return nil, nil
	}
	if resp.IsError() {
		return nil, fmt.Errorf("installation lookup rejected: %s", resp.Status())
	}
	if installation.ID == "" {
		return nil, nil
	}
	return &installation, nil
}

func (c *AppsClient) Install(ctx context.Context, projectID, appID string) (*Installation, error) {
	var installation Installation
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"project_id": projectID,
			"app_id":     appID,
			"createdAt":  time.Now().UnixMilli(),
		}).
		SetResult(&installation).
		Post("/api/install")
	if err != nil {
		return nil, fmt.Errorf("failed to install app: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("install rejected: %s", resp.Status())
	}
	return &installation, nil
}

func (c *AppsClient) Uninstall(ctx context.Context, projectID, appID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Delete(fmt.Sprintf("/api/uninstall/%s/%s", projectID, appID))
	if err != nil {
		return fmt.Errorf("failed to uninstall app: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("uninstall rejected: %s", resp.Status())
	}
	return nil
}
