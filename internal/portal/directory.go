package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/j-veylop/exon-report/internal/logger"
	"github.com/j-veylop/exon-report/internal/models"
	"github.com/j-veylop/exon-report/internal/table"
)

const (
	usersPath            = "/api/users-service/users/get-users"
	currentUserPath      = "/api/users-service/users/current"
	filteredProjectsPath = "/api/project-service/filtered-projects"
)

// Organizations returns the member organizations of a project keyed by
// organizationId, named by organization.shortName.
func (c *Client) Organizations(ctx context.Context, projectID string) (models.Directory, error) {
	rows, err := c.Fetch(ctx, "organizations", projectID, nil)
	if err != nil {
		return nil, err
	}

	dir := make(models.Directory, 0, len(rows))
	for i, row := range rows {
		id, ok := row.String("organizationId")
		if !ok {
			logger.Warn("skipping organization without id", "index", i)
			continue
		}
		name, ok := row.String("organization.shortName")
		if !ok {
			logger.Warn("skipping organization without short name", "organization_id", id)
			continue
		}
		dir = append(dir, models.Organization{ID: id, Name: name})
	}
	return dir, nil
}

// UsersByIDs resolves user ids in one batch request. An empty id list makes
// no request.
func (c *Client) UsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	status, body, err := c.do(ctx, http.MethodPost, c.baseURL+usersPath, ids, "")
	if err != nil {
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}
	if !isSuccess(status) {
		return nil, fmt.Errorf("user lookup failed (status %d): %s", status, snippet(body))
	}

	var users []models.User
	if err := decodeJSON(body, &users); err != nil {
		return nil, fmt.Errorf("failed to parse users: %w", err)
	}
	return users, nil
}

// CurrentUser returns the account the token belongs to.
func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	status, body, err := c.do(ctx, http.MethodGet, c.baseURL+currentUserPath, nil, c.baseURL+"/")
	if err != nil {
		return nil, fmt.Errorf("current user request failed: %w", err)
	}
	if !isSuccess(status) {
		return nil, fmt.Errorf("current user request failed (status %d): %s", status, snippet(body))
	}

	var user models.User
	if err := decodeJSON(body, &user); err != nil {
		return nil, fmt.Errorf("failed to parse current user: %w", err)
	}
	return &user, nil
}

// FilteredProjects lists the projects visible to the user. Unset filter
// fields are sent as null.
func (c *Client) FilteredProjects(ctx context.Context, filter models.ProjectFilter) ([]models.Project, error) {
	status, body, err := c.do(ctx, http.MethodPost, c.baseURL+filteredProjectsPath, filter, c.baseURL+"/projects")
	if err != nil {
		return nil, fmt.Errorf("project listing failed: %w", err)
	}
	if !isSuccess(status) {
		return nil, fmt.Errorf("project listing failed (status %d): %s", status, snippet(body))
	}

	// Paged responses wrap the list in "content".
	itemsField := ""
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '{' {
		itemsField = "content"
	}
	rows, err := table.DecodeRows(body, itemsField)
	if err != nil {
		return nil, fmt.Errorf("failed to parse projects: %w", err)
	}

	projects := make([]models.Project, 0, len(rows))
	for _, row := range rows {
		var p models.Project
		p.ID, _ = row.String("id")
		p.Name, _ = row.String("name")
		p.Status, _ = row.String("status")
		p.City, _ = row.String("city")
		projects = append(projects, p)
	}
	return projects, nil
}

func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
