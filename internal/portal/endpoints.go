package portal

import (
	"net/url"
	"sort"
	"strings"
)

const projectIDPlaceholder = "{projectId}"

// Endpoint describes one record listing of the portal API.
type Endpoint struct {
	// Query holds fixed query parameters.
	Query url.Values
	Name  string
	// Path may contain {projectId}.
	Path string
	// ProjectParam names the query parameter carrying the project id, if any.
	ProjectParam string
	// ItemsField names the array holding the records when the response is an object.
	ItemsField string
	// Referer is the portal page that normally issues the request.
	Referer string
}

var endpoints = []Endpoint{
	{
		Name:         "inspections",
		Path:         "/api/sk-service/v2/inspections",
		ProjectParam: "projectId",
		Referer:      "/projects/{projectId}/buildControl/inspections",
	},
	{
		Name:         "remarks",
		Path:         "/api/sk-service/v2/remarks",
		ProjectParam: "projectId",
		Referer:      "/projects/{projectId}/buildControl/remarks",
	},
	{
		Name:         "executive-schemes",
		Path:         "/api/itd-service/executive-scheme/allMinimal",
		ProjectParam: "projectId",
	},
	{
		Name:         "itd-sets",
		Path:         "/api/itd-service/itds/sets",
		ProjectParam: "projectId",
	},
	{
		Name:         "tasks",
		Path:         "/api/itd-service/tasks",
		ProjectParam: "projectId",
	},
	{
		Name: "materials",
		Path: "/api/itd-service/material/projects/{projectId}/allMinimal",
	},
	{
		Name:  "general-journal",
		Path:  "/api/itd-service/general-journal/project/{projectId}/allInfo",
		Query: url.Values{"isActual": {"true"}},
	},
	{
		Name:       "journal-materials",
		Path:       "/api/itd-service/general-journal/project/{projectId}/materials-info",
		ItemsField: "materials",
	},
	{
		Name:       "journal-documents",
		Path:       "/api/itd-service/general-journal/project/{projectId}/documents-info",
		ItemsField: "itdDocuments",
	},
	{
		Name: "unit-measures",
		Path: "/api/catalog-service/unit-measures/projects/{projectId}",
	},
	{
		Name:    "work-types",
		Path:    "/api/catalog-service/work-types/projects/{projectId}",
		Referer: "/projects/{projectId}/itd/general-journal-three",
	},
	{
		Name: "organizations",
		Path: "/api/project-service/organizations/members/{projectId}",
	},
}

// Lookup returns the catalog entry with the given name.
func Lookup(name string) (Endpoint, bool) {
	for _, ep := range endpoints {
		if ep.Name == name {
			return ep, true
		}
	}
	return Endpoint{}, false
}

// EndpointNames returns the catalog names in alphabetical order.
func EndpointNames() []string {
	names := make([]string, 0, len(endpoints))
	for _, ep := range endpoints {
		names = append(names, ep.Name)
	}
	sort.Strings(names)
	return names
}

// URL builds the request URL for projectID. Parameters in extra override the
// fixed ones.
func (e Endpoint) URL(baseURL, projectID string, extra url.Values) string {
	query := url.Values{}
	for k, v := range e.Query {
		query[k] = append([]string(nil), v...)
	}
	if e.ProjectParam != "" {
		query.Set(e.ProjectParam, projectID)
	}
	for k, v := range extra {
		query[k] = append([]string(nil), v...)
	}

	u := baseURL + expandProject(e.Path, projectID)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (e Endpoint) referer(baseURL, projectID string) string {
	if e.Referer == "" {
		return ""
	}
	return baseURL + expandProject(e.Referer, projectID)
}

func expandProject(path, projectID string) string {
	return strings.ReplaceAll(path, projectIDPlaceholder, url.PathEscape(projectID))
}
