package models

import (
	"encoding/json"
	"fmt"
)

// CurrentOrganisationAttr is the user attribute holding the user's current organization id.
const CurrentOrganisationAttr = "current_organisation_id"

// User is a portal user as returned by the users service.
type User struct {
	Attributes map[string]any `json:"attributes"`
	ID         string         `json:"id"`
	Username   string         `json:"username,omitempty"`
	FirstName  string         `json:"firstName,omitempty"`
	LastName   string         `json:"lastName,omitempty"`
	Email      string         `json:"email,omitempty"`
}

// CurrentOrganisationID returns the user's current organization id.
// Keycloak may store attributes as single values or as one-element lists.
func (u *User) CurrentOrganisationID() (string, bool) {
	if u == nil || u.Attributes == nil {
		return "", false
	}
	raw, ok := u.Attributes[CurrentOrganisationAttr]
	if !ok {
		return "", false
	}
	if list, isList := raw.([]any); isList {
		if len(list) == 0 {
			return "", false
		}
		raw = list[0]
	}
	switch v := raw.(type) {
	case nil:
		return "", false
	case string:
		return v, v != ""
	case json.Number:
		return v.String(), true
	case float64:
		return fmt.Sprintf("%.0f", v), true
	default:
		return fmt.Sprint(v), true
	}
}
