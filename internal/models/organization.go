package models

// Organization is one member organization of a project.
type Organization struct {
	ID   string
	Name string
}

// Directory is the ordered list of project member organizations.
type Directory []Organization

// Names maps organization ids to display names.
func (d Directory) Names() map[string]string {
	names := make(map[string]string, len(d))
	for _, org := range d {
		names[org.ID] = org.Name
	}
	return names
}

// OrderedNames returns the display names in directory order without duplicates.
func (d Directory) OrderedNames() []string {
	seen := make(map[string]bool, len(d))
	names := make([]string, 0, len(d))
	for _, org := range d {
		if seen[org.Name] {
			continue
		}
		seen[org.Name] = true
		names = append(names, org.Name)
	}
	return names
}

// ProjectFilter narrows the filtered-projects listing.
type ProjectFilter struct {
	Category      *string `json:"category"`
	City          *string `json:"city"`
	CityArea      *string `json:"cityArea"`
	CityDistricts *string `json:"cityDistricts"`
	Status        *string `json:"status"`
}

// Project is a summary entry of the filtered-projects listing.
type Project struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status,omitempty"`
	City   string `json:"city,omitempty"`
}
