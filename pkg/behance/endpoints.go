package behance

import (
	"fmt"
	"net/url"
	"strconv"
)

const (
	// BaseURL is the Behance v2 API root
	BaseURL = "https://api.behance.net/v2"

	// CredentialParam is the query parameter carrying the API key
	CredentialParam = "client_id"
)

// Endpoint labels used in logs and metrics
const (
	EndpointProjects = "projects"
	EndpointUser     = "user"
	EndpointProject  = "project"
	EndpointOther    = "other"
)

// ProjectsPath returns the path listing a user's projects
func ProjectsPath(username string) string {
	return fmt.Sprintf("/users/%s/projects", url.PathEscape(username))
}

// UserPath returns the path of a user's profile
func UserPath(username string) string {
	return "/users/" + url.PathEscape(username)
}

// ProjectPath returns the path of one project's full detail
func ProjectPath(id int64) string {
	return "/projects/" + strconv.FormatInt(id, 10)
}

// buildURL joins base and path and adds the API key to the query string.
// Any query already present on path is kept.
func buildURL(base, path, apiKey string) (string, error) {
	u, err := url.Parse(base + path)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(CredentialParam, apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
