package repo

import (
	"fmt"
	"strings"
)

// StatusError reports a non-2xx response from the Couchbase REST API.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("couchbase returned %s for %s", e.Status, e.URL)
}

// PermissionError reports a 403 response, surfacing the required-permission
// list the server includes in its body.
type PermissionError struct {
	URL         string
	Message     string
	Permissions []string
}

func (e *PermissionError) Error() string {
	if len(e.Permissions) == 0 {
		return fmt.Sprintf("permission denied for %s: %s", e.URL, e.Message)
	}
	return fmt.Sprintf("permission denied for %s: %s (requires %s)", e.URL, e.Message, strings.Join(e.Permissions, ", "))
}
