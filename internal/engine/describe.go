package engine

import "strings"

// DisplayOptions control how outgoing service descriptions are composed.
type DisplayOptions struct {
	Prefix             string
	IncludeClusterName bool
	IncludeLabel       bool
}

// ServiceDescription builds the name a check result is filed under at the
// receiver: "{prefix} {cluster} {label} - {description}", dropping empty
// segments. With no segments at all the result is just the description.
// The composition is pure, so repeated runs file under identical names.
func ServiceDescription(description, clusterName, label string, opts DisplayOptions) string {
	segments := make([]string, 0, 3)
	if opts.Prefix != "" {
		segments = append(segments, opts.Prefix)
	}
	if opts.IncludeClusterName && clusterName != "" {
		segments = append(segments, clusterName)
	}
	if opts.IncludeLabel && label != "" {
		segments = append(segments, label)
	}
	if len(segments) == 0 {
		return description
	}
	return strings.Join(segments, " ") + " - " + description
}
