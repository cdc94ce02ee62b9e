package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// PoolsResponse is the /pools/default topology document.
type PoolsResponse struct {
	ClusterName string     `json:"clusterName"`
	Nodes       []NodeInfo `json:"nodes"`
}

// NodeInfo is one node entry of the topology document. The raw document is
// retained so node rules can reference any top-level field by name.
type NodeInfo struct {
	Hostname string   `json:"hostname"`
	Services []string `json:"services"`
	ThisNode bool     `json:"thisNode"`

	raw map[string]any
}

func (n *NodeInfo) UnmarshalJSON(data []byte) error {
	type alias NodeInfo
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*n = NodeInfo(a)
	n.raw = raw
	return nil
}

// Host returns the hostname with any :port suffix stripped.
func (n NodeInfo) Host() string {
	host, _, found := strings.Cut(n.Hostname, ":")
	if !found {
		return n.Hostname
	}
	return host
}

// HasService reports whether the node advertises the given service.
func (n NodeInfo) HasService(name string) bool {
	for _, s := range n.Services {
		if s == name {
			return true
		}
	}
	return false
}

// Samples exposes the node document's scalar fields as a sample set. Node
// metrics are categorical (cluster membership, health status), so every
// field is stringified; nested objects are not addressable.
func (n NodeInfo) Samples() SampleSet {
	set := make(SampleSet, len(n.raw))
	for key, val := range n.raw {
		switch v := val.(type) {
		case string:
			set[key] = ScalarSamples(StringValue(v))
		case float64:
			set[key] = ScalarSamples(StringValue(strconv.FormatFloat(v, 'g', -1, 64)))
		case bool:
			set[key] = ScalarSamples(StringValue(strconv.FormatBool(v)))
		}
	}
	return set
}

// Task is one entry of the /pools/default/tasks document.
type Task struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Status string `json:"status"`
	Source string `json:"source"`
}

// ReplicationLabel derives the check label for a replication task. Task IDs
// look like {GUID}/{source_bucket}/{destination_bucket}.
func (t Task) ReplicationLabel() string {
	parts := strings.Split(t.ID, "/")
	if len(parts) < 3 {
		return "xdcr " + t.ID
	}
	return "xdcr " + parts[1] + "/" + parts[2]
}

// BucketInfo is one entry of the bucket enumeration document.
type BucketInfo struct {
	Name string `json:"name"`
}

// ClusterContext is the read-only topology snapshot a run operates on.
type ClusterContext struct {
	ClusterName string
	Nodes       []NodeInfo
	Tasks       []Task
}
