// Package catalog stores inference-model metadata records as JSON objects in
// an S3-compatible bucket, keyed by "<network_type>/<name>".
package catalog

import (
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/argo-inference/model-dashboard/util/common"
)

// NetworkTypes lists the supported network architectures.
var NetworkTypes = []string{
	"nnUNet",
	"nnUNet_v2",
	"tensorflow",
	"totalsegmentator",
	"TotalSegmentatorV2",
	"MIST",
	"vista3d",
}

// IsValidNetworkType reports whether t is a known network architecture.
func IsValidNetworkType(t string) bool {
	for _, n := range NetworkTypes {
		if n == t {
			return true
		}
	}
	return false
}

// Model is one inference-model metadata record.
type Model struct {
	Name                 string         `json:"name"`
	NetworkType          string         `json:"network_type"`
	Enabled              bool           `json:"enabled"`
	Alias                string         `json:"alias,omitempty"`
	Description          string         `json:"description,omitempty"`
	ContourNames         map[string]any `json:"contour_names,omitempty"`
	InferenceInformation map[string]any `json:"inference_information,omitempty"`
	InferenceArgs        string         `json:"inference_args,omitempty"`
	CreateDate           string         `json:"create_date,omitempty"`
	LastModifiedDate     string         `json:"last_modified_date,omitempty"`
	Version              string         `json:"version,omitempty"`
}

// Key returns the object key for the record.
func (m *Model) Key() string {
	return m.NetworkType + "/" + m.Name
}

// Normalize fills derived fields: a missing alias defaults to the model name
// and inference args are rendered from inference_information when absent.
func (m *Model) Normalize() {
	if m.Alias == "" {
		m.Alias = m.Name
	}
	if m.InferenceArgs == "" {
		m.InferenceArgs = renderInferenceArgs(m.InferenceInformation)
	}
}

// Validate checks the fields required before a record may be stored.
func (m *Model) Validate() error {
	if m.Name == "" {
		return common.NewError("model name is required")
	}
	if strings.Contains(m.Name, "/") {
		return common.NewErrorf("model name %q must not contain '/'", m.Name)
	}
	if !IsValidNetworkType(m.NetworkType) {
		return common.NewErrorf("unknown network type %q", m.NetworkType)
	}
	return nil
}

// LoadModel decodes a stored JSON record and normalizes it.
func LoadModel(data []byte) (*Model, error) {
	m := &Model{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, err
	}
	m.Normalize()
	return m, nil
}

// Bytes encodes the record for storage.
func (m *Model) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

func renderInferenceArgs(info map[string]any) string {
	raw, ok := info["inference_args"].(map[string]any)
	if !ok || len(raw) == 0 {
		return ""
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]string, 0, len(keys))
	for _, key := range keys {
		k := key
		if !strings.HasPrefix(k, "-") {
			k = "--" + k
		}
		switch v := raw[key].(type) {
		case bool:
			if v {
				args = append(args, k)
			}
		default:
			args = append(args, sprintArg(k, v))
		}
	}
	return " " + strings.Join(args, " ")
}

func sprintArg(k string, v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return k
	}
	return k + " " + strings.Trim(string(b), `"`)
}
