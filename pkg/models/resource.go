package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Resource kinds and display modes
const (
	ResourceURL = "url"

	DisplayIframeFull  = "iframe-100"
	DisplayIframeHalf  = "iframe-50"
	DisplayLink        = "link"
	DefaultDisplayMode = DisplayIframeFull
)

// Resource is one entry of a task's resource list
type Resource struct {
	Type        string `json:"type"`
	Value       string `json:"value"`
	DisplayMode string `json:"displayMode"`
}

func (r Resource) normalized() Resource {
	if r.Type == "" {
		r.Type = ResourceURL
	}
	if r.DisplayMode == "" {
		r.DisplayMode = DefaultDisplayMode
	}
	return r
}

// URLResource wraps a bare URL with the default display mode
func URLResource(url string) Resource {
	return Resource{Type: ResourceURL, Value: url, DisplayMode: DefaultDisplayMode}
}

// ParseResources turns a stored content_url value into the canonical list.
// Accepted shapes: empty, a bare URL, a JSON string holding an encoded array,
// an array of URL strings, an array of resource objects (mixed arrays too),
// or a single resource object. It never fails: anything unparseable that is
// a non-empty string is treated as a single URL.
func ParseResources(raw RawValue) []Resource {
	data := bytes.TrimSpace(raw)
	if len(data) == 0 || string(data) == "null" {
		return []Resource{}
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return []Resource{}
		}
		return parseResourceString(s)
	case '[':
		return parseResourceArray(data)
	case '{':
		var r Resource
		if err := json.Unmarshal(data, &r); err != nil || r.Value == "" {
			return []Resource{}
		}
		return []Resource{r.normalized()}
	default:
		return parseResourceString(string(data))
	}
}

func parseResourceString(s string) []Resource {
	s = strings.TrimSpace(s)
	if s == "" {
		return []Resource{}
	}
	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{") {
		if json.Valid([]byte(s)) {
			return ParseResources(RawValue(s))
		}
	}
	return []Resource{URLResource(s)}
}

func parseResourceArray(data []byte) []Resource {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return []Resource{}
	}
	out := make([]Resource, 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 {
			continue
		}
		switch item[0] {
		case '"':
			var s string
			if err := json.Unmarshal(item, &s); err == nil && strings.TrimSpace(s) != "" {
				out = append(out, URLResource(strings.TrimSpace(s)))
			}
		case '{':
			var r Resource
			if err := json.Unmarshal(item, &r); err == nil && r.Value != "" {
				out = append(out, r.normalized())
			}
		}
	}
	return out
}

// EncodeResources is the structured form written back to content_url
func EncodeResources(resources []Resource) (RawValue, error) {
	normalized := make([]Resource, 0, len(resources))
	for _, r := range resources {
		normalized = append(normalized, r.normalized())
	}
	data, err := json.Marshal(normalized)
	if err != nil {
		return nil, err
	}
	return RawValue(data), nil
}
