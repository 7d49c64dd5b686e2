package model

import (
	"encoding/json"
	"strings"
)

// ResourceKind is the closed set of resource types the client knows how to open
type ResourceKind int

const (
	KindUnknown ResourceKind = iota
	KindVideo
	KindDocument
	KindLink
)

// String returns the kind name
func (k ResourceKind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindDocument:
		return "document"
	case KindLink:
		return "link"
	default:
		return "unknown"
	}
}

// ParseResourceKind maps the backend's free-form type string onto a ResourceKind
func ParseResourceKind(s string) ResourceKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "video", "mp4":
		return KindVideo
	case "pdf", "document", "doc", "docx":
		return KindDocument
	case "link", "url", "enlace":
		return KindLink
	default:
		return KindUnknown
	}
}

// Resource is a file or link attached to a task
type Resource struct {
	ID       string       `json:"id"`
	FileName string       `json:"nombre_archivo,omitempty"`
	RawKind  string       `json:"tipo,omitempty"`
	Kind     ResourceKind `json:"-"`
	URL      string       `json:"url,omitempty"`
	FileURL  string       `json:"archivo_url,omitempty"`
}

// UnmarshalJSON decodes a resource and resolves its kind once
func (r *Resource) UnmarshalJSON(data []byte) error {
	type raw Resource
	var v raw
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	v.Kind = ParseResourceKind(v.RawKind)
	*r = Resource(v)
	return nil
}

// Target returns the URL to open, preferring url over archivo_url
func (r Resource) Target() string {
	if r.URL != "" {
		return r.URL
	}
	return r.FileURL
}

// Openable reports whether the resource has somewhere to go
func (r Resource) Openable() bool {
	return r.Target() != ""
}

// Label returns a display name for the resource
func (r Resource) Label() string {
	if r.FileName != "" {
		return r.FileName
	}
	return r.Kind.String()
}
