package gateway

import (
	"fmt"
	"strings"
)

// ============================================================================
// Provider Descriptors
// ============================================================================

// ProviderKind names a storage backend family.
type ProviderKind string

const (
	KindDirectory ProviderKind = "directory"
	KindCloudBlob ProviderKind = "cloud_blob"
	KindS3        ProviderKind = "s3"
	KindMemory    ProviderKind = "memory"
)

// Provider describes where an endpoint's objects live.
//
// The set of implementations is closed: DirectoryProvider,
// CloudBlobProvider, S3Provider and MemoryProvider. Code that switches on a
// Provider handles all four.
type Provider interface {
	// Kind returns the backend family.
	Kind() ProviderKind

	// Describe returns a short, secret-free label for logs.
	Describe() string

	sealed()
}

// DirectoryProvider stores objects in a local directory tree.
type DirectoryProvider struct {
	Path string
}

// CloudBlobProvider stores objects in an Azure Blob Storage container.
type CloudBlobProvider struct {
	Account   string
	Key       string
	Container string
	Endpoint  string // optional service URL override
}

// S3Provider stores objects in an S3 (or S3-compatible) bucket.
type S3Provider struct {
	Region          string
	Bucket          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	ForcePathStyle  bool
	KeyPrefix       string
}

// MemoryProvider stores objects in a named in-process bucket.
// Buckets with the same name are shared across endpoints.
type MemoryProvider struct {
	Name string
}

func (DirectoryProvider) Kind() ProviderKind { return KindDirectory }
func (CloudBlobProvider) Kind() ProviderKind { return KindCloudBlob }
func (S3Provider) Kind() ProviderKind        { return KindS3 }
func (MemoryProvider) Kind() ProviderKind    { return KindMemory }

func (p DirectoryProvider) Describe() string { return fmt.Sprintf("directory(%s)", p.Path) }
func (p CloudBlobProvider) Describe() string {
	return fmt.Sprintf("cloud_blob(%s/%s)", p.Account, p.Container)
}
func (p S3Provider) Describe() string     { return fmt.Sprintf("s3(%s/%s)", p.Bucket, p.KeyPrefix) }
func (p MemoryProvider) Describe() string { return fmt.Sprintf("memory(%s)", p.Name) }

func (DirectoryProvider) sealed() {}
func (CloudBlobProvider) sealed() {}
func (S3Provider) sealed()        {}
func (MemoryProvider) sealed()    {}

// ============================================================================
// Endpoints, Methods and Resources
// ============================================================================

// Endpoint binds a logical path prefix to one storage provider.
type Endpoint struct {
	// Path is the logical prefix the endpoint serves under.
	Path string

	// Provider is the backend. Endpoints without one inherit the
	// resource default when the catalog is built.
	Provider Provider

	// IsFullPath means request paths are used as-is instead of being joined
	// under Path.
	IsFullPath bool

	// IsRegex enables native pattern search on directory providers.
	IsRegex bool
}

// kindOf returns the provider kind of e for metrics labels.
func kindOf(e *Endpoint) string {
	if e == nil || e.Provider == nil {
		return "unknown"
	}
	return string(e.Provider.Kind())
}

// String returns a log label for the endpoint.
func (e *Endpoint) String() string {
	if e == nil {
		return "<nil>"
	}
	if e.Provider == nil {
		return e.Path
	}
	return e.Provider.Describe() + ":" + e.Path
}

// Action is the operation a method performs.
type Action string

const (
	ActionList     Action = "List"
	ActionDownload Action = "Download"
	ActionAdd      Action = "Add"
	ActionRemove   Action = "Remove"
	ActionSearch   Action = "Search"
)

// ParseAction converts a case-insensitive action name.
func ParseAction(s string) (Action, error) {
	for _, a := range []Action{ActionList, ActionDownload, ActionAdd, ActionRemove, ActionSearch} {
		if strings.EqualFold(s, string(a)) {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// Reads reports whether the action resolves read endpoints.
func (a Action) Reads() bool {
	return a == ActionList || a == ActionDownload || a == ActionSearch
}

// Method is one routed operation of a resource.
type Method struct {
	// Verb is the upper-case HTTP verb.
	Verb string

	// Path is the route template below the resource, with {name} and
	// {*name} segments.
	Path string

	Action Action

	// Pattern is the search template; {fileName} is replaced by the term.
	Pattern string

	// Query names the query parameter carrying the path argument.
	Query string

	// IsFullPath overrides the endpoints' flag when set.
	IsFullPath *bool

	// Recursive makes List descend into nested folders.
	Recursive bool

	Endpoint       *Endpoint
	Endpoints      []*Endpoint
	ReadEndpoint   *Endpoint
	ReadEndpoints  []*Endpoint
	WriteEndpoint  *Endpoint
	WriteEndpoints []*Endpoint
}

// String identifies the method in errors and logs.
func (m *Method) String() string {
	if m == nil {
		return "<nil>"
	}
	return m.Verb + " " + m.Path
}

// fullPath reports whether request paths are used verbatim on e.
func (m *Method) fullPath(e *Endpoint) bool {
	if m.IsFullPath != nil {
		return *m.IsFullPath
	}
	return e.IsFullPath
}

// Resource is a named group of methods sharing endpoint defaults.
type Resource struct {
	Name string

	// Provider is inherited by endpoints that do not name one.
	Provider Provider

	Endpoint       *Endpoint
	Endpoints      []*Endpoint
	ReadEndpoint   *Endpoint
	ReadEndpoints  []*Endpoint
	WriteEndpoint  *Endpoint
	WriteEndpoints []*Endpoint

	Methods []*Method
}
