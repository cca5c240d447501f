package config

import (
	"fmt"

	"github.com/marmos91/storfiler/pkg/gateway"
	"github.com/mitchellh/mapstructure"
)

// ============================================================================
// Provider Sections
// ============================================================================

type directorySection struct {
	Path string `mapstructure:"path"`
}

type cloudBlobSection struct {
	Account   string `mapstructure:"account"`
	Key       string `mapstructure:"key"`
	Container string `mapstructure:"container"`
	Endpoint  string `mapstructure:"endpoint"`
}

type s3Section struct {
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	ForcePathStyle  bool   `mapstructure:"force_path_style"`
	KeyPrefix       string `mapstructure:"key_prefix"`
}

type memorySection struct {
	Name string `mapstructure:"name"`
}

// decodeSection decodes a kind-specific map into out, rejecting keys the
// kind does not know so typos surface at load time.
func decodeSection(section map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(section)
}

// decodeProvider turns a provider section into a typed descriptor.
func decodeProvider(cfg *ProviderConfig) (gateway.Provider, error) {
	switch gateway.ProviderKind(cfg.Kind) {
	case gateway.KindDirectory:
		var s directorySection
		if err := decodeSection(cfg.Directory, &s); err != nil {
			return nil, fmt.Errorf("directory: %w", err)
		}
		if s.Path == "" {
			return nil, fmt.Errorf("directory: path is required")
		}
		return gateway.DirectoryProvider{Path: s.Path}, nil

	case gateway.KindCloudBlob:
		var s cloudBlobSection
		if err := decodeSection(cfg.CloudBlob, &s); err != nil {
			return nil, fmt.Errorf("cloud_blob: %w", err)
		}
		if s.Account == "" || s.Key == "" || s.Container == "" {
			return nil, fmt.Errorf("cloud_blob: account, key and container are required")
		}
		return gateway.CloudBlobProvider{
			Account:   s.Account,
			Key:       s.Key,
			Container: s.Container,
			Endpoint:  s.Endpoint,
		}, nil

	case gateway.KindS3:
		var s s3Section
		if err := decodeSection(cfg.S3, &s); err != nil {
			return nil, fmt.Errorf("s3: %w", err)
		}
		if s.Bucket == "" {
			return nil, fmt.Errorf("s3: bucket is required")
		}
		if (s.AccessKeyID == "") != (s.SecretAccessKey == "") {
			return nil, fmt.Errorf("s3: access_key_id and secret_access_key must be set together")
		}
		return gateway.S3Provider{
			Region:          s.Region,
			Bucket:          s.Bucket,
			Endpoint:        s.Endpoint,
			AccessKeyID:     s.AccessKeyID,
			SecretAccessKey: s.SecretAccessKey,
			ForcePathStyle:  s.ForcePathStyle,
			KeyPrefix:       s.KeyPrefix,
		}, nil

	case gateway.KindMemory:
		var s memorySection
		if err := decodeSection(cfg.Memory, &s); err != nil {
			return nil, fmt.Errorf("memory: %w", err)
		}
		if s.Name == "" {
			s.Name = "default"
		}
		return gateway.MemoryProvider{Name: s.Name}, nil

	default:
		return nil, fmt.Errorf("unknown provider kind %q", cfg.Kind)
	}
}

// ============================================================================
// Catalog Construction
// ============================================================================

// BuildCatalog converts the resource configuration into a gateway.Catalog.
//
// Provider sections are decoded into typed descriptors and every method is
// checked to resolve at least one endpoint for its action.
//
// Returns:
//   - *gateway.Catalog: Immutable catalog ready to be served
//   - error: Decoding error or *gateway.ConfigurationError
func BuildCatalog(cfg *Config) (*gateway.Catalog, error) {
	resources := make([]*gateway.Resource, 0, len(cfg.Resources))

	for i := range cfg.Resources {
		rc := &cfg.Resources[i]
		r := &gateway.Resource{Name: rc.Name}

		if rc.Provider != nil {
			p, err := decodeProvider(rc.Provider)
			if err != nil {
				return nil, fmt.Errorf("resource %q: provider: %w", rc.Name, err)
			}
			r.Provider = p
		}

		set, err := buildEndpointSet(&rc.EndpointSet)
		if err != nil {
			return nil, fmt.Errorf("resource %q: %w", rc.Name, err)
		}
		r.Endpoint, r.Endpoints = set.Endpoint, set.Endpoints
		r.ReadEndpoint, r.ReadEndpoints = set.ReadEndpoint, set.ReadEndpoints
		r.WriteEndpoint, r.WriteEndpoints = set.WriteEndpoint, set.WriteEndpoints

		for j := range rc.Methods {
			m, err := buildMethod(&rc.Methods[j])
			if err != nil {
				return nil, fmt.Errorf("resource %q: methods[%d]: %w", rc.Name, j, err)
			}
			r.Methods = append(r.Methods, m)
		}

		resources = append(resources, r)
	}

	return gateway.NewCatalog(resources)
}

func buildMethod(mc *MethodConfig) (*gateway.Method, error) {
	action, err := gateway.ParseAction(mc.Action)
	if err != nil {
		return nil, err
	}

	m := &gateway.Method{
		Verb:      mc.Verb,
		Path:      mc.Path,
		Action:    action,
		Pattern:   mc.Pattern,
		Query:     mc.Query,
		Recursive: mc.Recursive,
	}
	if mc.IsFullPath != nil {
		v := *mc.IsFullPath
		m.IsFullPath = &v
	}

	set, err := buildEndpointSet(&mc.EndpointSet)
	if err != nil {
		return nil, err
	}
	m.Endpoint, m.Endpoints = set.Endpoint, set.Endpoints
	m.ReadEndpoint, m.ReadEndpoints = set.ReadEndpoint, set.ReadEndpoints
	m.WriteEndpoint, m.WriteEndpoints = set.WriteEndpoint, set.WriteEndpoints

	return m, nil
}

// endpointSet mirrors EndpointSet with gateway types.
type endpointSet struct {
	Endpoint, ReadEndpoint, WriteEndpoint    *gateway.Endpoint
	Endpoints, ReadEndpoints, WriteEndpoints []*gateway.Endpoint
}

func buildEndpointSet(cfg *EndpointSet) (endpointSet, error) {
	var set endpointSet
	var err error

	if set.Endpoint, err = buildEndpoint(cfg.Endpoint); err != nil {
		return set, err
	}
	if set.ReadEndpoint, err = buildEndpoint(cfg.ReadEndpoint); err != nil {
		return set, err
	}
	if set.WriteEndpoint, err = buildEndpoint(cfg.WriteEndpoint); err != nil {
		return set, err
	}
	if set.Endpoints, err = buildEndpoints(cfg.Endpoints); err != nil {
		return set, err
	}
	if set.ReadEndpoints, err = buildEndpoints(cfg.ReadEndpoints); err != nil {
		return set, err
	}
	if set.WriteEndpoints, err = buildEndpoints(cfg.WriteEndpoints); err != nil {
		return set, err
	}
	return set, nil
}

func buildEndpoint(ec *EndpointConfig) (*gateway.Endpoint, error) {
	if ec == nil {
		return nil, nil
	}

	e := &gateway.Endpoint{Path: ec.Path, IsRegex: ec.IsRegex, IsFullPath: ec.IsFullPath}
	if ec.Provider != nil {
		p, err := decodeProvider(ec.Provider)
		if err != nil {
			return nil, fmt.Errorf("endpoint %q: provider: %w", ec.Path, err)
		}
		e.Provider = p
	}
	return e, nil
}

func buildEndpoints(list []EndpointConfig) ([]*gateway.Endpoint, error) {
	if len(list) == 0 {
		return nil, nil
	}
	out := make([]*gateway.Endpoint, 0, len(list))
	for i := range list {
		e, err := buildEndpoint(&list[i])
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
