package config

import (
	"testing"

	"github.com/marmos91/storfiler/pkg/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeProvider(t *testing.T) {
	tests := []struct {
		name string
		cfg  ProviderConfig
		want gateway.Provider
	}{
		{
			name: "Directory",
			cfg:  ProviderConfig{Kind: "directory", Directory: map[string]any{"path": "/srv"}},
			want: gateway.DirectoryProvider{Path: "/srv"},
		},
		{
			name: "CloudBlob",
			cfg: ProviderConfig{Kind: "cloud_blob", CloudBlob: map[string]any{
				"account": "acct", "key": "c2VjcmV0", "container": "docs",
			}},
			want: gateway.CloudBlobProvider{Account: "acct", Key: "c2VjcmV0", Container: "docs"},
		},
		{
			name: "S3",
			cfg: ProviderConfig{Kind: "s3", S3: map[string]any{
				"bucket": "b", "region": "eu-west-1", "force_path_style": "true", "key_prefix": "in/",
			}},
			want: gateway.S3Provider{Bucket: "b", Region: "eu-west-1", ForcePathStyle: true, KeyPrefix: "in/"},
		},
		{
			name: "MemoryDefaultName",
			cfg:  ProviderConfig{Kind: "memory"},
			want: gateway.MemoryProvider{Name: "default"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeProvider(&tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeProvider_Errors(t *testing.T) {
	_, err := decodeProvider(&ProviderConfig{Kind: "cloud_blob", CloudBlob: map[string]any{"account": "a"}})
	assert.ErrorContains(t, err, "account, key and container are required")

	_, err = decodeProvider(&ProviderConfig{Kind: "s3"})
	assert.ErrorContains(t, err, "bucket is required")

	_, err = decodeProvider(&ProviderConfig{Kind: "memory", Memory: map[string]any{"nmae": "x"}})
	assert.ErrorContains(t, err, "nmae")

	_, err = decodeProvider(&ProviderConfig{Kind: "ftp"})
	assert.ErrorContains(t, err, "unknown provider kind")
}

func TestBuildCatalog_Default(t *testing.T) {
	cat, err := BuildCatalog(GetDefaultConfig())
	require.NoError(t, err)

	r, ok := cat.Resource("files")
	require.True(t, ok)
	require.Len(t, r.Methods, 6)
	assert.Equal(t, gateway.ActionList, r.Methods[0].Action)
	assert.True(t, r.Methods[0].Recursive)
	assert.Equal(t, "{fileName}*", r.Methods[5].Pattern)

	require.NotNil(t, r.Endpoint)
	assert.Equal(t, "/", r.Endpoint.Path)
	assert.IsType(t, gateway.DirectoryProvider{}, r.Endpoint.Provider)
}

func TestBuildCatalog_EndpointInheritance(t *testing.T) {
	fullPath := true
	cfg := &Config{Resources: []ResourceConfig{{
		Name:     "reports",
		Provider: &ProviderConfig{Kind: "memory", Memory: map[string]any{"name": "primary"}},
		EndpointSet: EndpointSet{
			ReadEndpoint: &EndpointConfig{Path: "/daily", IsRegex: true},
		},
		Methods: []MethodConfig{
			{Verb: "GET", Path: "/", Action: "list"},
			{
				Verb:       "POST",
				Path:       "/",
				Action:     "Add",
				IsFullPath: &fullPath,
				EndpointSet: EndpointSet{WriteEndpoints: []EndpointConfig{
					{Path: "/inbox"},
					{Path: "/", Provider: &ProviderConfig{Kind: "memory", Memory: map[string]any{"name": "mirror"}}},
				}},
			},
		},
	}}}

	cat, err := BuildCatalog(cfg)
	require.NoError(t, err)

	r, _ := cat.Resource("reports")
	require.NotNil(t, r.ReadEndpoint)
	assert.True(t, r.ReadEndpoint.IsRegex)
	assert.Equal(t, gateway.MemoryProvider{Name: "primary"}, r.ReadEndpoint.Provider)

	add := r.Methods[1]
	require.Len(t, add.WriteEndpoints, 2)
	assert.Equal(t, gateway.MemoryProvider{Name: "primary"}, add.WriteEndpoints[0].Provider)
	assert.Equal(t, gateway.MemoryProvider{Name: "mirror"}, add.WriteEndpoints[1].Provider)

	require.NotNil(t, add.IsFullPath)
	assert.True(t, *add.IsFullPath)
	fullPath = false
	assert.True(t, *add.IsFullPath, "catalog must not alias the config's flag")
}

func TestBuildCatalog_UnresolvableMethod(t *testing.T) {
	cfg := &Config{Resources: []ResourceConfig{{
		Name: "orphans",
		Methods: []MethodConfig{
			{Verb: "GET", Path: "/", Action: "List"},
		},
	}}}

	_, err := BuildCatalog(cfg)
	require.Error(t, err)

	var cfgErr *gateway.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "orphans", cfgErr.Resource)
}
