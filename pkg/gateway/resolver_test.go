package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ep(path string) *Endpoint {
	return &Endpoint{Path: path, Provider: MemoryProvider{Name: "m"}}
}

func paths(endpoints []*Endpoint) []string {
	out := make([]string, len(endpoints))
	for i, e := range endpoints {
		out[i] = e.Path
	}
	return out
}

func TestResolveRead(t *testing.T) {
	tests := []struct {
		name     string
		method   Method
		resource Resource
		want     []string
	}{
		{
			name:     "MethodEndpointBeatsResourceEndpoint",
			method:   Method{Endpoint: ep("/m")},
			resource: Resource{Endpoint: ep("/r")},
			want:     []string{"/m"},
		},
		{
			name:     "MethodTypedBeatsMethodGeneric",
			method:   Method{ReadEndpoint: ep("/typed"), Endpoint: ep("/generic")},
			resource: Resource{},
			want:     []string{"/typed"},
		},
		{
			name:     "ResourceTypedBeatsResourceGeneric",
			method:   Method{},
			resource: Resource{ReadEndpoint: ep("/rt"), Endpoint: ep("/rg")},
			want:     []string{"/rt"},
		},
		{
			name:     "TypedPluralWhenBothDefine",
			method:   Method{ReadEndpoints: []*Endpoint{ep("/m1"), ep("/m2")}, ReadEndpoint: ep("/single")},
			resource: Resource{ReadEndpoints: []*Endpoint{ep("/r1")}},
			want:     []string{"/m1", "/m2"},
		},
		{
			name:     "GenericPluralWhenBothDefine",
			method:   Method{Endpoints: []*Endpoint{ep("/m1"), ep("/m2")}},
			resource: Resource{Endpoints: []*Endpoint{ep("/r1")}, Endpoint: ep("/rs")},
			want:     []string{"/m1", "/m2"},
		},
		{
			name:     "SingularChainBeatsOneSidedPlural",
			method:   Method{ReadEndpoints: []*Endpoint{ep("/m1"), ep("/m2")}},
			resource: Resource{Endpoint: ep("/r")},
			want:     []string{"/r"},
		},
		{
			name:     "FallbackToResourcePlural",
			method:   Method{},
			resource: Resource{Endpoints: []*Endpoint{ep("/a"), ep("/b")}},
			want:     []string{"/a", "/b"},
		},
		{
			name:     "FallbackPrefersMethodPlural",
			method:   Method{Endpoints: []*Endpoint{ep("/m")}},
			resource: Resource{ReadEndpoints: []*Endpoint{ep("/r")}},
			want:     []string{"/m"},
		},
		{
			name:     "WriteEndpointsIgnoredForReads",
			method:   Method{WriteEndpoint: ep("/w")},
			resource: Resource{Endpoint: ep("/r")},
			want:     []string{"/r"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveRead(&tt.method, &tt.resource)
			require.NoError(t, err)
			assert.Equal(t, tt.want, paths(got))
		})
	}
}

func TestResolveWrite(t *testing.T) {
	m := &Method{Verb: "POST", Path: "/", ReadEndpoint: ep("/read")}
	r := &Resource{Name: "reports", WriteEndpoints: []*Endpoint{ep("/w1"), ep("/w2")}}

	got, err := ResolveWrite(m, r)
	require.NoError(t, err)
	assert.Equal(t, []string{"/w1", "/w2"}, paths(got))

	one, err := FindWrite(m, r)
	require.NoError(t, err)
	assert.Equal(t, "/w1", one.Path)
}

func TestResolve_NeverEmpty(t *testing.T) {
	m := &Method{Verb: "GET", Path: "/list", WriteEndpoint: ep("/w")}
	r := &Resource{Name: "reports"}

	got, err := ResolveRead(m, r)
	assert.Nil(t, got)

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "reports", cfgErr.Resource)
	assert.Equal(t, "GET /list", cfgErr.Method)

	_, err = FindRead(m, r)
	assert.ErrorAs(t, err, &cfgErr)
}

func TestFindRead(t *testing.T) {
	t.Run("SingularChain", func(t *testing.T) {
		m := &Method{ReadEndpoints: []*Endpoint{ep("/p")}}
		r := &Resource{ReadEndpoints: []*Endpoint{ep("/rp")}, Endpoint: ep("/single")}

		e, err := FindRead(m, r)
		require.NoError(t, err)
		assert.Equal(t, "/single", e.Path)
	})

	t.Run("FirstOfPlural", func(t *testing.T) {
		m := &Method{}
		r := &Resource{ReadEndpoints: []*Endpoint{ep("/first"), ep("/second")}}

		e, err := FindRead(m, r)
		require.NoError(t, err)
		assert.Equal(t, "/first", e.Path)
	})
}
