package gateway

import (
	"fmt"
	"strings"
)

// Catalog is the immutable set of resources served by the gateway.
//
// A Catalog is built once per configuration load and never modified; a
// reload builds a new Catalog and callers swap the reference atomically.
type Catalog struct {
	resources []*Resource
	byName    map[string]*Resource
}

// NewCatalog validates resources and returns a Catalog over deep copies.
//
// Every endpoint without a provider inherits its resource's provider, and
// every method must resolve at least one endpoint for its action. Failures
// are reported as *ConfigurationError.
func NewCatalog(resources []*Resource) (*Catalog, error) {
	c := &Catalog{
		resources: make([]*Resource, 0, len(resources)),
		byName:    make(map[string]*Resource, len(resources)),
	}

	for _, r := range resources {
		if r == nil || r.Name == "" {
			return nil, &ConfigurationError{Reason: "resource name is required"}
		}
		if _, dup := c.byName[r.Name]; dup {
			return nil, &ConfigurationError{Resource: r.Name, Reason: "duplicate resource name"}
		}

		built, err := buildResource(r)
		if err != nil {
			return nil, err
		}

		c.resources = append(c.resources, built)
		c.byName[built.Name] = built
	}

	return c, nil
}

// Resources returns the resources in configuration order.
func (c *Catalog) Resources() []*Resource {
	out := make([]*Resource, len(c.resources))
	copy(out, c.resources)
	return out
}

// Resource looks a resource up by name.
func (c *Catalog) Resource(name string) (*Resource, bool) {
	r, ok := c.byName[name]
	return r, ok
}

func buildResource(src *Resource) (*Resource, error) {
	r := &Resource{Name: src.Name, Provider: src.Provider}

	inherit := func(method string, e *Endpoint) (*Endpoint, error) {
		if e == nil {
			return nil, nil
		}
		cp := *e
		if cp.Provider == nil {
			cp.Provider = src.Provider
		}
		if cp.Provider == nil {
			return nil, &ConfigurationError{
				Resource: src.Name,
				Method:   method,
				Reason:   fmt.Sprintf("endpoint %q has no provider and the resource defines none", e.Path),
			}
		}
		return &cp, nil
	}
	inheritAll := func(method string, list []*Endpoint) ([]*Endpoint, error) {
		if len(list) == 0 {
			return nil, nil
		}
		out := make([]*Endpoint, 0, len(list))
		for _, e := range list {
			if e == nil {
				continue
			}
			cp, err := inherit(method, e)
			if err != nil {
				return nil, err
			}
			out = append(out, cp)
		}
		return out, nil
	}

	var err error
	if r.Endpoint, err = inherit("", src.Endpoint); err != nil {
		return nil, err
	}
	if r.ReadEndpoint, err = inherit("", src.ReadEndpoint); err != nil {
		return nil, err
	}
	if r.WriteEndpoint, err = inherit("", src.WriteEndpoint); err != nil {
		return nil, err
	}
	if r.Endpoints, err = inheritAll("", src.Endpoints); err != nil {
		return nil, err
	}
	if r.ReadEndpoints, err = inheritAll("", src.ReadEndpoints); err != nil {
		return nil, err
	}
	if r.WriteEndpoints, err = inheritAll("", src.WriteEndpoints); err != nil {
		return nil, err
	}

	routes := make(map[string]bool, len(src.Methods))
	for _, sm := range src.Methods {
		if sm == nil {
			continue
		}

		m := *sm
		m.Verb = strings.ToUpper(m.Verb)
		name := m.String()

		action, err := ParseAction(string(m.Action))
		if err != nil {
			return nil, &ConfigurationError{Resource: r.Name, Method: name, Reason: err.Error()}
		}
		m.Action = action
		if routes[name] {
			return nil, &ConfigurationError{Resource: r.Name, Method: name, Reason: "duplicate verb and path"}
		}
		routes[name] = true

		if m.Endpoint, err = inherit(name, sm.Endpoint); err != nil {
			return nil, err
		}
		if m.ReadEndpoint, err = inherit(name, sm.ReadEndpoint); err != nil {
			return nil, err
		}
		if m.WriteEndpoint, err = inherit(name, sm.WriteEndpoint); err != nil {
			return nil, err
		}
		if m.Endpoints, err = inheritAll(name, sm.Endpoints); err != nil {
			return nil, err
		}
		if m.ReadEndpoints, err = inheritAll(name, sm.ReadEndpoints); err != nil {
			return nil, err
		}
		if m.WriteEndpoints, err = inheritAll(name, sm.WriteEndpoints); err != nil {
			return nil, err
		}

		if m.Action.Reads() {
			_, err = ResolveRead(&m, r)
		} else {
			_, err = ResolveWrite(&m, r)
		}
		if err != nil {
			return nil, err
		}

		r.Methods = append(r.Methods, &m)
	}

	return r, nil
}
