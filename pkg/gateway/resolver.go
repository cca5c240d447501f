package gateway

// ============================================================================
// Endpoint Resolution
// ============================================================================

// Precedence, applied independently for reads and writes:
//
//	method typed > method generic > resource typed > resource generic
//
// where "typed" is read_endpoint(s) or write_endpoint(s) and "generic" is
// endpoint(s).

// ResolveRead returns the endpoints a read action fans out to.
//
// Plural lists win when both the method and the resource declare the same
// kind of list (typed first, then generic); otherwise the singular chain
// applies; failing that, the first non-empty plural list in precedence
// order. A result is never empty: a *ConfigurationError is returned instead.
func ResolveRead(m *Method, r *Resource) ([]*Endpoint, error) {
	return resolve(m, r, "read",
		m.ReadEndpoints, m.Endpoints, r.ReadEndpoints, r.Endpoints,
		m.ReadEndpoint, m.Endpoint, r.ReadEndpoint, r.Endpoint)
}

// ResolveWrite is ResolveRead for write actions.
func ResolveWrite(m *Method, r *Resource) ([]*Endpoint, error) {
	return resolve(m, r, "write",
		m.WriteEndpoints, m.Endpoints, r.WriteEndpoints, r.Endpoints,
		m.WriteEndpoint, m.Endpoint, r.WriteEndpoint, r.Endpoint)
}

// FindRead returns the single endpoint used by one-to-one reads (Download).
func FindRead(m *Method, r *Resource) (*Endpoint, error) {
	if e := firstEndpoint(m.ReadEndpoint, m.Endpoint, r.ReadEndpoint, r.Endpoint); e != nil {
		return e, nil
	}
	all, err := ResolveRead(m, r)
	if err != nil {
		return nil, err
	}
	return all[0], nil
}

// FindWrite returns the single endpoint used by one-to-one writes (Remove).
func FindWrite(m *Method, r *Resource) (*Endpoint, error) {
	if e := firstEndpoint(m.WriteEndpoint, m.Endpoint, r.WriteEndpoint, r.Endpoint); e != nil {
		return e, nil
	}
	all, err := ResolveWrite(m, r)
	if err != nil {
		return nil, err
	}
	return all[0], nil
}

func resolve(
	m *Method, r *Resource, direction string,
	methodTyped, methodGeneric, resourceTyped, resourceGeneric []*Endpoint,
	single ...*Endpoint,
) ([]*Endpoint, error) {
	if m == nil || r == nil {
		return nil, &ConfigurationError{Reason: "nil method or resource"}
	}

	if len(methodTyped) > 0 && len(resourceTyped) > 0 {
		return methodTyped, nil
	}
	if len(methodGeneric) > 0 && len(resourceGeneric) > 0 {
		return methodGeneric, nil
	}

	if e := firstEndpoint(single...); e != nil {
		return []*Endpoint{e}, nil
	}

	for _, list := range [][]*Endpoint{methodTyped, methodGeneric, resourceTyped, resourceGeneric} {
		if len(list) > 0 {
			return list, nil
		}
	}

	return nil, &ConfigurationError{
		Resource: r.Name,
		Method:   m.String(),
		Reason:   "no " + direction + " endpoint configured",
	}
}

func firstEndpoint(candidates ...*Endpoint) *Endpoint {
	for _, e := range candidates {
		if e != nil {
			return e
		}
	}
	return nil
}
