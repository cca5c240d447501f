package rest

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/marmos91/storfiler/pkg/gateway"
	"github.com/marmos91/storfiler/pkg/storepath"
)

// route is one compiled method: the gin pattern it is mounted on and the
// catch-all parameter name, if the template declared one.
type route struct {
	resource *gateway.Resource
	method   *gateway.Method
	pattern  string
	catchAll string
}

// RoutePattern converts a method template below a resource into a gin
// pattern mounted at base/resource.
//
// Template segments {name} become :name and {*name} becomes *name. A
// catch-all segment must be the last one.
func RoutePattern(base, resource, template string) (pattern, catchAll string, err error) {
	segments := storepath.Split(&template)
	out := make([]string, 0, len(segments))

	for i, seg := range segments {
		if !strings.HasPrefix(seg, "{") || !strings.HasSuffix(seg, "}") {
			if strings.ContainsAny(seg, "{}:*") {
				return "", "", fmt.Errorf("route %q: malformed segment %q", template, seg)
			}
			out = append(out, seg)
			continue
		}

		name := seg[1 : len(seg)-1]
		if bare, ok := strings.CutPrefix(name, "*"); ok {
			if i != len(segments)-1 {
				return "", "", fmt.Errorf("route %q: catch-all {%s} must be the last segment", template, name)
			}
			name = bare
			catchAll = name
			out = append(out, "*"+name)
		} else {
			out = append(out, ":"+name)
		}

		if name == "" {
			return "", "", fmt.Errorf("route %q: empty parameter name", template)
		}
	}

	return storepath.Normalize(storepath.Combine(base, resource, strings.Join(out, "/")), true), catchAll, nil
}

// compile builds a gin engine serving every method of the catalog.
//
// gin panics on conflicting routes; the panic is turned into a
// ConfigurationError so a bad reload leaves the previous engine in place.
func (a *RESTAdapter) compile(cat *gateway.Catalog) (engine *gin.Engine, err error) {
	engine = gin.New()
	engine.HandleMethodNotAllowed = true
	engine.Use(a.recovery(), requestID(), a.accessLog(), a.instrument())
	if a.config.CORS {
		engine.Use(cors())
	}
	if a.limiter != nil {
		engine.Use(a.rateLimit())
	}

	engine.NoRoute(func(c *gin.Context) {
		writeError(c, fmt.Errorf("no route for %s %s: %w", c.Request.Method, c.Request.URL.Path, gateway.ErrNotFound))
	})
	engine.NoMethod(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})

	var current route
	defer func() {
		if rec := recover(); rec != nil {
			engine = nil
			err = &gateway.ConfigurationError{
				Resource: current.resource.Name,
				Method:   current.method.String(),
				Reason:   fmt.Sprintf("route %s conflicts: %v", current.pattern, rec),
			}
		}
	}()

	for _, r := range cat.Resources() {
		for _, m := range r.Methods {
			pattern, catchAll, err := RoutePattern(a.config.BasePath, r.Name, m.Path)
			if err != nil {
				return nil, &gateway.ConfigurationError{Resource: r.Name, Method: m.String(), Reason: err.Error()}
			}

			current = route{resource: r, method: m, pattern: pattern, catchAll: catchAll}
			engine.Handle(m.Verb, pattern, a.handlerFor(current))
		}
	}

	return engine, nil
}

func (a *RESTAdapter) handlerFor(rt route) gin.HandlerFunc {
	switch rt.method.Action {
	case gateway.ActionList:
		return a.handleList(rt)
	case gateway.ActionSearch:
		return a.handleSearch(rt)
	case gateway.ActionDownload:
		return a.handleDownload(rt)
	case gateway.ActionAdd:
		return a.handleAdd(rt)
	case gateway.ActionRemove:
		return a.handleRemove(rt)
	default:
		// The catalog rejects unknown actions, so this only guards against
		// a new Action constant without a handler.
		return func(c *gin.Context) {
			writeError(c, &gateway.ConfigurationError{
				Resource: rt.resource.Name,
				Method:   rt.method.String(),
				Reason:   fmt.Sprintf("no handler for action %q", rt.method.Action),
			})
		}
	}
}
