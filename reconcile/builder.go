package reconcile

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// BuildCall maps a validated request to the one HTTP call that realizes it.
// Pure function of the request; it never touches the network.
//
// The verb table:
//
//	status                        -> GET  /v1/status
//	objects, present, definition  -> PUT  /v1/objects/{family}[/{name}]
//	objects, present, empty defn  -> GET  /v1/objects/{family}[/{name}]
//	objects, absent               -> DELETE /v1/objects/{family}[/{name}] [?cascade=1]
//
// A present request without a definition is a read: it fetches the object
// instead of writing it.
//
// Composite object names ("web!ssh") pass through verbatim; the builder
// does not validate the "!" convention.
func BuildCall(req Request) (Call, error) {
	call := Call{
		Headers: req.Headers,
		Query:   map[string]string{},
	}

	switch req.Endpoint {
	case EndpointStatus:
		call.Method = "GET"
		call.Path = "/v1/status"
		return call, nil
	case EndpointObjects:
	default:
		return Call{}, fmt.Errorf("unknown endpoint %q", req.Endpoint)
	}

	call.Path = objectPath(req.Family, req.ObjectName)

	switch req.State {
	case StateAbsent:
		call.Method = "DELETE"
		if req.Cascade {
			call.Query["cascade"] = "1"
		}
	case StatePresent:
		if len(req.Definition) == 0 {
			call.Method = "GET"
			break
		}
		call.Method = "PUT"
		body, err := json.Marshal(req.Definition)
		if err != nil {
			return Call{}, fmt.Errorf("encode definition: %w", err)
		}
		call.Body = body
	default:
		return Call{}, fmt.Errorf("unknown state %q", req.State)
	}
	return call, nil
}

func objectPath(family Family, name string) string {
	path := "/v1/objects/" + string(family)
	if name != "" {
		// Composite service names such as "web!ssh" must stay verbatim
		// in the path, so no escaping here.
		path += "/" + name
	}
	return path
}

// URL joins a call onto a base URL, including any query parameters.
func (c Call) URL(baseURL string) string {
	u := baseURL + c.Path
	if len(c.Query) == 0 {
		return u
	}
	values := url.Values{}
	for k, v := range c.Query {
		values.Set(k, v)
	}
	return u + "?" + values.Encode()
}

// Mutating reports whether the call writes to the remote API.
func (c Call) Mutating() bool {
	switch strings.ToUpper(c.Method) {
	case "PUT", "POST", "DELETE":
		return true
	}
	return false
}
