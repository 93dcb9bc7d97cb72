package params

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/icingautil/icinga-reconcile/reconcile"
)

const (
	defaultPort     = 5665
	defaultUser     = "root"
	defaultPassword = "icinga"
)

// Raw is the loosely-typed parameter set handed in at the process
// boundary, usually decoded from a JSON document.
type Raw map[string]any

// ValidationError names the parameter that made the set unusable.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Field, e.Reason)
}

// MutualExclusionError reports two parameters that cannot be supplied
// together.
type MutualExclusionError struct {
	Fields [2]string
}

func (e *MutualExclusionError) Error() string {
	return fmt.Sprintf("parameters %q and %q are mutually exclusive", e.Fields[0], e.Fields[1])
}

// Field returns the parameter to attribute the failure to.
func Field(err error) string {
	switch e := err.(type) {
	case *ValidationError:
		return e.Field
	case *MutualExclusionError:
		return e.Fields[0]
	}
	return "params"
}

// aliases maps legacy parameter names onto their canonical form. The
// canonical name wins when both are supplied.
var aliases = map[string]string{
	"url_username": "user",
	"url_password": "password",
	"name":         "object_name",
}

// input is the decode target for the raw parameter set.
type input struct {
	Url           string            `mapstructure:"url"`
	Port          int               `mapstructure:"port"`
	User          string            `mapstructure:"user"`
	Password      string            `mapstructure:"password"`
	Endpoint      string            `mapstructure:"endpoint"`
	ObjectFamily  string            `mapstructure:"object_family"`
	ObjectName    string            `mapstructure:"object_name"`
	State         string            `mapstructure:"state"`
	Headers       map[string]string `mapstructure:"headers"`
	ValidateCerts *bool             `mapstructure:"validate_certs"`
	CascadeDelete bool              `mapstructure:"cascade_delete"`
	Definition    map[string]any    `mapstructure:"definition"`
}

// Validate turns a raw parameter set into an immutable request, or fails
// naming the offending parameter. No request violating an invariant is
// ever returned.
//
// Out-of-place parameters are normalized away rather than rejected:
// object_family, object_name and definition are dropped for status
// requests, and definition is dropped for absent requests. The
// cascade_delete/definition conflict is checked on the supplied values
// before normalization, so it fails even when the definition would later
// be dropped.
func Validate(raw Raw) (reconcile.Request, error) {
	var s input
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result: &s,
		// Parameters arrive from YAML/JSON front ends that stringify
		// freely ("5665", "false").
		WeaklyTypedInput: true,
	})
	if err != nil {
		return reconcile.Request{}, err
	}
	if err := decoder.Decode(foldAliases(raw)); err != nil {
		return reconcile.Request{}, &ValidationError{Field: "params", Reason: err.Error()}
	}

	if s.CascadeDelete && len(s.Definition) > 0 {
		return reconcile.Request{}, &MutualExclusionError{Fields: [2]string{"cascade_delete", "definition"}}
	}

	host, err := parseHost(s.Url)
	if err != nil {
		return reconcile.Request{}, err
	}

	if s.Port == 0 {
		s.Port = defaultPort
	}
	if s.Port < 1 || s.Port > 65535 {
		return reconcile.Request{}, &ValidationError{Field: "port", Reason: fmt.Sprintf("out of range: %d", s.Port)}
	}

	if s.User == "" {
		s.User = defaultUser
	}
	if strings.TrimSpace(s.User) == "" {
		return reconcile.Request{}, &ValidationError{Field: "user", Reason: "must not be empty"}
	}
	if s.Password == "" {
		s.Password = defaultPassword
	}
	if strings.TrimSpace(s.Password) == "" {
		return reconcile.Request{}, &ValidationError{Field: "password", Reason: "must not be empty"}
	}

	endpoint := reconcile.Endpoint(s.Endpoint)
	switch endpoint {
	case reconcile.EndpointObjects, reconcile.EndpointStatus:
	case "":
		return reconcile.Request{}, &ValidationError{Field: "endpoint", Reason: "required"}
	default:
		return reconcile.Request{}, &ValidationError{Field: "endpoint", Reason: fmt.Sprintf("must be one of objects, status, got %q", s.Endpoint)}
	}

	family := reconcile.Family(s.ObjectFamily)
	if endpoint == reconcile.EndpointObjects {
		switch family {
		case reconcile.FamilyZones, reconcile.FamilyHostGroups, reconcile.FamilyHosts,
			reconcile.FamilyServiceGroups, reconcile.FamilyServices:
		case "":
			return reconcile.Request{}, &ValidationError{Field: "object_family", Reason: "required when endpoint=objects"}
		default:
			return reconcile.Request{}, &ValidationError{Field: "object_family", Reason: fmt.Sprintf("unknown object family %q", s.ObjectFamily)}
		}
	}

	if s.State == "" {
		s.State = string(reconcile.StatePresent)
	}
	state := reconcile.State(s.State)
	switch state {
	case reconcile.StatePresent, reconcile.StateAbsent:
	default:
		return reconcile.Request{}, &ValidationError{Field: "state", Reason: fmt.Sprintf("must be one of present, absent, got %q", s.State)}
	}

	if s.CascadeDelete && state != reconcile.StateAbsent {
		return reconcile.Request{}, &ValidationError{Field: "cascade_delete", Reason: "requires state=absent"}
	}

	req := reconcile.Request{
		BaseURL:       fmt.Sprintf("https://%s:%d", host, s.Port),
		Username:      s.User,
		Password:      s.Password,
		Endpoint:      endpoint,
		Family:        family,
		ObjectName:    s.ObjectName,
		State:         state,
		Headers:       mergeHeaders(s.Headers),
		ValidateCerts: s.ValidateCerts == nil || *s.ValidateCerts,
		Cascade:       s.CascadeDelete,
		Definition:    s.Definition,
	}

	// Normalization: drop parameters that are meaningless for the chosen
	// endpoint and state instead of rejecting them.
	if req.Endpoint == reconcile.EndpointStatus {
		req.Family = ""
		req.ObjectName = ""
		req.Definition = nil
	}
	if req.State == reconcile.StateAbsent {
		req.Definition = nil
	}
	return req, nil
}

func foldAliases(raw Raw) map[string]any {
	folded := make(map[string]any, len(raw))
	for k, v := range raw {
		folded[k] = v
	}
	for alias, canonical := range aliases {
		v, ok := folded[alias]
		if !ok {
			continue
		}
		if _, exists := folded[canonical]; !exists {
			folded[canonical] = v
		}
		delete(folded, alias)
	}
	return folded
}

// parseHost accepts a bare host or an https URL and returns the host
// part. The API is TLS-only, so any other scheme is rejected.
func parseHost(raw string) (string, error) {
	host := strings.TrimSpace(raw)
	if host == "" {
		return "", &ValidationError{Field: "url", Reason: "required"}
	}
	if i := strings.Index(host, "://"); i >= 0 {
		if host[:i] != "https" {
			return "", &ValidationError{Field: "url", Reason: fmt.Sprintf("scheme %q not allowed, the API is https-only", host[:i])}
		}
		host = host[i+len("://"):]
	}
	host = strings.TrimSuffix(host, "/")
	if host == "" {
		return "", &ValidationError{Field: "url", Reason: "required"}
	}
	return host, nil
}

// mergeHeaders copies the caller headers over the defaults without
// overwriting a caller-supplied Accept.
func mergeHeaders(supplied map[string]string) map[string]string {
	merged := map[string]string{"Accept": "application/json"}
	for k, v := range supplied {
		if http.CanonicalHeaderKey(k) == "Accept" {
			delete(merged, "Accept")
		}
		merged[k] = v
	}
	return merged
}
