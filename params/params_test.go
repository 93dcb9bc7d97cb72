package params

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/icingautil/icinga-reconcile/reconcile"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name                string
		in                  Raw
		expected            reconcile.Request
		expectedErrContains string
	}{
		{
			name:                "missing url",
			in:                  Raw{"endpoint": "status"},
			expectedErrContains: `invalid parameter "url"`,
		},
		{
			name:                "missing endpoint",
			in:                  Raw{"url": "icinga.example.com"},
			expectedErrContains: `invalid parameter "endpoint"`,
		},
		{
			name:                "unknown endpoint",
			in:                  Raw{"url": "icinga.example.com", "endpoint": "features"},
			expectedErrContains: `invalid parameter "endpoint"`,
		},
		{
			name:                "plain http scheme rejected",
			in:                  Raw{"url": "http://icinga.example.com", "endpoint": "status"},
			expectedErrContains: `invalid parameter "url"`,
		},
		{
			name: "https scheme and trailing slash stripped",
			in:   Raw{"url": "https://icinga.example.com/", "endpoint": "status"},
			expected: reconcile.Request{
				BaseURL:       "https://icinga.example.com:5665",
				Username:      "root",
				Password:      "icinga",
				Endpoint:      reconcile.EndpointStatus,
				State:         reconcile.StatePresent,
				Headers:       map[string]string{"Accept": "application/json"},
				ValidateCerts: true,
			},
		},
		{
			name: "status with defaults",
			in:   Raw{"url": "icinga.example.com", "endpoint": "status"},
			expected: reconcile.Request{
				BaseURL:       "https://icinga.example.com:5665",
				Username:      "root",
				Password:      "icinga",
				Endpoint:      reconcile.EndpointStatus,
				State:         reconcile.StatePresent,
				Headers:       map[string]string{"Accept": "application/json"},
				ValidateCerts: true,
			},
		},
		{
			name:                "objects requires object_family",
			in:                  Raw{"url": "icinga.example.com", "endpoint": "objects"},
			expectedErrContains: `invalid parameter "object_family"`,
		},
		{
			name: "unknown object family",
			in: Raw{
				"url":           "icinga.example.com",
				"endpoint":      "objects",
				"object_family": "checkcommands",
			},
			expectedErrContains: `invalid parameter "object_family"`,
		},
		{
			name: "unknown state",
			in: Raw{
				"url":           "icinga.example.com",
				"endpoint":      "objects",
				"object_family": "hosts",
				"state":         "latest",
			},
			expectedErrContains: `invalid parameter "state"`,
		},
		{
			name: "cascade_delete requires absent",
			in: Raw{
				"url":            "icinga.example.com",
				"endpoint":       "objects",
				"object_family":  "hosts",
				"object_name":    "web",
				"state":          "present",
				"cascade_delete": true,
			},
			expectedErrContains: `invalid parameter "cascade_delete"`,
		},
		{
			name: "cascade_delete and definition are mutually exclusive",
			in: Raw{
				"url":            "icinga.example.com",
				"endpoint":       "objects",
				"object_family":  "hosts",
				"object_name":    "web",
				"state":          "absent",
				"cascade_delete": true,
				"definition":     map[string]any{"attrs": map[string]any{"address": "127.0.0.1"}},
			},
			expectedErrContains: `"cascade_delete" and "definition" are mutually exclusive`,
		},
		{
			name: "full present request",
			in: Raw{
				"url":           "icinga.example.com",
				"port":          1665,
				"user":          "apiuser",
				"password":      "hunter2",
				"endpoint":      "objects",
				"object_family": "zones",
				"object_name":   "checker",
				"state":         "present",
				"definition": map[string]any{
					"templates": []any{"generic-zone"},
					"attrs":     map[string]any{"endpoints": []any{"master"}},
				},
			},
			expected: reconcile.Request{
				BaseURL:       "https://icinga.example.com:1665",
				Username:      "apiuser",
				Password:      "hunter2",
				Endpoint:      reconcile.EndpointObjects,
				Family:        reconcile.FamilyZones,
				ObjectName:    "checker",
				State:         reconcile.StatePresent,
				Headers:       map[string]string{"Accept": "application/json"},
				ValidateCerts: true,
				Definition: map[string]any{
					"templates": []any{"generic-zone"},
					"attrs":     map[string]any{"endpoints": []any{"master"}},
				},
			},
		},
		{
			name: "legacy aliases fold to canonical names",
			in: Raw{
				"url":           "icinga.example.com",
				"url_username":  "apiuser",
				"url_password":  "hunter2",
				"endpoint":      "objects",
				"object_family": "services",
				"name":          "web!ssh",
				"state":         "absent",
			},
			expected: reconcile.Request{
				BaseURL:       "https://icinga.example.com:5665",
				Username:      "apiuser",
				Password:      "hunter2",
				Endpoint:      reconcile.EndpointObjects,
				Family:        reconcile.FamilyServices,
				ObjectName:    "web!ssh",
				State:         reconcile.StateAbsent,
				Headers:       map[string]string{"Accept": "application/json"},
				ValidateCerts: true,
			},
		},
		{
			name: "canonical name wins over alias",
			in: Raw{
				"url":          "icinga.example.com",
				"user":         "canonical",
				"url_username": "legacy",
				"endpoint":     "status",
			},
			expected: reconcile.Request{
				BaseURL:       "https://icinga.example.com:5665",
				Username:      "canonical",
				Password:      "icinga",
				Endpoint:      reconcile.EndpointStatus,
				State:         reconcile.StatePresent,
				Headers:       map[string]string{"Accept": "application/json"},
				ValidateCerts: true,
			},
		},
		{
			name: "status normalizes object parameters away",
			in: Raw{
				"url":           "icinga.example.com",
				"endpoint":      "status",
				"object_family": "hosts",
				"object_name":   "web",
				"definition":    map[string]any{"attrs": map[string]any{"address": "127.0.0.1"}},
			},
			expected: reconcile.Request{
				BaseURL:       "https://icinga.example.com:5665",
				Username:      "root",
				Password:      "icinga",
				Endpoint:      reconcile.EndpointStatus,
				State:         reconcile.StatePresent,
				Headers:       map[string]string{"Accept": "application/json"},
				ValidateCerts: true,
			},
		},
		{
			name: "absent drops supplied definition",
			in: Raw{
				"url":           "icinga.example.com",
				"endpoint":      "objects",
				"object_family": "hosts",
				"object_name":   "web",
				"state":         "absent",
				"definition":    map[string]any{"attrs": map[string]any{"address": "127.0.0.1"}},
			},
			expected: reconcile.Request{
				BaseURL:       "https://icinga.example.com:5665",
				Username:      "root",
				Password:      "icinga",
				Endpoint:      reconcile.EndpointObjects,
				Family:        reconcile.FamilyHosts,
				ObjectName:    "web",
				State:         reconcile.StateAbsent,
				Headers:       map[string]string{"Accept": "application/json"},
				ValidateCerts: true,
			},
		},
		{
			name: "caller accept header preserved",
			in: Raw{
				"url":      "icinga.example.com",
				"endpoint": "status",
				"headers": map[string]any{
					"accept":       "application/yaml",
					"X-Request-Id": "abc123",
				},
			},
			expected: reconcile.Request{
				BaseURL:       "https://icinga.example.com:5665",
				Username:      "root",
				Password:      "icinga",
				Endpoint:      reconcile.EndpointStatus,
				State:         reconcile.StatePresent,
				Headers:       map[string]string{"accept": "application/yaml", "X-Request-Id": "abc123"},
				ValidateCerts: true,
			},
		},
		{
			name: "stringly typed input accepted",
			in: Raw{
				"url":            "icinga.example.com",
				"port":           "8443",
				"endpoint":       "objects",
				"object_family":  "hosts",
				"object_name":    "web",
				"state":          "absent",
				"validate_certs": "false",
				"cascade_delete": "true",
			},
			expected: reconcile.Request{
				BaseURL:       "https://icinga.example.com:8443",
				Username:      "root",
				Password:      "icinga",
				Endpoint:      reconcile.EndpointObjects,
				Family:        reconcile.FamilyHosts,
				ObjectName:    "web",
				State:         reconcile.StateAbsent,
				Headers:       map[string]string{"Accept": "application/json"},
				ValidateCerts: false,
				Cascade:       true,
			},
		},
		{
			name: "blank user rejected",
			in: Raw{
				"url":      "icinga.example.com",
				"endpoint": "status",
				"user":     "   ",
			},
			expectedErrContains: `invalid parameter "user"`,
		},
		{
			name: "port out of range",
			in: Raw{
				"url":      "icinga.example.com",
				"endpoint": "status",
				"port":     70000,
			},
			expectedErrContains: `invalid parameter "port"`,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			require := require.New(t)

			req, err := Validate(tc.in)
			if tc.expectedErrContains != "" {
				require.Error(err)
				require.Contains(err.Error(), tc.expectedErrContains)
				return
			}
			require.NoError(err)
			require.Equal(tc.expected, req)
		})
	}
}

func TestField(t *testing.T) {
	require := require.New(t)

	require.Equal("endpoint", Field(&ValidationError{Field: "endpoint", Reason: "required"}))
	require.Equal("cascade_delete", Field(&MutualExclusionError{Fields: [2]string{"cascade_delete", "definition"}}))
}
