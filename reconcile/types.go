package reconcile

// Endpoint selects which remote API surface a request targets.
type Endpoint string

const (
	EndpointObjects Endpoint = "objects"
	EndpointStatus  Endpoint = "status"
)

// Family is the plural category of a configuration object.
type Family string

const (
	FamilyZones         Family = "zones"
	FamilyHostGroups    Family = "hostgroups"
	FamilyHosts         Family = "hosts"
	FamilyServiceGroups Family = "servicegroups"
	FamilyServices      Family = "services"
)

// State is the desired state of a configuration object.
type State string

const (
	StatePresent State = "present"
	StateAbsent  State = "absent"
)

// Request is one validated invocation. It is built once by the params
// package and never mutated afterwards.
type Request struct {
	BaseURL       string // https://host:port, no trailing slash
	Username      string
	Password      string
	Endpoint      Endpoint
	Family        Family
	ObjectName    string // composite names like "web!ssh" pass through verbatim
	State         State
	Headers       map[string]string
	ValidateCerts bool
	Cascade       bool
	Definition    map[string]any
}

// Call is the HTTP request a Request maps to. Produced by BuildCall,
// consumed by the transport.
type Call struct {
	Method  string
	Path    string
	Query   map[string]string
	Headers map[string]string
	Body    []byte
}

// Response is what the transport hands back on a completed exchange.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// Outcome is the single structured result of a run. Response holds the
// decoded JSON body when the API returned JSON, the raw text otherwise.
type Outcome struct {
	Changed  bool   `json:"changed"`
	Failed   bool   `json:"failed"`
	Status   int    `json:"status,omitempty"`
	Response any    `json:"response,omitempty"`
	Msg      string `json:"msg,omitempty"`
}
