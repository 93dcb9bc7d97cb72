package reconcile

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Report converts a transport result into an outcome. The decision table:
//
//	transport error        -> failed,   unchanged
//	2xx on GET             -> ok,       unchanged  (reads never count as changes)
//	2xx on PUT/POST/DELETE -> ok,       changed
//	404 on DELETE          -> ok,       unchanged  (already absent)
//	any other status       -> failed,   unchanged
//
// Errors are folded into the outcome here, never propagated past it.
func Report(call Call, resp *Response, err error) Outcome {
	if err != nil {
		return Outcome{
			Failed: true,
			Msg:    fmt.Sprintf("transport: %v", err),
		}
	}

	outcome := Outcome{
		Status:   resp.Status,
		Response: decodeBody(resp),
	}

	switch {
	case resp.Status >= 200 && resp.Status < 300:
		outcome.Changed = call.Mutating()
	case resp.Status == http.StatusNotFound && call.Method == "DELETE":
		// Deleting an object that is already gone is the desired state.
	default:
		outcome.Failed = true
		outcome.Msg = fmt.Sprintf("api request failed, status=%d body=%s", resp.Status, truncate(string(resp.Body), 512))
	}
	return outcome
}

// decodeBody parses the response body as JSON when the content type says
// JSON, and passes it through as text otherwise. The body is never dropped.
func decodeBody(resp *Response) any {
	if len(resp.Body) == 0 {
		return nil
	}
	if strings.Contains(resp.ContentType, "application/json") {
		var decoded any
		if err := json.Unmarshal(resp.Body, &decoded); err == nil {
			return decoded
		}
	}
	return string(resp.Body)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
