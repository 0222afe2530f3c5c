package dto

// DefaultAuthHeader is the credential header used when no override is supplied.
const DefaultAuthHeader = "Authorization"

// ProxyRequest is one relay call: a target URL plus optional credential hints.
type ProxyRequest struct {
	URL    string
	Token  string
	Header string
}

// ProxyErrorResponse is the proxy's answer to a bad request or an internal failure.
type ProxyErrorResponse struct {
	Error string `json:"error"`
}

// ProxyUpstreamErrorResponse is sent when the data source answered with a
// non-success status. Details carries the upstream body and is present even
// when that body is empty.
type ProxyUpstreamErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// HeaderRule maps endpoints containing Match to a credential header name.
type HeaderRule struct {
	Match  string `toml:"match"`
	Header string `toml:"header"`
}
