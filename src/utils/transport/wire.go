package transport

// Body of every RPC call
type Request struct {
	Method      string `json:"method"`
	AccessToken string `json:"access_token"`
	Payload     string `json:"payload"`
}

// Body of every RPC reply. Error is only set when the call did not reach a handler.
type Reply struct {
	Payload string `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
}
