package transport

import (
	"encoding/json"
	"fmt"

	"github.com/warp-contracts/stager/src/messages"
	"github.com/warp-contracts/stager/src/protocol"
	"github.com/warp-contracts/stager/src/utils/envelope"
	"github.com/warp-contracts/stager/src/utils/monitoring"
)

// Authenticates and decodes incoming calls
type Receiver struct {
	secret  string
	monitor monitoring.Monitor
}

func NewReceiver(secret string) *Receiver {
	return &Receiver{secret: secret}
}

func (self *Receiver) WithMonitor(v monitoring.Monitor) *Receiver {
	self.monitor = v
	return self
}

// Returns the decoded request data, or a response that should be sent back instead of calling the handler
func (self *Receiver) Receive(host string, req *Request) (data json.RawMessage, early *protocol.Response) {
	if req.AccessToken == "" {
		return nil, protocol.Failed(messages.Error("No access token has been provided. Request failed."))
	}

	if req.Payload == "" {
		return nil, protocol.Failed(messages.Error("No data has been provided. Request failed."))
	}

	if !envelope.Verify(req.Payload, req.AccessToken, self.secret) {
		if self.monitor != nil {
			self.monitor.GetReport().Gateway.Errors.AuthFailures.Inc()
		}
		return nil, protocol.Failed(messages.Error(fmt.Sprintf(
			"Authentication failed. %s did not accept the provided access token. "+
				"Check that your content staging environment and your production environment is using the same secret key.", host)))
	}

	data, err := envelope.DecodeRaw(req.Payload)
	if err != nil {
		if self.monitor != nil {
			self.monitor.GetReport().Gateway.Errors.MalformedPayload.Inc()
		}
		return nil, protocol.Failed(messages.Error(fmt.Sprintf("Malformed data: %s. Request failed.", err)))
	}

	return data, nil
}

// Encodes the handler's response into a reply
func (self *Receiver) Reply(v any) (*Reply, error) {
	payload, err := envelope.Encode(v)
	if err != nil {
		return nil, err
	}
	return &Reply{Payload: payload}, nil
}
