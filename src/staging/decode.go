package staging

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/warp-contracts/stager/src/protocol"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Peer answered with fields this version does not know
var ErrContractViolation = errors.New("unexpected fields in response, staging and production versions do not match")

// Strips status and messages (plus the allowed fields) from the response.
// Anything left means the peers disagree on the protocol.
func decodeStrict(data json.RawMessage, out *protocol.Response, allowed ...string) (extra map[string]json.RawMessage, err error) {
	var fields map[string]json.RawMessage
	err = json.Unmarshal(data, &fields)
	if err != nil {
		return
	}

	if raw, ok := fields["status"]; ok {
		err = json.Unmarshal(raw, &out.Status)
		if err != nil {
			return
		}
		delete(fields, "status")
	}

	if raw, ok := fields["messages"]; ok {
		err = json.Unmarshal(raw, &out.Messages)
		if err != nil {
			return
		}
		delete(fields, "messages")
	}

	extra = make(map[string]json.RawMessage)
	for _, key := range allowed {
		if raw, ok := fields[key]; ok {
			extra[key] = raw
			delete(fields, key)
		}
	}

	if len(fields) > 0 {
		keys := maps.Keys(fields)
		slices.Sort(keys)
		return nil, fmt.Errorf("%w: %v", ErrContractViolation, keys)
	}
	return
}
