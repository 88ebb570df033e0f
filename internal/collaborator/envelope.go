package collaborator

import (
	"bytes"
	"encoding/json"
)

// DecodeData unmarshals a response that is either wrapped as {"data": ...}
// or returned bare.
func DecodeData(body []byte, out any) error {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil
	}
	if body[0] == '{' {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Data) > 0 && !bytes.Equal(envelope.Data, []byte("null")) {
			return json.Unmarshal(envelope.Data, out)
		}
	}
	return json.Unmarshal(body, out)
}
