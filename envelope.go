package specstory

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// unmarshalEnvelope decodes the value at path inside body into out. The API
// wraps payloads in a data envelope and omits empty collections; a missing
// path leaves out at its zero value.
func unmarshalEnvelope(body []byte, path string, out any) error {
	res := gjson.GetBytes(body, path)
	if !res.Exists() {
		return nil
	}
	if err := json.Unmarshal([]byte(res.Raw), out); err != nil {
		return fmt.Errorf("specstory: decode %s: %w", path, err)
	}
	return nil
}

// decodeSession unwraps a single session from either the data envelope or a
// bare object.
func decodeSession(body []byte) (*Session, error) {
	raw := body
	if res := gjson.GetBytes(body, "data.session"); res.Exists() {
		raw = []byte(res.Raw)
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("specstory: decode session: %w", err)
	}
	return &sess, nil
}
