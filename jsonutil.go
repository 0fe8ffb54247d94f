package llmpipeline

import "encoding/json"

// reencode round-trips v through encoding/json into dst. It is used to
// give callers a typed view of a dynamically-parsed Value without
// requiring every parser to be generic.
func reencode(v any, dst any) error {
	buf, err := json.Marshal(v)
	if err != nil {
		return &JSONDecodeError{Err: err}
	}
	if err := json.Unmarshal(buf, dst); err != nil {
		return &JSONDecodeError{Err: err}
	}
	return nil
}
