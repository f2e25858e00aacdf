package job

import (
	"encoding/json"
	"fmt"

	"github.com/bytedance/sonic"
)

// Encode serializes a job to its wire form. It uses the standard library
// encoder so the stored bytes are stable across processes.
func Encode(j *Job) ([]byte, error) {
	b, err := json.Marshal(j)
	if err != nil {
		return nil, fmt.Errorf("job: encode %s: %w", j.ID, err)
	}
	return b, nil
}

// Decode parses a job from its wire form using sonic.
func Decode(data []byte) (*Job, error) {
	var j Job
	if err := sonic.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("job: decode: %w", err)
	}
	if j.ID == "" || j.Type == "" {
		return nil, fmt.Errorf("job: decode: missing id or type")
	}
	return &j, nil
}

// EncodePayload serializes a typed payload. Raw JSON and byte slices pass through.
func EncodePayload(v any) (json.RawMessage, error) {
	switch p := v.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return p, nil
	case []byte:
		if !json.Valid(p) {
			return nil, fmt.Errorf("job: payload is not valid JSON")
		}
		return p, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("job: encode payload: %w", err)
	}
	return b, nil
}

// DecodePayload decodes the job payload into v.
func DecodePayload(j *Job, v any) error {
	if len(j.Payload) == 0 {
		return fmt.Errorf("job: %s has no payload", j.ID)
	}
	if err := sonic.Unmarshal(j.Payload, v); err != nil {
		return fmt.Errorf("job: decode payload %s: %w", j.ID, err)
	}
	return nil
}
