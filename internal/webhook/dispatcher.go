package webhook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrAuthentication covers every signature failure. The cause is
	// deliberately not reported.
	ErrAuthentication   = errors.New("signature verification failed")
	ErrMalformedPayload = errors.New("malformed event payload")
)

type Dispatcher struct {
	verifier *Verifier
}

func NewDispatcher(secret []byte) *Dispatcher {
	return &Dispatcher{verifier: NewVerifier(secret)}
}

// Process verifies and classifies a webhook delivery using a one-off
// dispatcher for secret.
func Process(headers http.Header, payload, secret []byte) (*Event, error) {
	return NewDispatcher(secret).Process(headers, payload)
}

// Process authenticates payload using the Stripe-Signature header and
// classifies the event. The body is only decoded after the signature
// checks out. Unrecognized event types are returned as KindUnknown.
func (d *Dispatcher) Process(headers http.Header, payload []byte) (*Event, error) {
	if !d.verifier.Verify(headerValue(headers, SignatureHeader), payload) {
		return nil, ErrAuthentication
	}

	req, err := decodeEventRequest(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:     req.ID,
		Type:   req.Type,
		Kind:   classify(req.Type),
		Object: req.Object,
	}, nil
}

type eventRequest struct {
	ID     string
	Type   string
	Object any
}

// decodeEventRequest reads the envelope by exact key. encoding/json struct
// decoding folds case and keeps the last duplicate, so neither "Type" nor a
// repeated "type" can stand in for the real field.
func decodeEventRequest(payload []byte) (*eventRequest, error) {
	top, err := decodeFields(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	var req eventRequest
	if err := requiredString(top, "id", &req.ID); err != nil {
		return nil, err
	}
	if err := requiredString(top, "type", &req.Type); err != nil {
		return nil, err
	}

	rawData, ok := top["data"]
	if !ok {
		return nil, fmt.Errorf("%w: missing field data", ErrMalformedPayload)
	}
	data, err := decodeFields(rawData)
	if err != nil {
		return nil, fmt.Errorf("%w: data: %v", ErrMalformedPayload, err)
	}
	rawObject, ok := data["object"]
	if !ok {
		return nil, fmt.Errorf("%w: missing field data.object", ErrMalformedPayload)
	}

	dec := json.NewDecoder(bytes.NewReader(rawObject))
	dec.UseNumber()
	if err := dec.Decode(&req.Object); err != nil {
		return nil, fmt.Errorf("%w: data.object: %v", ErrMalformedPayload, err)
	}

	return &req, nil
}

// decodeFields splits a JSON object into its members, keeping key case and
// rejecting duplicate keys.
func decodeFields(raw []byte) (map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("expected a JSON object")
	}

	fields := make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key := tok.(string)
		if _, dup := fields[key]; dup {
			return nil, fmt.Errorf("duplicate field %s", key)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		fields[key] = value
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after top-level value")
	}
	return fields, nil
}

func requiredString(fields map[string]json.RawMessage, key string, dst *string) error {
	raw, ok := fields[key]
	if !ok {
		return fmt.Errorf("%w: missing field %s", ErrMalformedPayload, key)
	}
	var v *string
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedPayload, key, err)
	}
	if v == nil {
		return fmt.Errorf("%w: missing field %s", ErrMalformedPayload, key)
	}
	*dst = *v
	return nil
}

// headerValue looks up name case-insensitively, including header maps whose
// keys were not canonicalized.
func headerValue(headers http.Header, name string) string {
	if v := headers.Get(name); v != "" {
		return v
	}
	for key, values := range headers {
		if strings.EqualFold(key, name) && len(values) > 0 {
			return values[0]
		}
	}
	return ""
}
