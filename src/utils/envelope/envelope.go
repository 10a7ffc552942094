package envelope

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// Version of the frame written by Encode
const Version = 1

var (
	ErrEmptyPayload       = errors.New("empty payload")
	ErrUnsupportedVersion = errors.New("unsupported payload version")
)

// Versioned wrapper around every payload
type frame struct {
	Version int             `json:"v"`
	Data    json.RawMessage `json:"data"`
}

// Serializes, compresses and base64 encodes the value into an opaque string
func Encode(v any) (payload string, err error) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}

	framed, err := json.Marshal(frame{Version: Version, Data: data})
	if err != nil {
		return
	}

	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err = w.Write(framed)
	if err != nil {
		return
	}
	err = w.Close()
	if err != nil {
		return
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Reverses Encode, returns the serialized value
func DecodeRaw(payload string) (data json.RawMessage, err error) {
	if payload == "" {
		return nil, ErrEmptyPayload
	}

	compressed, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}

	r, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("invalid compression: %w", err)
	}
	defer r.Close()

	framed, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("invalid compression: %w", err)
	}

	var f frame
	err = json.Unmarshal(framed, &f)
	if err != nil {
		return nil, fmt.Errorf("invalid frame: %w", err)
	}

	if f.Version < 1 || f.Version > Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, f.Version)
	}

	return f.Data, nil
}

// Reverses Encode into the given value
func Decode(payload string, out any) (err error) {
	data, err := DecodeRaw(payload)
	if err != nil {
		return
	}
	return json.Unmarshal(data, out)
}

// Access token for the payload: hex encoded HMAC-SHA1 keyed with the shared secret
func Sign(payload, secret string) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// Constant time comparison of the token with the one computed for the payload
func Verify(payload, token, secret string) bool {
	expected := Sign(payload, secret)
	return hmac.Equal([]byte(expected), []byte(token))
}
