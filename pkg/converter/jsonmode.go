package converter

import (
	"bytes"
	"encoding/json"

	apperrors "lxpfetch/pkg/errors"
)

// CanonicalJSON re-encodes a raw platform payload with sorted keys,
// four-space indentation and HTML escaping off. Repeat runs over unchanged
// content then produce byte-identical files, which is what lets the writer
// skip them.
func CanonicalJSON(raw []byte) ([]byte, error) {
	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeConversion, "payload is not valid JSON", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(value); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeConversion, "failed to encode JSON", err)
	}
	return buf.Bytes(), nil
}
