package export

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Consent display values.
const (
	ConsentYes = "yes"
	ConsentNo  = "no"
)

// ConsentDecoder extracts a marketing-consent flag from the structured blob a
// store keeps its checkbox terms in. The upstream location of the flag is not
// confirmed, so the decoder is an explicit strategy object rather than inline
// string matching: implementations are best-effort and must return "" instead
// of failing.
type ConsentDecoder interface {
	Decode(raw string) string
}

// LabelMatchDecoder scans blob entries for one whose label loosely matches any
// of the configured keywords (case-insensitive substring) and reads its
// boolean-like status. This is the documented target behavior, not confirmed
// upstream truth.
type LabelMatchDecoder struct {
	Keywords []string
}

// NewConsentDecoder returns the default marketing-consent decoder.
func NewConsentDecoder() *LabelMatchDecoder {
	return &LabelMatchDecoder{Keywords: []string{"consent", "marketing"}}
}

// Decode returns "yes"/"no" for a matched entry, or "" when the blob is
// absent, malformed, or has no matching entry.
func (d *LabelMatchDecoder) Decode(raw string) string {
	entries := decodeBlob(raw)
	for _, e := range entries {
		if e.Name == "" {
			continue
		}
		label := strings.ToLower(e.Name)
		for _, kw := range d.Keywords {
			if strings.Contains(label, strings.ToLower(kw)) {
				if truthy(e.Status) {
					return ConsentYes
				}
				return ConsentNo
			}
		}
	}
	return ""
}

// blobEntry is one item of a structured terms blob. Checkbox-like entries
// carry a label and a boolean-like status; generic entries may carry a value.
type blobEntry struct {
	Key    string
	Name   string      `json:"name"`
	Status interface{} `json:"status"`
	Value  interface{} `json:"value"`
}

// decodeBlob parses a structured blob into its entries. Both the JSON-array
// form and the object form (entries keyed by sub-key) are accepted; anything
// else yields no entries.
func decodeBlob(raw string) []blobEntry {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var arr []blobEntry
	if err := json.Unmarshal([]byte(raw), &arr); err == nil {
		return arr
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil
	}
	entries := make([]blobEntry, 0, len(obj))
	for key, msg := range obj {
		var e blobEntry
		if err := json.Unmarshal(msg, &e); err == nil && (e.Name != "" || e.Status != nil || e.Value != nil) {
			e.Key = key
			entries = append(entries, e)
			continue
		}
		// Scalar member: treat the raw value as the entry value.
		var scalar interface{}
		if err := json.Unmarshal(msg, &scalar); err == nil {
			entries = append(entries, blobEntry{Key: key, Value: scalar})
		}
	}
	return entries
}

// truthy interprets a boolean-like status subfield.
func truthy(v interface{}) bool {
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "true", "yes", "on":
			return true
		}
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f != 0
		}
	}
	return false
}
