package export

import "strings"

// VirtualFieldSeparator splits a virtual field identifier into its parent
// field and sub-key: "parent__sub".
const VirtualFieldSeparator = "__"

// FieldResolver resolves a field identifier against a raw row. Plain fields
// read the row directly; virtual fields decode the parent field's structured
// blob value and extract the matching sub-entry. Unresolvable fields yield the
// empty string.
type FieldResolver interface {
	Resolve(field string, row Row) string
}

// BlobFieldResolver is the default resolver. Virtual sub-entries are matched
// by literal sub-key first, then by a normalized form of a checkbox-like
// entry's own label.
type BlobFieldResolver struct{}

// NewFieldResolver returns the default field resolver.
func NewFieldResolver() *BlobFieldResolver {
	return &BlobFieldResolver{}
}

// Resolve implements FieldResolver.
func (r *BlobFieldResolver) Resolve(field string, row Row) string {
	parent, sub, virtual := strings.Cut(field, VirtualFieldSeparator)
	if !virtual {
		return Stringify(row[field])
	}

	raw := Stringify(row[parent])
	if raw == "" {
		return ""
	}

	entries := decodeBlob(raw)
	// Literal sub-key match takes precedence.
	for _, e := range entries {
		if e.Key == sub {
			return entryValue(e)
		}
	}
	// Fall back to matching a normalized form of the entry label.
	want := normalizeLabel(sub)
	for _, e := range entries {
		if e.Name == "" {
			continue
		}
		got := normalizeLabel(e.Name)
		if got == want || strings.Contains(got, want) {
			return entryValue(e)
		}
	}
	return ""
}

// entryValue renders a blob entry: explicit values win, checkbox statuses
// render as yes/no.
func entryValue(e blobEntry) string {
	if e.Value != nil {
		return strings.TrimSpace(Stringify(e.Value))
	}
	if e.Status != nil {
		if truthy(e.Status) {
			return ConsentYes
		}
		return ConsentNo
	}
	return ""
}

// normalizeLabel lowercases a label and collapses separator runs to single
// underscores so "Zgoda Marketingowa" matches "zgoda_marketingowa".
func normalizeLabel(s string) string {
	var b strings.Builder
	lastSep := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSep = false
		default:
			if !lastSep {
				b.WriteByte('_')
				lastSep = true
			}
		}
	}
	return strings.TrimRight(b.String(), "_")
}
