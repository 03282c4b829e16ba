package subscription

import "bytes"

// Keyspace:
// - {provider}!{feature}!{id}  (LayoutProvider)
// - {feature}!{id}             (LayoutLegacy, no provider recorded)
//
// Value: registration time as decimal Unix milliseconds.

const sep = byte('!')

// Layout selects how a subscription key is encoded.
type Layout int

const (
	// LayoutProvider prefixes keys with the provider name.
	LayoutProvider Layout = iota
	// LayoutLegacy omits the provider segment. Used when provider is empty.
	LayoutLegacy
)

func (l Layout) String() string {
	switch l {
	case LayoutProvider:
		return "provider"
	case LayoutLegacy:
		return "legacy"
	default:
		return "unknown"
	}
}

// LayoutFor returns LayoutLegacy for an empty provider and LayoutProvider otherwise.
func LayoutFor(provider string) Layout {
	if provider == "" {
		return LayoutLegacy
	}
	return LayoutProvider
}

// prefix returns the feature prefix "{provider}!{feature}!" or "{feature}!".
func (l Layout) prefix(provider, feature string) []byte {
	b := make([]byte, 0, len(provider)+len(feature)+2)
	if l == LayoutProvider {
		b = append(b, provider...)
		b = append(b, sep)
	}
	b = append(b, feature...)
	b = append(b, sep)
	return b
}

// Key encodes the composite key for a subscription.
func (l Layout) Key(provider, feature, id string) []byte {
	b := l.prefix(provider, feature)
	return append(b, id...)
}

// Bounds returns the [lower, upper) range holding every key of
// (provider, feature). upper is the successor of the prefix, so sibling
// features sharing a textual prefix are never included.
func (l Layout) Bounds(provider, feature string) (lower, upper []byte) {
	lower = l.prefix(provider, feature)
	upper = append([]byte(nil), lower...)
	upper[len(upper)-1] = sep + 1
	return lower, upper
}

// KeyState classifies a key found inside a scan range.
type KeyState int

const (
	// KeyValid keys carry a non-empty id.
	KeyValid KeyState = iota
	// KeyInvalid keys have an empty id segment and are purged.
	KeyInvalid
	// KeyForeign keys belong to another layout or (provider, feature) and
	// are skipped untouched. A legacy scan of a feature named like a
	// provider sees that provider's keys this way.
	KeyForeign
)

// ParseID extracts the id segment of key: the bytes after the feature
// prefix. A separator after the id means the key has more segments than the
// layout and is reported as KeyForeign.
func (l Layout) ParseID(provider, feature string, key []byte) (string, KeyState) {
	p := l.prefix(provider, feature)
	if !bytes.HasPrefix(key, p) {
		return "", KeyForeign
	}
	rest := key[len(p):]
	i := bytes.IndexByte(rest, sep)
	if i == 0 || len(rest) == 0 {
		return "", KeyInvalid
	}
	if i > 0 {
		return "", KeyForeign
	}
	return string(rest), KeyValid
}
