// Package qr locates survey delivery identifiers embedded in QR codes.
// A QR may carry a full URL, a key=value pair, or the bare identifier;
// extraction tries the most specific shape first and falls back to
// treating the whole payload as an identifier.
package qr

import "regexp"

// entryPatterns are tried in order. The first capture that passes shape
// validation wins; an invalid capture falls through to the next
// pattern instead of aborting.
var entryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)entregaId[=:]([a-f0-9\-]+)`),
	regexp.MustCompile(`(?i)entrega[/?]([a-f0-9\-]+)`),
	regexp.MustCompile(`(?i)([a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12})`),
	regexp.MustCompile(`([a-zA-Z0-9\-_]{10,50})`),
}

var (
	uuidShape   = regexp.MustCompile(`(?i)^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}$`)
	customShape = regexp.MustCompile(`^[a-zA-Z0-9\-_]{10,50}$`)
)

// ValidEntryID reports whether text has the shape of a delivery
// identifier: a UUID, or a 10-50 character token of letters, digits,
// hyphens and underscores.
func ValidEntryID(text string) bool {
	return uuidShape.MatchString(text) || customShape.MatchString(text)
}

// ExtractEntryID pulls a delivery identifier out of a QR payload. It
// returns false when nothing in the payload looks like one.
func ExtractEntryID(payload string) (string, bool) {
	for _, re := range entryPatterns {
		m := re.FindStringSubmatch(payload)
		if len(m) > 1 && ValidEntryID(m[1]) {
			return m[1], true
		}
	}
	if ValidEntryID(payload) {
		return payload, true
	}
	return "", false
}
