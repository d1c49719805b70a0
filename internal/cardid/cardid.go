// Package cardid canonicalizes raw NFC card serials.  Serial numbers arrive
// from hardware readers and manual entry in a variety of shapes: unseparated
// hex, colon- or dash-separated octets, mixed case, stray whitespace.  The
// rest of the system stores and compares only the canonical form: uppercase
// hexadecimal octets joined by ":" (e.g. "04:A3:9C:1B").
package cardid

import (
    "regexp"
    "strings"
)

// canonicalPattern matches an already-canonical serial: two uppercase hex
// digits, optionally repeated with ":" separators.
var canonicalPattern = regexp.MustCompile(`^[A-F0-9]{2}(:[A-F0-9]{2})*$`)

// nonHex matches every character that is not an uppercase hex digit.  Used
// to strip separators and noise before regrouping.
var nonHex = regexp.MustCompile(`[^A-F0-9]`)

// Normalize converts a raw card serial into its canonical representation.
// Inputs that already match the canonical pattern (after uppercasing) are
// accepted as-is.  Otherwise all non-hex characters are stripped and the
// remaining digits are regrouped into colon-joined octet pairs from the left.
//
// Normalize never fails: if stripping leaves an odd number of hex digits, or
// no hex digits at all, the uppercased original is returned unchanged.
// Rejecting garbage is the job of downstream validation, not of this
// function.  Normalize is idempotent and pure.
func Normalize(raw string) string {
    upper := strings.ToUpper(strings.TrimSpace(raw))
    if canonicalPattern.MatchString(upper) {
        return upper
    }
    stripped := nonHex.ReplaceAllString(upper, "")
    if stripped == "" || len(stripped)%2 != 0 {
        // Don't guess: no padding, no truncation.
        return upper
    }
    pairs := make([]string, 0, len(stripped)/2)
    for i := 0; i < len(stripped); i += 2 {
        pairs = append(pairs, stripped[i:i+2])
    }
    return strings.Join(pairs, ":")
}

// IsCanonical reports whether s is already in canonical form.
func IsCanonical(s string) bool {
    return canonicalPattern.MatchString(s)
}
