package salesforce

import "strings"

// AccountKeyPrefix is the key prefix of Account record IDs.
const AccountKeyPrefix = "001"

const checksumAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ012345"

// To18 converts a 15-character case-sensitive ID to its 18-character form
// by appending the case checksum. Other lengths are returned unchanged.
func To18(id string) string {
	id = strings.TrimSpace(id)
	if len(id) != 15 {
		return id
	}

	var sfx [3]byte
	for chunk := 0; chunk < 3; chunk++ {
		v := 0
		for j := 0; j < 5; j++ {
			c := id[chunk*5+j]
			if c >= 'A' && c <= 'Z' {
				v |= 1 << j
			}
		}
		sfx[chunk] = checksumAlphabet[v]
	}
	return id + string(sfx[:])
}

// To15 truncates an 18-character ID to 15 characters. Other lengths are
// returned unchanged.
func To15(id string) string {
	id = strings.TrimSpace(id)
	if len(id) == 18 {
		return id[:15]
	}
	return id
}

// SameID reports whether two IDs refer to the same record, in either form.
func SameID(a, b string) bool {
	a, b = To15(a), To15(b)
	return a != "" && a == b
}

// ValidAccountIDFormat reports whether id is a 15 or 18 character
// alphanumeric Account ID.
func ValidAccountIDFormat(id string) bool {
	id = strings.TrimSpace(id)
	if len(id) != 15 && len(id) != 18 {
		return false
	}
	if !strings.HasPrefix(id, AccountKeyPrefix) {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}
