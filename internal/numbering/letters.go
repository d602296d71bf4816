// SPDX-License-Identifier: MPL-2.0

package numbering

// Letter returns the n-th letter number (1 -> "A", 26 -> "Z", 27 -> "AA").
// It returns "" for n < 1.
func Letter(n int) string {
	var buf []byte
	for n > 0 {
		n--
		buf = append([]byte{byte('A' + n%26)}, buf...)
		n /= 26
	}
	return string(buf)
}
