package language

import "unicode/utf8"

const sniffLen = 512

// IsBinaryContent checks if the given byte slice appears to be binary content.
// It checks the first 512 bytes (or less) for null bytes, which indicates binary data.
func IsBinaryContent(data []byte) bool {
	checkSize := min(len(data), sniffLen)
	for i := 0; i < checkSize; i++ {
		if data[i] == 0 {
			return true
		}
	}
	return false
}

// IsText reports whether data can be searched as text: no NUL bytes in the
// sniffed prefix and valid UTF-8 throughout.
func IsText(data []byte) bool {
	return !IsBinaryContent(data) && utf8.Valid(data)
}
