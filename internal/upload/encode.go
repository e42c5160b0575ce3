package upload

const base64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// EncodeChunk returns the standard padded base64 form of b. It walks the
// input three bytes at a time into a preallocated buffer so memory stays
// proportional to one chunk regardless of payload size.
func EncodeChunk(b []byte) string {
	out := make([]byte, (len(b)+2)/3*4)
	j := 0
	i := 0
	for ; i+3 <= len(b); i += 3 {
		v := uint(b[i])<<16 | uint(b[i+1])<<8 | uint(b[i+2])
		out[j] = base64Alphabet[v>>18&0x3f]
		out[j+1] = base64Alphabet[v>>12&0x3f]
		out[j+2] = base64Alphabet[v>>6&0x3f]
		out[j+3] = base64Alphabet[v&0x3f]
		j += 4
	}

	switch len(b) - i {
	case 1:
		v := uint(b[i]) << 16
		out[j] = base64Alphabet[v>>18&0x3f]
		out[j+1] = base64Alphabet[v>>12&0x3f]
		out[j+2] = '='
		out[j+3] = '='
	case 2:
		v := uint(b[i])<<16 | uint(b[i+1])<<8
		out[j] = base64Alphabet[v>>18&0x3f]
		out[j+1] = base64Alphabet[v>>12&0x3f]
		out[j+2] = base64Alphabet[v>>6&0x3f]
		out[j+3] = '='
	}
	return string(out)
}
