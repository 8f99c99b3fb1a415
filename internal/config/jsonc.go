package config

import (
	"bytes"
)

// StripJSONComments removes // and /* */ comments from JSONC content
func StripJSONComments(data []byte) []byte {
	var out bytes.Buffer
	out.Grow(len(data))

	i := 0
	inString := false
	for i < len(data) {
		// Track string state (to avoid stripping inside strings)
		if data[i] == '"' && (i == 0 || data[i-1] != '\\') {
			inString = !inString
			out.WriteByte(data[i])
			i++
			continue
		}

		if !inString {
			// Line comment //
			if i+1 < len(data) && data[i] == '/' && data[i+1] == '/' {
				for i < len(data) && data[i] != '\n' {
					i++
				}
				continue
			}

			// Block comment /* */
			if i+1 < len(data) && data[i] == '/' && data[i+1] == '*' {
				i += 2
				for i+1 < len(data) {
					if data[i] == '*' && data[i+1] == '/' {
						i += 2
						break
					}
					i++
				}
				continue
			}
		}

		out.WriteByte(data[i])
		i++
	}

	return out.Bytes()
}
