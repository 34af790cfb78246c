package settings

import (
	"bytes"
	"fmt"

	"gopkg.in/ini.v1"
)

var iniOptions = ini.LoadOptions{
	IgnoreContinuation:      true,
	IgnoreInlineComment:     true,
	KeyValueDelimiters:      "=",
	SkipUnrecognizableLines: true,
}

// parseINI reads key=value lines. [section] headers prefix the keys that
// follow them; lines starting with #, ;, // or -- are comments and lines
// without a '=' are ignored.
func parseINI(data []byte) (Values, error) {
	f, err := ini.LoadSources(iniOptions, stripLineComments(data))
	if err != nil {
		return nil, fmt.Errorf("parsing ini: %w", err)
	}

	out := make(Values)
	for _, sec := range f.Sections() {
		prefix := sec.Name()
		if prefix == ini.DefaultSection {
			prefix = ""
		}
		for _, key := range sec.Keys() {
			out[join(prefix, key.Name())] = key.Value()
		}
	}
	return out, nil
}

// stripLineComments blanks // and -- lines, which go-ini would read as keys.
func stripLineComments(data []byte) []byte {
	lines := bytes.Split(data, []byte("\n"))
	for i, line := range lines {
		trimmed := bytes.TrimSpace(line)
		if bytes.HasPrefix(trimmed, []byte("//")) || bytes.HasPrefix(trimmed, []byte("--")) {
			lines[i] = nil
		}
	}
	return bytes.Join(lines, []byte("\n"))
}
