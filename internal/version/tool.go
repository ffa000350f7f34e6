package version

import (
	"strings"

	"nodekit/internal/apperr"
)

// ParseTool splits a "tool[@spec]" argument such as "node@18",
// "yarn@latest" or "@scope/pkg@^1.2". A missing spec means latest.
func ParseTool(arg string) (string, Spec, error) {
	in := strings.TrimSpace(arg)
	if in == "" {
		return "", Spec{}, apperr.New(apperr.CodeVersionParse, "empty tool reference")
	}
	search := in
	offset := 0
	if strings.HasPrefix(in, "@") {
		search = in[1:]
		offset = 1
	}
	if search == "" {
		return "", Spec{}, apperr.New(apperr.CodeVersionParse, "invalid tool reference %q", arg)
	}
	idx := strings.LastIndex(search, "@")
	if idx < 0 {
		return in, Spec{kind: Latest}, nil
	}
	name := in[:idx+offset]
	if name == "" || strings.HasSuffix(name, "/") {
		return "", Spec{}, apperr.New(apperr.CodeVersionParse, "invalid tool reference %q", arg)
	}
	spec, err := Parse(in[idx+offset+1:])
	if err != nil {
		return "", Spec{}, err
	}
	return name, spec, nil
}
