package caster

import "strings"

// request is the minimal parse of an incoming NTRIP request: the method,
// path, and Basic auth payload (if any), per spec.md §4.6 ("parse the
// first line as METHOD SP PATH SP VERSION and collect the Authorization
// header value").
type request struct {
	Method    string
	Path      string
	AuthBasic string
}

// parseRequest parses raw request bytes. ok is false if the first line
// does not look like "METHOD SP PATH SP VERSION".
func parseRequest(raw []byte) (request, bool) {
	text := string(raw)
	lines := strings.Split(text, "\n")
	if len(lines) == 0 {
		return request{}, false
	}

	firstLine := strings.TrimRight(lines[0], "\r")
	fields := strings.Fields(firstLine)
	if len(fields) != 3 {
		return request{}, false
	}

	req := request{Method: fields[0], Path: fields[1]}

	for _, line := range lines[1:] {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(name), "Authorization") {
			continue
		}
		value = strings.TrimSpace(value)
		const prefix = "Basic "
		if strings.HasPrefix(value, prefix) {
			req.AuthBasic = strings.TrimSpace(value[len(prefix):])
		}
	}

	return req, true
}
