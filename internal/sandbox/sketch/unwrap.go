package sketch

import (
	"regexp"
	"strings"

	"github.com/GriffinCanCode/sketchbox/internal/sandbox"
)

// rawParam names the instance parameter for raw programs. It is unlikely to
// collide with program identifiers.
const rawParam = "__sketch"

// Program is a source ready to be wrapped in the instance function.
type Program struct {
	Body    string
	Param   string
	Wrapped bool
}

var constructorCall = regexp.MustCompile(`new\s+p5\s*\(`)

// Unwrap detects the legacy `new p5(function(p){ ... })` form and extracts its
// body. Code around the constructor call is kept. Raw programs, the primary
// format, are returned as is. A wrapper that is present but structurally
// broken yields a MalformedSourceError.
func Unwrap(source string) (Program, error) {
	for _, loc := range constructorCall.FindAllStringIndex(source, -1) {
		if !codeAt(source, loc[0]) {
			continue
		}
		s := &scanner{src: source, pos: loc[1]}
		param, ok := s.functionHead()
		if !ok {
			// new p5(sketch) with a named function: runs natively.
			continue
		}
		open := s.pos
		end, ok := s.matchClose(open, '{', '}')
		if !ok {
			return Program{}, &sandbox.MalformedSourceError{Reason: "unterminated sketch function body"}
		}
		body := source[open+1 : end]

		s.pos = end + 1
		s.skipSpace()
		if s.peek() == ',' {
			// Optional container argument, ignored: the runner owns the mount.
			close, ok := s.matchClose(loc[1]-1, '(', ')')
			if !ok {
				return Program{}, &sandbox.MalformedSourceError{Reason: "unbalanced parentheses in sketch constructor"}
			}
			s.pos = close
		}
		if s.peek() != ')' {
			return Program{}, &sandbox.MalformedSourceError{Reason: "missing closing parenthesis after sketch function"}
		}
		s.pos++
		s.skipSpace()
		if s.peek() == ';' {
			s.pos++
		}

		prefix := strings.TrimSpace(source[:loc[0]])
		prefix = strings.TrimSuffix(prefix, "=")
		prefix = trimDeclaration(prefix)
		suffix := source[s.pos:]

		var b strings.Builder
		if prefix != "" {
			b.WriteString(prefix)
			b.WriteString("\n")
		}
		b.WriteString(body)
		if strings.TrimSpace(suffix) != "" {
			b.WriteString("\n")
			b.WriteString(suffix)
		}
		return Program{Body: b.String(), Param: param, Wrapped: true}, nil
	}
	return Program{Body: source, Param: rawParam}, nil
}

var declTail = regexp.MustCompile(`(?:^|[;\n])(\s*(?:const|let|var)\s+[A-Za-z_$][\w$]*\s*)$`)

// trimDeclaration drops a dangling `const x =` left in front of the
// constructor call.
func trimDeclaration(prefix string) string {
	if m := declTail.FindStringSubmatchIndex(prefix); m != nil {
		return strings.TrimSpace(prefix[:m[2]])
	}
	return prefix
}

// codeAt reports whether offset i lies outside strings and comments.
func codeAt(src string, i int) bool {
	s := &scanner{src: src}
	for s.pos < i {
		if !s.skipNonCode() {
			s.pos++
		}
	}
	return s.pos == i
}

type scanner struct {
	src string
	pos int
}

func (s *scanner) peek() byte {
	if s.pos >= len(s.src) {
		return 0
	}
	return s.src[s.pos]
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			s.pos++
		case strings.HasPrefix(s.src[s.pos:], "//"), strings.HasPrefix(s.src[s.pos:], "/*"):
			s.skipNonCode()
		default:
			return
		}
	}
}

func (s *scanner) ident() string {
	start := s.pos
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if c == '_' || c == '$' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || s.pos > start && c >= '0' && c <= '9' {
			s.pos++
			continue
		}
		break
	}
	return s.src[start:s.pos]
}

func (s *scanner) expect(c byte) bool {
	s.skipSpace()
	if s.peek() != c {
		return false
	}
	s.pos++
	return true
}

// functionHead parses `function [name](param) {` or `(param) => {` or
// `param => {` and leaves pos on the opening brace.
func (s *scanner) functionHead() (string, bool) {
	s.skipSpace()
	start := s.pos
	var param string
	if strings.HasPrefix(s.src[s.pos:], "function") {
		s.pos += len("function")
		s.skipSpace()
		s.ident()
		if !s.expect('(') {
			return "", false
		}
		s.skipSpace()
		param = s.ident()
		if param == "" || !s.expect(')') {
			s.pos = start
			return "", false
		}
	} else {
		paren := s.expect('(')
		s.skipSpace()
		param = s.ident()
		if param == "" || paren && !s.expect(')') {
			s.pos = start
			return "", false
		}
		s.skipSpace()
		if !strings.HasPrefix(s.src[s.pos:], "=>") {
			s.pos = start
			return "", false
		}
		s.pos += 2
	}
	s.skipSpace()
	if s.peek() != '{' {
		s.pos = start
		return "", false
	}
	return param, true
}

// skipNonCode advances over a string, template or comment starting at pos and
// reports whether it did.
func (s *scanner) skipNonCode() bool {
	rest := s.src[s.pos:]
	switch {
	case strings.HasPrefix(rest, "//"):
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			s.pos += nl + 1
		} else {
			s.pos = len(s.src)
		}
		return true
	case strings.HasPrefix(rest, "/*"):
		if end := strings.Index(rest[2:], "*/"); end >= 0 {
			s.pos += end + 4
		} else {
			s.pos = len(s.src)
		}
		return true
	case len(rest) > 0 && (rest[0] == '"' || rest[0] == '\''):
		s.skipQuoted(rest[0])
		return true
	case len(rest) > 0 && rest[0] == '`':
		s.skipTemplate()
		return true
	}
	return false
}

func (s *scanner) skipQuoted(q byte) {
	s.pos++
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case '\\':
			s.pos += 2
		case q, '\n':
			s.pos++
			return
		default:
			s.pos++
		}
	}
}

func (s *scanner) skipTemplate() {
	s.pos++
	for s.pos < len(s.src) {
		switch {
		case s.src[s.pos] == '\\':
			s.pos += 2
		case s.src[s.pos] == '`':
			s.pos++
			return
		case strings.HasPrefix(s.src[s.pos:], "${"):
			end, ok := s.matchClose(s.pos+1, '{', '}')
			if !ok {
				s.pos = len(s.src)
				return
			}
			s.pos = end + 1
		default:
			s.pos++
		}
	}
}

// matchClose returns the index of the bracket closing the one at open.
func (s *scanner) matchClose(open int, opener, closer byte) (int, bool) {
	saved := s.pos
	defer func() { s.pos = saved }()

	s.pos = open + 1
	depth := 1
	for s.pos < len(s.src) {
		if s.skipNonCode() {
			continue
		}
		switch s.src[s.pos] {
		case opener:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return s.pos, true
			}
		}
		s.pos++
	}
	return 0, false
}
