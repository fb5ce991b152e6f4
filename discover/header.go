package discover

import (
	"context"
	"os"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/declgen/errors"
	"github.com/teranos/declgen/logger"
	"github.com/teranos/declgen/symbol"
)

var (
	blockCommentRe = regexp.MustCompile(`/\*[\s\S]*?\*/`)
	lineCommentRe  = regexp.MustCompile(`//[^\n]*`)
	multiSpaceRe   = regexp.MustCompile(`[ \t]+`)
	continuationRe = regexp.MustCompile(`\\\n`)

	defineRe = regexp.MustCompile(`(?m)^ ?# ?define (\w+) (.+?) ?$`)
	enumRe   = regexp.MustCompile(`(?:typedef\s+)?enum\s*(\w+)?\s*\{([^}]*)\}\s*(\w+)?\s*;`)
	structRe = regexp.MustCompile(`(?:typedef\s+)?struct\s*(\w+)?\s*\{([^{}]*)\}\s*(\w+)?\s*;`)
	funcRe   = regexp.MustCompile(`(?m)^ ?(?:(?:extern|static|inline|[A-Z][A-Z0-9_]*) )*` +
		`((?:(?:const|unsigned|signed|struct|enum|long|short) )*\w+(?: ?\*+)?(?: ?const)?(?: ?\*+)?) ?\b(\w+) ?` +
		`\(((?:[^()]|\([^()]*\))*)\) ?;`)
	funcPtrNameRe = regexp.MustCompile(`\(\s*\*\s*(\w+)\s*\)`)
	shiftRe       = regexp.MustCompile(`^(\S+)\s*<<\s*(\S+)$`)
	identRe       = regexp.MustCompile(`^[A-Za-z_]\w*$`)
)

// typeWords never name a parameter.
var typeWords = map[string]bool{
	"void": true, "char": true, "short": true, "int": true, "long": true,
	"float": true, "double": true, "signed": true, "unsigned": true,
	"bool": true, "_Bool": true, "const": true, "volatile": true,
	"struct": true, "enum": true, "union": true,
}

// notFunctions are words the prototype pattern can catch in inline bodies.
var notFunctions = map[string]bool{
	"return": true, "typedef": true, "if": true, "while": true, "for": true,
	"switch": true, "sizeof": true, "else": true, "case": true, "goto": true,
}

// HeaderSource discovers symbols from a C header.
type HeaderSource struct {
	Path   string
	Logger *zap.SugaredLogger
}

func (s *HeaderSource) Name() string {
	return "header:" + s.Path
}

func (s *HeaderSource) Discover(ctx context.Context) ([]symbol.Descriptor, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("header %s", s.Path)
		}
		return nil, errors.Wrapf(err, "failed to read header %s", s.Path)
	}

	symbols := ParseHeader(string(data))
	logger.OrNop(s.Logger).Infow("Parsed header",
		logger.FieldPath, s.Path,
		logger.FieldCount, len(symbols),
	)
	return symbols, nil
}

// ParseHeader extracts symbols from C header text, in this order:
// #define integer and string constants, enum values as integer constants,
// struct bodies as records, and function prototypes as callables.
// Within each group declarations keep file order. Anything the patterns
// cannot make sense of is skipped.
func ParseHeader(content string) []symbol.Descriptor {
	content = removeComments(content)
	content = normalizeWhitespace(content)

	var out []symbol.Descriptor
	known := make(map[string]int64)

	for _, m := range defineRe.FindAllStringSubmatch(content, -1) {
		name, value := m[1], strings.TrimSpace(m[2])
		if strings.HasPrefix(value, `"`) {
			if s, ok := parseStringLiteral(value); ok {
				out = append(out, symbol.String(name, s))
			}
			continue
		}
		if v, ok := parseIntExpr(value, known); ok {
			known[name] = v
			out = append(out, symbol.Int(name, v))
		}
	}

	for _, m := range enumRe.FindAllStringSubmatch(content, -1) {
		out = append(out, parseEnumValues(m[2], known)...)
	}

	for _, m := range structRe.FindAllStringSubmatch(content, -1) {
		name := m[3]
		if name == "" {
			name = m[1]
		}
		if name == "" {
			continue
		}
		out = append(out, symbol.NewRecord(name, parseStructFields(m[2])...))
	}

	for _, m := range funcRe.FindAllStringSubmatch(content, -1) {
		ret, name := normalizeType(m[1]), m[2]
		if notFunctions[name] || notFunctions[strings.Fields(ret)[0]] {
			continue
		}
		out = append(out, symbol.Func(name, parseParams(m[3]), ret))
	}

	return out
}

func removeComments(s string) string {
	s = blockCommentRe.ReplaceAllString(s, "")
	s = lineCommentRe.ReplaceAllString(s, "")
	return s
}

func normalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = continuationRe.ReplaceAllString(s, " ")
	s = multiSpaceRe.ReplaceAllString(s, " ")
	return s
}

func parseStringLiteral(s string) (string, bool) {
	if v, err := strconv.Unquote(s); err == nil {
		return v, true
	}
	if len(s) >= 2 && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1], true
	}
	return "", false
}

// parseIntExpr evaluates the integer forms headers use for constants:
// literals with optional suffixes, negation, parentheses, left shifts and
// references to constants seen earlier.
func parseIntExpr(s string, known map[string]int64) (int64, bool) {
	s = strings.TrimSpace(s)
	for strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if s == "" {
		return 0, false
	}

	if m := shiftRe.FindStringSubmatch(s); m != nil {
		a, ok1 := parseIntExpr(m[1], known)
		b, ok2 := parseIntExpr(m[2], known)
		if !ok1 || !ok2 || b < 0 || b > 62 {
			return 0, false
		}
		return a << b, true
	}

	if strings.HasPrefix(s, "-") {
		v, ok := parseIntExpr(s[1:], known)
		return -v, ok
	}

	if v, ok := known[s]; ok {
		return v, true
	}

	s = strings.TrimRight(s, "uUlL")
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		u, uerr := strconv.ParseUint(s, 0, 64)
		if uerr != nil {
			return 0, false
		}
		v = int64(u)
	}
	return v, true
}

func parseEnumValues(body string, known map[string]int64) []symbol.Descriptor {
	var out []symbol.Descriptor
	next, counting := int64(0), true

	for _, part := range strings.Split(body, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, expr, explicit := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if !identRe.MatchString(name) {
			continue
		}

		v := next
		if explicit {
			parsed, ok := parseIntExpr(expr, known)
			counting = ok
			if !ok {
				continue
			}
			v = parsed
		} else if !counting {
			// follows a member whose value could not be evaluated
			continue
		}

		known[name] = v
		out = append(out, symbol.Int(name, v))
		next = v + 1
	}
	return out
}

func parseStructFields(body string) []string {
	var fields []string

	for _, decl := range strings.Split(body, ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}

		if m := funcPtrNameRe.FindStringSubmatch(decl); m != nil {
			fields = append(fields, m[1])
			continue
		}

		// "int a, *b, c[4]" declares three fields
		parts := strings.Split(decl, ",")
		first := strings.Fields(parts[0])
		if len(first) < 2 {
			continue
		}
		parts[0] = first[len(first)-1]

		for _, p := range parts {
			name := strings.TrimSpace(p)
			name = strings.TrimLeft(name, "* ")
			if i := strings.IndexAny(name, "[:"); i >= 0 {
				name = strings.TrimSpace(name[:i])
			}
			if identRe.MatchString(name) {
				fields = append(fields, name)
			}
		}
	}
	return fields
}

// parseParams splits a prototype's parameter list into type descriptions
// with parameter names removed. "(void)" yields ["void"]; "()" yields none.
// Variadic "..." is dropped.
func parseParams(list string) []string {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil
	}

	var params []string
	for _, p := range splitTopLevel(list) {
		p = strings.TrimSpace(p)
		switch {
		case p == "" || p == "...":
			continue
		case strings.Contains(p, "("):
			params = append(params, p)
		default:
			params = append(params, paramType(p))
		}
	}
	return params
}

func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// paramType strips the parameter name from a declaration such as
// "const char *name" or "float m[4]".
func paramType(p string) string {
	array := ""
	if i := strings.Index(p, "["); i >= 0 {
		array = strings.ReplaceAll(p[i:], " ", "")
		p = p[:i]
	}

	tokens := tokenize(p)
	if n := len(tokens); n >= 2 {
		last, prev := tokens[n-1], tokens[n-2]
		if identRe.MatchString(last) && !typeWords[last] && prev != "struct" && prev != "enum" && prev != "union" {
			tokens = tokens[:n-1]
		}
	}
	return joinTokens(tokens) + array
}

// normalizeType renders pointer declarators the way interface descriptions
// spell them: "char*" and "char * *" both become "char **".
func normalizeType(s string) string {
	return joinTokens(tokenize(s))
}

func tokenize(s string) []string {
	return strings.Fields(strings.ReplaceAll(s, "*", " * "))
}

func joinTokens(tokens []string) string {
	var b strings.Builder
	for i, t := range tokens {
		if i > 0 && !(t == "*" && tokens[i-1] == "*") {
			b.WriteByte(' ')
		}
		b.WriteString(t)
	}
	return b.String()
}
