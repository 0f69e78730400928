package identifier

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// ErrInvalidPattern is returned when the configured identifier pattern does not compile.
var ErrInvalidPattern = errors.New("invalid identifier pattern")

// Delimiters accepted around a pattern stored in the "/body/flags" form.
const delimiters = "/#~%@!|+;,"

var patternCache sync.Map // pattern string -> *regexp.Regexp

// CompilePattern compiles an identifier pattern. The pattern is either delimited with trailing
// flags (e.g. "/^[0-9]{6,8}$/" or "#^abc$#i") or a bare Go regular expression.
// Supported flags are i, m, s, U and u (a no-op, matching is always UTF-8).
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	if re, ok := patternCache.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	expr, err := toGoSyntax(pattern)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err)
	}
	patternCache.Store(pattern, re)
	return re, nil
}

func toGoSyntax(pattern string) (string, error) {
	if len(pattern) < 2 || !strings.ContainsRune(delimiters, rune(pattern[0])) {
		return pattern, nil
	}
	delim := pattern[0]
	end := strings.LastIndexByte(pattern, delim)
	if end == 0 {
		return pattern, nil
	}
	body, flags := pattern[1:end], pattern[end+1:]

	var goFlags strings.Builder
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's', 'U':
			if !strings.ContainsRune(goFlags.String(), f) {
				goFlags.WriteRune(f)
			}
		case 'u':
		default:
			return "", fmt.Errorf("%w: %q: unsupported flag %q", ErrInvalidPattern, pattern, f)
		}
	}
	if goFlags.Len() == 0 {
		return body, nil
	}
	return "(?" + goFlags.String() + ")" + body, nil
}
