package listing

import (
	"regexp"

	"go.uber.org/zap"
)

// CompileFilter compiles an optional case-sensitive filter. Empty patterns
// mean no filter; invalid ones are logged and also mean no filter.
func CompileFilter(pattern string, log *zap.Logger) *regexp.Regexp {
	if pattern == "" {
		return nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		if log != nil {
			log.Warn("invalid listing filter ignored", zap.String("pattern", pattern), zap.Error(err))
		}
		return nil
	}
	return re
}

// Match reports whether s passes the filter; a nil filter passes everything.
func Match(re *regexp.Regexp, s string) bool {
	return re == nil || re.MatchString(s)
}
