package executor

import (
	"regexp"
	"strings"
)

var safeToken = regexp.MustCompile(`^[A-Za-z0-9_./:=,@%+-]+$`)

// ShellJoin renders argv as a single remote shell command line.
func ShellJoin(argv []string) string {
	return strings.Join(quoteArgs(argv), " ")
}

// singleQuote wraps a string in single quotes, escaping any embedded single quotes.
func singleQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "'\\''") + "'"
}

// quoteArgs leaves plain tokens alone and single-quotes everything else.
func quoteArgs(args []string) []string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		if safeToken.MatchString(arg) {
			quoted[i] = arg
			continue
		}
		quoted[i] = singleQuote(arg)
	}
	return quoted
}
