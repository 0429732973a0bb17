package utils

import (
	"strings"

	"github.com/spf13/pflag"
)

// NormalizeArgs rewrites the single dash long flags of fs, like -np 4, to the
// double dash form. It stops at the program name.
func NormalizeArgs(fs *pflag.FlagSet, args []string) []string {
	var out []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" || a == "-" || !strings.HasPrefix(a, "-") {
			return append(out, args[i:]...)
		}
		name, _, hasValue := strings.Cut(strings.TrimLeft(a, "-"), "=")
		fl := fs.Lookup(name)
		if fl == nil && len(name) == 1 {
			fl = fs.ShorthandLookup(name)
		}
		if fl != nil && len(name) > 1 && !strings.HasPrefix(a, "--") {
			a = "-" + a
		}
		out = append(out, a)
		if fl != nil && !hasValue && len(fl.NoOptDefVal) == 0 && i+1 < len(args) {
			i++
			out = append(out, args[i])
		}
	}
	return out
}
