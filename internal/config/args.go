package config

import "strings"

// ArgsSourceName names the command-line property source in provenance reports.
const ArgsSourceName = "commandLineArgs"

// ParseArgs pulls --dotted.key=value arguments out of args. The remaining arguments
// are returned in order for the flag parser. Extraction stops at a bare "--".
func ParseArgs(args []string) (*MapSource, []string) {
	props := make(map[string]string)
	rest := make([]string, 0, len(args))

	for i, arg := range args {
		if arg == "--" {
			rest = append(rest, args[i:]...)
			break
		}
		key, value, ok := propertyArg(arg)
		if !ok {
			rest = append(rest, arg)
			continue
		}
		props[key] = value
	}

	return NewMapSource(ArgsSourceName, props), rest
}

// propertyArg splits "--a.b=value" into key and value. Keys need an inner dot.
func propertyArg(arg string) (string, string, bool) {
	if !strings.HasPrefix(arg, "--") {
		return "", "", false
	}
	key, value, ok := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
	if !ok || key == "" || !strings.Contains(key, ".") {
		return "", "", false
	}
	if strings.HasPrefix(key, ".") || strings.HasSuffix(key, ".") {
		return "", "", false
	}
	return key, value, true
}
