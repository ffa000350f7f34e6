package dispatch

import (
	"fmt"

	"nodekit/internal/apperr"
)

// NoGlobalInstallsError rejects a global package install. Package is empty
// when the command named none.
type NoGlobalInstallsError struct {
	Tool       string
	Package    string
	HasPackage bool
}

func (e *NoGlobalInstallsError) Error() string {
	target := "packages"
	if e.HasPackage {
		target = fmt.Sprintf("%q", e.Package)
	}
	return fmt.Sprintf("%s: global installs of %s are not supported; add it to the project with '%s' instead, or install it with 'nodekit fetch'",
		apperr.CodeNoGlobalInstall, target, localInstallHint(e.Tool))
}

func (e *NoGlobalInstallsError) Code() apperr.Code { return apperr.CodeNoGlobalInstall }

func localInstallHint(tool string) string {
	if tool == "yarn" {
		return "yarn add"
	}
	return "npm install"
}

// Policy controls interception.
type Policy struct {
	InterceptGlobalInstalls bool
}

var npmInstallCommands = map[string]struct{}{
	"install": {},
	"i":       {},
	"isntall": {},
	"add":     {},
}

// Intercept decides from the argument vector alone whether the invocation
// must be refused. args[0] is the program name.
func Intercept(tool string, args []string, policy Policy) error {
	if !policy.InterceptGlobalInstalls {
		return nil
	}
	switch tool {
	case "npm":
		if pkg, ok, global := npmGlobalInstall(args); global {
			return &NoGlobalInstallsError{Tool: tool, Package: pkg, HasPackage: ok}
		}
	case "yarn":
		if pkg, ok, global := yarnGlobalAdd(args); global {
			return &NoGlobalInstallsError{Tool: tool, Package: pkg, HasPackage: ok}
		}
	}
	return nil
}

// npmGlobalInstall needs -g or --global anywhere, and an install command as
// the first non-flag argument after the program name. The next non-flag
// argument, if any, is the package.
func npmGlobalInstall(args []string) (pkg string, hasPkg bool, global bool) {
	found := false
	for _, a := range args {
		if a == "-g" || a == "--global" {
			found = true
			break
		}
	}
	if !found {
		return "", false, false
	}
	rest := positional(args)
	if len(rest) == 0 {
		return "", false, false
	}
	if _, ok := npmInstallCommands[rest[0]]; !ok {
		return "", false, false
	}
	if len(rest) > 1 {
		return rest[1], true, true
	}
	return "", false, true
}

// yarnGlobalAdd matches "yarn global add <pkg>".
func yarnGlobalAdd(args []string) (pkg string, hasPkg bool, global bool) {
	rest := positional(args)
	if len(rest) < 2 || rest[0] != "global" || rest[1] != "add" {
		return "", false, false
	}
	if len(rest) > 2 {
		return rest[2], true, true
	}
	return "", false, true
}

// positional drops the program name and every flag token.
func positional(args []string) []string {
	if len(args) == 0 {
		return nil
	}
	var out []string
	for _, a := range args[1:] {
		if len(a) > 0 && a[0] == '-' {
			continue
		}
		out = append(out, a)
	}
	return out
}
