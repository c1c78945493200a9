package provider

import (
	"fmt"
	"sort"
	"strings"
)

// The remote catalog of idempotent operations. Every plan action must name
// one of these; the remote side implements them behind a single apply
// helper so the wire contract stays uniform.
const (
	ActionProbe          = "probe"
	ActionInstallFeature = "install-feature"
	ActionCreateDomain   = "create-domain"
	ActionCreateUser     = "create-user"
	ActionJoinDomain     = "join-domain"
	ActionSetDNS         = "set-dns"
	ActionInstallPackage = "install-package"
	ActionReboot         = "reboot"
)

// Catalog lists every known action name.
var Catalog = []string{
	ActionProbe,
	ActionInstallFeature,
	ActionCreateDomain,
	ActionCreateUser,
	ActionJoinDomain,
	ActionSetDNS,
	ActionInstallPackage,
	ActionReboot,
}

// InCatalog reports whether name is a known catalog operation.
func InCatalog(name string) bool {
	for _, n := range Catalog {
		if n == name {
			return true
		}
	}
	return false
}

// renderCommand builds the remote command line for one invocation.
//
// The remote contract is a single apply helper installed on every target:
//
//	provost-apply <action> [key=value ...]
//
// The helper is idempotent per action, exits 0 on success, and reports
// state transitions on stdout: a line "changed" when the side effect was
// applied and a line "reboot-required" when the target needs a reboot
// before further work. All other output is diagnostic text.
func renderCommand(name string, params map[string]string) (string, error) {
	if !InCatalog(name) {
		return "", fmt.Errorf("action %q is not in the remote catalog", name)
	}

	parts := []string{"provost-apply", name}

	// Stable ordering keeps the rendered command deterministic.
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		parts = append(parts, shellQuote(k+"="+params[k]))
	}

	return strings.Join(parts, " "), nil
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n\"'`$\\!*?[]{}()<>|&;~#") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
