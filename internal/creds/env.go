package creds

import (
	"fmt"
	"os"
	"strings"
)

// EnvResolver resolves credential references of the form "env:NAME" from
// environment variables NAME_USER, NAME_PASSWORD, and NAME_KEY_FILE. At
// least one of password or key file must be present.
type EnvResolver struct{}

// Resolve implements Resolver.
func (EnvResolver) Resolve(ref string) (Credential, error) {
	name, ok := strings.CutPrefix(ref, "env:")
	if !ok || name == "" {
		return Credential{}, fmt.Errorf("%w: unsupported reference %q", ErrCredentialUnavailable, ref)
	}

	cred := Credential{
		User:     os.Getenv(name + "_USER"),
		Password: os.Getenv(name + "_PASSWORD"),
	}

	if keyFile := os.Getenv(name + "_KEY_FILE"); keyFile != "" {
		// #nosec G304
		key, err := os.ReadFile(keyFile)
		if err != nil {
			return Credential{}, fmt.Errorf("%w: reading key file for %q: %v", ErrCredentialUnavailable, ref, err)
		}
		cred.PrivateKey = key
	}

	if cred.Password == "" && len(cred.PrivateKey) == 0 {
		return Credential{}, fmt.Errorf("%w: no secret material for %q", ErrCredentialUnavailable, ref)
	}
	return cred, nil
}
