package pasetotoken

import (
	"strings"

	paseto "aidanwoods.dev/go-paseto"
)

type Mode string

const (
	ModeLocal  Mode = "local"  // v4.local, one shared symmetric key
	ModePublic Mode = "public" // v4.public, ed25519 signing pair
)

// Keyring holds the key material for one mode. A public keyring loaded
// without its secret half can verify tokens but not issue them.
type Keyring struct {
	mode   Mode
	local  *paseto.V4SymmetricKey
	secret *paseto.V4AsymmetricSecretKey
	public *paseto.V4AsymmetricPublicKey
}

func (k Keyring) Mode() Mode { return k.mode }

func (k Keyring) CanIssue() bool {
	switch k.mode {
	case ModeLocal:
		return k.local != nil
	case ModePublic:
		return k.secret != nil
	}
	return false
}

// ParseKeyring decodes hex key material. In public mode the public half is
// derived from the secret when only the secret is given.
func ParseKeyring(mode Mode, localHex, secretHex, publicHex string) (Keyring, error) {
	localHex = strings.TrimSpace(localHex)
	secretHex = strings.TrimSpace(secretHex)
	publicHex = strings.TrimSpace(publicHex)

	switch mode {
	case ModeLocal:
		if localHex == "" {
			return Keyring{}, misconfigured("local mode needs local_key_hex")
		}
		k, err := paseto.V4SymmetricKeyFromHex(localHex)
		if err != nil {
			return Keyring{}, misconfigured("local_key_hex: %v", err)
		}
		return Keyring{mode: ModeLocal, local: &k}, nil

	case ModePublic:
		kr := Keyring{mode: ModePublic}
		if secretHex != "" {
			sk, err := paseto.NewV4AsymmetricSecretKeyFromHex(secretHex)
			if err != nil {
				return Keyring{}, misconfigured("secret_key_hex: %v", err)
			}
			pk := sk.Public()
			kr.secret, kr.public = &sk, &pk
		}
		if publicHex != "" {
			pk, err := paseto.NewV4AsymmetricPublicKeyFromHex(publicHex)
			if err != nil {
				return Keyring{}, misconfigured("public_key_hex: %v", err)
			}
			if kr.public != nil && kr.public.ExportHex() != pk.ExportHex() {
				return Keyring{}, misconfigured("public_key_hex does not match secret_key_hex")
			}
			kr.public = &pk
		}
		if kr.public == nil {
			return Keyring{}, misconfigured("public mode needs secret_key_hex or public_key_hex")
		}
		return kr, nil
	}
	return Keyring{}, misconfigured("unknown mode %q", mode)
}

// GenerateKeyring creates fresh key material for mode.
func GenerateKeyring(mode Mode) (Keyring, error) {
	switch mode {
	case ModeLocal:
		k := paseto.NewV4SymmetricKey()
		return Keyring{mode: mode, local: &k}, nil
	case ModePublic:
		sk := paseto.NewV4AsymmetricSecretKey()
		pk := sk.Public()
		return Keyring{mode: mode, secret: &sk, public: &pk}, nil
	}
	return Keyring{}, misconfigured("unknown mode %q", mode)
}

// Export returns the hex key material keyed by its config field name.
func (k Keyring) Export() map[string]string {
	out := map[string]string{}
	if k.local != nil {
		out["local_key_hex"] = k.local.ExportHex()
	}
	if k.secret != nil {
		out["secret_key_hex"] = k.secret.ExportHex()
	}
	if k.public != nil {
		out["public_key_hex"] = k.public.ExportHex()
	}
	return out
}
