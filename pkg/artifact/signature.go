package artifact

import (
	"fmt"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// verifySignature checks a detached PGP signature over the artifact at
// signedPath against the armored keyring at keyringPath. Armored
// signatures are tried first, then binary ones.
func verifySignature(keyringPath, signedPath, sigPath string) error {
	kf, err := os.Open(keyringPath)
	if err != nil {
		return fmt.Errorf("open keyring: %w", err)
	}
	defer kf.Close()

	keyring, err := openpgp.ReadArmoredKeyRing(kf)
	if err != nil {
		return fmt.Errorf("read keyring: %w", err)
	}

	signed, err := os.Open(signedPath)
	if err != nil {
		return fmt.Errorf("open signed file: %w", err)
	}
	defer signed.Close()

	sig, err := os.Open(sigPath)
	if err != nil {
		return fmt.Errorf("open signature: %w", err)
	}
	defer sig.Close()

	_, err = openpgp.CheckArmoredDetachedSignature(keyring, signed, sig, nil)
	if err != nil {
		signed.Seek(0, io.SeekStart)
		sig.Seek(0, io.SeekStart)
		_, err = openpgp.CheckDetachedSignature(keyring, signed, sig, nil)
	}
	if err != nil {
		return fmt.Errorf("verify signature: %w", err)
	}
	return nil
}
