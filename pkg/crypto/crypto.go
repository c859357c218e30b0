package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
)

// Cifrado at-rest para secretos de tenant (API keys de proveedores de IA).
// Sin clave configurada todo pasa en claro: instalaciones de desarrollo no
// están obligadas a definir APP_SECRET_KEY.

var key []byte

// SetEncryptionKey deriva la clave AES-256 del secreto de la aplicación.
func SetEncryptionKey(secret string) error {
	if secret == "" {
		return errors.New("encryption secret is empty")
	}
	sum := sha256.Sum256([]byte(secret))
	key = sum[:]
	return nil
}

// Encrypt sella el texto con AES-GCM (nonce antepuesto) y lo devuelve en
// base64. Sin clave configurada devuelve el texto tal cual.
func Encrypt(plain string) (string, error) {
	if len(key) == 0 {
		return plain, nil
	}

	gcm, err := newGCM()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt abre un valor producido por Encrypt. Valores que no parecen
// cifrados (base64 inválido, demasiado cortos) se devuelven tal cual para
// tolerar filas guardadas antes de configurar la clave.
func Decrypt(stored string) (string, error) {
	if len(key) == 0 {
		return stored, nil
	}

	raw, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return stored, nil
	}

	gcm, err := newGCM()
	if err != nil {
		return "", err
	}
	if len(raw) < gcm.NonceSize() {
		return stored, nil
	}

	nonce, sealed := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func newGCM() (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
