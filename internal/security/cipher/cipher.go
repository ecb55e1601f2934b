// Package cipher cifra secretos pequeños (p.ej. secretos TOTP) para guardarlos en texto.
//
// Formato: AES-128/CBC/PKCS#7, clave = SHA-1(material)[:16], salida Base64 estándar.
//
// ModeLegacyZeroIV usa un IV fijo de 16 bytes en cero: el mismo plaintext con la misma
// clave produce siempre el mismo ciphertext. Es débil, pero es el formato de los datos
// ya cifrados y hay consumidores que dependen de la salida determinística. ModeRandomIV
// antepone un IV aleatorio al ciphertext y no es compatible con datos legacy.
package cipher

import (
	"bytes"
	"crypto/aes"
	stdcipher "crypto/cipher"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Mode selecciona cómo se maneja el IV.
type Mode string

const (
	ModeLegacyZeroIV Mode = "legacy-zero-iv"
	ModeRandomIV     Mode = "random-iv"
)

const keyLength = 16 // AES-128

var (
	ErrEncryptionFailed = errors.New("encryption failed")
	ErrDecryptionFailed = errors.New("decryption failed")
)

// ParseMode valida el modo configurado; vacío equivale a legacy.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeLegacyZeroIV:
		return ModeLegacyZeroIV, nil
	case ModeRandomIV:
		return ModeRandomIV, nil
	default:
		return "", fmt.Errorf("cipher: modo desconocido %q", s)
	}
}

// Encrypt cifra plaintext con la clave derivada de key (modo legacy).
func Encrypt(plaintext, key string) (string, error) {
	return encrypt([]byte(plaintext), []byte(key), ModeLegacyZeroIV)
}

// Decrypt descifra un valor producido por Encrypt.
func Decrypt(ciphertext, key string) (string, error) {
	pt, err := decrypt(ciphertext, []byte(key), ModeLegacyZeroIV)
	if err != nil {
		return "", err
	}
	return string(pt), nil
}

// Box fija clave y modo a partir de la configuración; es inmutable y segura para uso concurrente.
type Box struct {
	key  []byte
	mode Mode
}

// NewBox crea un Box. El material de clave no puede estar vacío.
func NewBox(keyMaterial string, mode Mode) (*Box, error) {
	if keyMaterial == "" {
		return nil, errors.New("cipher: clave vacía")
	}
	m, err := ParseMode(string(mode))
	if err != nil {
		return nil, err
	}
	return &Box{key: []byte(keyMaterial), mode: m}, nil
}

// Mode retorna el modo configurado.
func (b *Box) Mode() Mode { return b.mode }

func (b *Box) Encrypt(plaintext string) (string, error) {
	return encrypt([]byte(plaintext), b.key, b.mode)
}

func (b *Box) Decrypt(ciphertext string) (string, error) {
	pt, err := decrypt(ciphertext, b.key, b.mode)
	if err != nil {
		return "", err
	}
	return string(pt), nil
}

// deriveKey: nunca se usa el material crudo como clave AES.
func deriveKey(material []byte) []byte {
	sum := sha1.Sum(material)
	return sum[:keyLength]
}

func encrypt(plaintext, material []byte, mode Mode) (string, error) {
	if len(material) == 0 {
		return "", fmt.Errorf("%w: empty key", ErrEncryptionFailed)
	}
	block, err := aes.NewCipher(deriveKey(material))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncryptionFailed, err)
	}

	iv := make([]byte, aes.BlockSize)
	if mode == ModeRandomIV {
		if _, err := io.ReadFull(rand.Reader, iv); err != nil {
			return "", fmt.Errorf("%w: %w", ErrEncryptionFailed, err)
		}
	}

	padded := pad(plaintext, aes.BlockSize)
	out := make([]byte, len(padded))
	stdcipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)

	if mode == ModeRandomIV {
		out = append(iv, out...)
	}
	return base64.StdEncoding.EncodeToString(out), nil
}

func decrypt(ciphertext string, material []byte, mode Mode) ([]byte, error) {
	if len(material) == 0 {
		return nil, fmt.Errorf("%w: empty key", ErrDecryptionFailed)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(ciphertext))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}

	iv := make([]byte, aes.BlockSize)
	if mode == ModeRandomIV {
		if len(raw) < 2*aes.BlockSize {
			return nil, fmt.Errorf("%w: ciphertext too short", ErrDecryptionFailed)
		}
		copy(iv, raw[:aes.BlockSize])
		raw = raw[aes.BlockSize:]
	}
	if len(raw) == 0 || len(raw)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: input length %d is not a multiple of the block size", ErrDecryptionFailed, len(raw))
	}

	block, err := aes.NewCipher(deriveKey(material))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}
	out := make([]byte, len(raw))
	stdcipher.NewCBCDecrypter(block, iv).CryptBlocks(out, raw)

	pt, err := unpad(out, aes.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}
	return pt, nil
}

func pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(append([]byte{}, b...), bytes.Repeat([]byte{byte(n)}, n)...)
}

var errBadPadding = errors.New("bad padding")

func unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, errBadPadding
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size {
		return nil, errBadPadding
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, errBadPadding
		}
	}
	return b[:len(b)-n], nil
}
