// Package atomicwrite escribe archivos de secretos (.env, claves) sin dejar
// archivos a medio escribir: tmp en el mismo dir, fsync y rename.
package atomicwrite

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// WriteFile escribe data en path de forma atómica con permisos perm.
// Si rename falla (Windows con el destino bloqueado) intenta remove+rename.
func WriteFile(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if err := tmp.Chmod(perm); err != nil {
		return fmt.Errorf("chmod temp: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("fsync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(path)
		if err2 := os.Rename(tmpPath, path); err2 != nil {
			return fmt.Errorf("rename: %v (after remove: %v)", err, err2)
		}
	}
	return nil
}

// SetEnv agrega o reemplaza key=value en el archivo .env de path (lo crea si no existe).
// El archivo resultante queda con permisos 0600 y claves ordenadas.
func SetEnv(path, key, value string) error {
	if key == "" {
		return errors.New("atomicwrite: empty env key")
	}
	env := map[string]string{}
	if _, err := os.Stat(path); err == nil {
		env, err = godotenv.Read(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	env[key] = value

	out, err := godotenv.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal env: %w", err)
	}
	return WriteFile(path, []byte(out+"\n"), 0o600)
}
