package keys

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"xdao.co/sealkit/faults"
)

// KeyStore is a filesystem-backed store of named master keys.
//
// EXPERIMENTAL: layout is <Directory>/<name>/master.key (hex, 0600) plus an
// <name>/id file holding a random UUID assigned at creation.
type KeyStore struct {
	Directory string
}

type KeyEntry struct {
	Name string
	ID   string
	Size int
	Path string
}

// ErrKeyExists is returned when creating a key whose name is already taken.
var ErrKeyExists = errors.New("key already exists")

func GetDefaultDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".sealkit", "keys"), nil
}

func CreateKeyStore(directory string) (*KeyStore, error) {
	if directory == "" {
		var err error
		directory, err = GetDefaultDirectory()
		if err != nil {
			return nil, err
		}
	}
	return &KeyStore{Directory: directory}, nil
}

func (ks *KeyStore) keyPath(name string) string {
	return filepath.Join(ks.Directory, name, "master.key")
}

func (ks *KeyStore) idPath(name string) string {
	return filepath.Join(ks.Directory, name, "id")
}

// ParseKeyHex decodes a hex master key. An optional 0x prefix and surrounding
// whitespace are ignored.
func ParseKeyHex(keyHex string) ([]byte, error) {
	keyHex = strings.TrimSpace(keyHex)
	keyHex = strings.TrimPrefix(keyHex, "0x")
	data, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, faults.Wrap(faults.InvalidKeyLength, "key is not valid hex", err)
	}
	if len(data) == 0 {
		return nil, faults.New(faults.InvalidKeyLength, "key is empty")
	}
	return data, nil
}

func writeExclusive(path string, data []byte, overwrite bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	file, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrKeyExists, path)
		}
		return err
	}
	defer file.Close()
	if _, err := file.Write(data); err != nil {
		return err
	}
	return file.Close()
}

func (ks *KeyStore) save(name string, key *Material, overwrite bool) (KeyEntry, error) {
	if err := CheckKeyName(name); err != nil {
		return KeyEntry{}, err
	}
	b, err := key.Bytes()
	if err != nil {
		return KeyEntry{}, err
	}
	encoded := []byte(hex.EncodeToString(b) + "\n")
	defer Wipe(encoded)

	path := ks.keyPath(name)
	if err := writeExclusive(path, encoded, overwrite); err != nil {
		return KeyEntry{}, err
	}
	id := uuid.NewString()
	if err := writeExclusive(ks.idPath(name), []byte(id+"\n"), true); err != nil {
		return KeyEntry{}, err
	}
	return KeyEntry{Name: name, ID: id, Size: len(b), Path: path}, nil
}

// Generate creates a random master key of size bytes under name.
func (ks *KeyStore) Generate(name string, size int, overwrite bool) (KeyEntry, error) {
	key, err := RandomMaterial(size)
	if err != nil {
		return KeyEntry{}, err
	}
	defer key.Destroy()
	return ks.save(name, key, overwrite)
}

// Import stores an existing hex-encoded master key under name.
func (ks *KeyStore) Import(name, keyHex string, overwrite bool) (KeyEntry, error) {
	raw, err := ParseKeyHex(keyHex)
	if err != nil {
		return KeyEntry{}, err
	}
	key := NewMaterial(raw)
	defer key.Destroy()
	return ks.save(name, key, overwrite)
}

// Load reads the named master key into guarded memory.
func (ks *KeyStore) Load(name string) (*Material, error) {
	if err := CheckKeyName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(ks.keyPath(name))
	if err != nil {
		return nil, err
	}
	defer Wipe(data)
	raw, err := ParseKeyHex(string(data))
	if err != nil {
		return nil, err
	}
	return NewMaterial(raw), nil
}

// Getter returns a Getter that loads the named key on every call.
func (ks *KeyStore) Getter(name string) Getter {
	return GetterFunc(func(ctx context.Context) (*Material, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return ks.Load(name)
	})
}

// RoleSeed derives the signing seed for role from the named master key.
func (ks *KeyStore) RoleSeed(name, role string) ([]byte, error) {
	key, err := ks.Load(name)
	if err != nil {
		return nil, err
	}
	defer key.Destroy()
	b, err := key.Bytes()
	if err != nil {
		return nil, err
	}
	return DeriveRoleSeed(b, role)
}

// Entry describes the named key without loading it into memory for longer
// than needed to measure it.
func (ks *KeyStore) Entry(name string) (KeyEntry, error) {
	key, err := ks.Load(name)
	if err != nil {
		return KeyEntry{}, err
	}
	size := key.Len()
	key.Destroy()

	id := ""
	if b, err := os.ReadFile(ks.idPath(name)); err == nil {
		id = strings.TrimSpace(string(b))
	}
	return KeyEntry{Name: name, ID: id, Size: size, Path: ks.keyPath(name)}, nil
}

func (ks *KeyStore) List() ([]KeyEntry, error) {
	entries, err := os.ReadDir(ks.Directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() && CheckKeyName(entry.Name()) == nil {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var result []KeyEntry
	for _, name := range names {
		e, err := ks.Entry(name)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		result = append(result, e)
	}
	return result, nil
}
