// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cry

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"

	"github.com/kiln-chain/kiln/kiln"
)

// scrypt parameters for the keystore KDF
const (
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// keyFile is the on-disk form of a stored key. The secret is sealed with
// nacl secretbox under a scrypt-derived key.
type keyFile struct {
	Scheme  Scheme `json:"scheme"`
	Address string `json:"address"`
	Salt    string `json:"salt"`
	Nonce   string `json:"nonce"`
	Cipher  string `json:"cipher"`
}

// Entry describes one stored key without unsealing it.
type Entry struct {
	Alias   string
	Scheme  Scheme
	Address kiln.Address
}

// Keystore stores passphrase-encrypted keys as one JSON file per alias.
type Keystore struct {
	dir string
}

// NewKeystore opens (creating if needed) a keystore at dir.
func NewKeystore(dir string) (*Keystore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.Wrap(err, "create keystore dir")
	}
	return &Keystore{dir}, nil
}

func (ks *Keystore) path(alias string) string {
	return filepath.Join(ks.dir, alias+".json")
}

func deriveBoxKey(passphrase string, salt []byte) (*[32]byte, error) {
	derived, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, 32)
	if err != nil {
		return nil, err
	}
	var boxKey [32]byte
	copy(boxKey[:], derived)
	return &boxKey, nil
}

// Store seals key under passphrase and writes it as alias.
func (ks *Keystore) Store(alias string, key PrivateKey, passphrase string) error {
	if alias == "" || strings.ContainsAny(alias, "/\\") {
		return errors.Errorf("invalid alias %q", alias)
	}
	var salt [16]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return err
	}
	boxKey, err := deriveBoxKey(passphrase, salt[:])
	if err != nil {
		return err
	}
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return err
	}
	sealed := secretbox.Seal(nil, key.Bytes(), &nonce, boxKey)

	content, err := json.MarshalIndent(&keyFile{
		Scheme:  key.Scheme(),
		Address: key.Address().String(),
		Salt:    hex.EncodeToString(salt[:]),
		Nonce:   hex.EncodeToString(nonce[:]),
		Cipher:  hex.EncodeToString(sealed),
	}, "", "  ")
	if err != nil {
		return err
	}
	return errors.Wrap(os.WriteFile(ks.path(alias), content, 0600), "write key file")
}

// Load unseals the key stored as alias.
func (ks *Keystore) Load(alias, passphrase string) (PrivateKey, error) {
	content, err := os.ReadFile(ks.path(alias))
	if err != nil {
		return nil, errors.Wrap(err, "read key file")
	}
	var kf keyFile
	if err := json.Unmarshal(content, &kf); err != nil {
		return nil, errors.Wrap(err, "parse key file")
	}
	salt, err := hex.DecodeString(kf.Salt)
	if err != nil {
		return nil, errors.Wrap(err, "salt")
	}
	var nonce [24]byte
	nonceBytes, err := hex.DecodeString(kf.Nonce)
	if err != nil || len(nonceBytes) != len(nonce) {
		return nil, errors.New("malformed nonce")
	}
	copy(nonce[:], nonceBytes)
	sealed, err := hex.DecodeString(kf.Cipher)
	if err != nil {
		return nil, errors.Wrap(err, "cipher")
	}
	boxKey, err := deriveBoxKey(passphrase, salt)
	if err != nil {
		return nil, err
	}
	secret, ok := secretbox.Open(nil, sealed, &nonce, boxKey)
	if !ok {
		return nil, errors.New("wrong passphrase or corrupted key file")
	}
	return DecodeKey(kf.Scheme, secret)
}

// List enumerates stored keys in alias order.
func (ks *Keystore) List() ([]*Entry, error) {
	files, err := os.ReadDir(ks.dir)
	if err != nil {
		return nil, errors.Wrap(err, "read keystore dir")
	}
	entries := make([]*Entry, 0, len(files))
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		content, err := os.ReadFile(filepath.Join(ks.dir, name))
		if err != nil {
			return nil, errors.Wrap(err, "read key file")
		}
		var kf keyFile
		if err := json.Unmarshal(content, &kf); err != nil {
			continue // skip foreign files
		}
		addr, err := kiln.ParseAddress(kf.Address)
		if err != nil {
			continue
		}
		entries = append(entries, &Entry{
			Alias:   strings.TrimSuffix(name, ".json"),
			Scheme:  kf.Scheme,
			Address: *addr,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Alias < entries[j].Alias })
	return entries, nil
}
