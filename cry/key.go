// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package cry provides the signing key abstraction of the remote signer:
// ed25519 and secp256k1 keys behind one interface, plus an encrypted
// on-disk keystore.
package cry

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/pkg/errors"

	"github.com/kiln-chain/kiln/kiln"
)

// Scheme identifies a signature scheme.
type Scheme string

const (
	SchemeEd25519   Scheme = "ed25519"
	SchemeSecp256k1 Scheme = "secp256k1"
)

// PrivateKey is a signing key of one of the supported schemes. Sign operates
// on the blake2b digest of the message, so both schemes produce signatures
// over the same 32 bytes.
type PrivateKey interface {
	Scheme() Scheme
	// Public returns the serialized public key.
	Public() []byte
	// Address returns the public key hash.
	Address() kiln.Address
	Sign(msg []byte) ([]byte, error)
	// Bytes returns the serialized secret key.
	Bytes() []byte
}

// GenerateKey creates a fresh key of the given scheme.
func GenerateKey(scheme Scheme) (PrivateKey, error) {
	switch scheme {
	case SchemeEd25519:
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, err
		}
		return ed25519Key{priv}, nil
	case SchemeSecp256k1:
		priv, err := secp256k1.GeneratePrivateKey()
		if err != nil {
			return nil, err
		}
		return secp256k1Key{priv}, nil
	default:
		return nil, errors.Errorf("unknown scheme %q", scheme)
	}
}

// DecodeKey rebuilds a key from its serialized secret form.
func DecodeKey(scheme Scheme, secret []byte) (PrivateKey, error) {
	switch scheme {
	case SchemeEd25519:
		if len(secret) != ed25519.SeedSize {
			return nil, errors.Errorf("ed25519 seed must be %d bytes", ed25519.SeedSize)
		}
		return ed25519Key{ed25519.NewKeyFromSeed(secret)}, nil
	case SchemeSecp256k1:
		if len(secret) != 32 {
			return nil, errors.New("secp256k1 secret must be 32 bytes")
		}
		return secp256k1Key{secp256k1.PrivKeyFromBytes(secret)}, nil
	default:
		return nil, errors.Errorf("unknown scheme %q", scheme)
	}
}

// Verify checks sig over msg against a serialized public key.
func Verify(scheme Scheme, pub, msg, sig []byte) bool {
	digest := kiln.Blake2b(msg)
	switch scheme {
	case SchemeEd25519:
		if len(pub) != ed25519.PublicKeySize {
			return false
		}
		return ed25519.Verify(ed25519.PublicKey(pub), digest.Bytes(), sig)
	case SchemeSecp256k1:
		key, err := secp256k1.ParsePubKey(pub)
		if err != nil {
			return false
		}
		parsed, err := secpecdsa.ParseDERSignature(sig)
		if err != nil {
			return false
		}
		return parsed.Verify(digest.Bytes(), key)
	default:
		return false
	}
}

type ed25519Key struct {
	priv ed25519.PrivateKey
}

func (k ed25519Key) Scheme() Scheme { return SchemeEd25519 }

func (k ed25519Key) Public() []byte {
	return bytes.Clone(k.priv.Public().(ed25519.PublicKey))
}

func (k ed25519Key) Address() kiln.Address {
	return kiln.AddressFromPublicKey(k.Public())
}

func (k ed25519Key) Sign(msg []byte) ([]byte, error) {
	digest := kiln.Blake2b(msg)
	return ed25519.Sign(k.priv, digest.Bytes()), nil
}

func (k ed25519Key) Bytes() []byte {
	return bytes.Clone(k.priv.Seed())
}

type secp256k1Key struct {
	priv *secp256k1.PrivateKey
}

func (k secp256k1Key) Scheme() Scheme { return SchemeSecp256k1 }

func (k secp256k1Key) Public() []byte {
	return k.priv.PubKey().SerializeCompressed()
}

func (k secp256k1Key) Address() kiln.Address {
	return kiln.AddressFromPublicKey(k.Public())
}

func (k secp256k1Key) Sign(msg []byte) ([]byte, error) {
	digest := kiln.Blake2b(msg)
	return secpecdsa.Sign(k.priv, digest.Bytes()).Serialize(), nil
}

func (k secp256k1Key) Bytes() []byte {
	return k.priv.Serialize()
}
