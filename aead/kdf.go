package aead

import (
	"crypto/sha512"
	"io"

	"golang.org/x/crypto/hkdf"

	"xdao.co/sealkit/keys"
)

const (
	headerInfo  = "sealkit/aead/header/v1"
	payloadInfo = "sealkit/aead/payload/v1"
)

// DeriveKeys derives the header and payload subkeys from master with
// HKDF-SHA512. Both have the master key's length. salt may be nil.
func DeriveKeys(master *keys.Material, salt []byte) (header, payload *keys.Material, err error) {
	secret, err := master.Bytes()
	if err != nil {
		return nil, nil, err
	}
	header, err = expand(secret, salt, headerInfo)
	if err != nil {
		return nil, nil, err
	}
	payload, err = expand(secret, salt, payloadInfo)
	if err != nil {
		header.Destroy()
		return nil, nil, err
	}
	return header, payload, nil
}

func expand(secret, salt []byte, info string) (*keys.Material, error) {
	out := make([]byte, len(secret))
	if _, err := io.ReadFull(hkdf.New(sha512.New, secret, salt, []byte(info)), out); err != nil {
		keys.Wipe(out)
		return nil, err
	}
	return keys.NewMaterial(out), nil
}
