// envelope_vector_gen prints deterministic envelope vectors as JSON. Each
// vector is sealed with a fixed key, a fixed clock and FixedNonces so the
// output only changes when the wire format does.
package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"xdao.co/sealkit/aead"
	"xdao.co/sealkit/cidutil"
	"xdao.co/sealkit/keys"
)

type vector struct {
	Name      string `json:"name"`
	Mode      string `json:"mode"`
	KeyHex    string `json:"key_hex"`
	AADHex    string `json:"aad_hex,omitempty"`
	SaltHex   string `json:"salt_hex,omitempty"`
	MaskHex   string `json:"mask_hex,omitempty"`
	Plaintext string `json:"plaintext"`
	Layers    int    `json:"layers,omitempty"`
	Envelope  string `json:"envelope_hex"`
	CID       string `json:"cid"`
}

type input struct {
	name   string
	mode   aead.Mode
	keyLen int
	keyB   byte
	params aead.Params
	pt     string
	layers int
}

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

var inputs = []input{
	{name: "gcm-128", mode: aead.AESGCM, keyLen: 16, keyB: 0x01, pt: "hello"},
	{name: "gcm-256-aad", mode: aead.AESGCM, keyLen: 32, keyB: 0x02, pt: "hello", params: aead.Params{AAD: []byte("header")}},
	{name: "ccm-192-salt", mode: aead.AESCCM, keyLen: 24, keyB: 0x03, pt: "salted", params: aead.Params{Salt: []byte{0xc0, 0xff, 0xee}}},
	{name: "chacha-masked", mode: aead.ChaCha20Poly1305, keyLen: 32, keyB: 0x04, pt: "masked", params: aead.Params{Mask: []byte{0x5a, 0xa5}}},
	{name: "gcm-empty", mode: aead.AESGCM, keyLen: 32, keyB: 0x05, pt: ""},
	{name: "chacha-layered", mode: aead.ChaCha20Poly1305, keyLen: 32, keyB: 0x06, pt: "deep", layers: 4},
}

func generate() ([]vector, error) {
	out := make([]vector, 0, len(inputs))
	for _, in := range inputs {
		key := bytes.Repeat([]byte{in.keyB}, in.keyLen)
		keyHex := hex.EncodeToString(key)
		g := keys.Static(key)
		sealer := aead.NewSealer(g,
			aead.WithNonceSource(&aead.FixedNonces{}),
			aead.WithClock(func() time.Time { return epoch }),
		)

		var env []byte
		var err error
		if in.layers > 0 {
			env, err = sealer.SealLayered(context.Background(), in.mode, []byte(in.pt), in.layers, in.params)
		} else {
			env, err = sealer.Seal(context.Background(), in.mode, []byte(in.pt), in.params)
		}
		g.Destroy()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", in.name, err)
		}
		out = append(out, vector{
			Name:      in.name,
			Mode:      in.mode.Name(),
			KeyHex:    keyHex,
			AADHex:    hex.EncodeToString(in.params.AAD),
			SaltHex:   hex.EncodeToString(in.params.Salt),
			MaskHex:   hex.EncodeToString(in.params.Mask),
			Plaintext: in.pt,
			Layers:    in.layers,
			Envelope:  hex.EncodeToString(env),
			CID:       cidutil.String(env),
		})
	}
	return out, nil
}

func write(w io.Writer) error {
	vs, err := generate()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(vs)
}

func main() {
	if err := write(os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
