package aead

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"xdao.co/sealkit/binproto"
	"xdao.co/sealkit/faults"
	"xdao.co/sealkit/keys"
)

const (
	MinLayers = 4
	MaxLayers = 19
)

// Params carries the optional inputs of one seal or open call.
type Params struct {
	// AAD is bound to the header and must match between Seal and Open.
	AAD []byte
	// Salt is passed to HKDF. nil and empty are equivalent.
	Salt []byte
	// Mask XORs every IV, ciphertext and tag on the wire. Empty disables it.
	Mask []byte
}

// Opened is the result of a successful Open.
type Opened struct {
	Plaintext []byte
	Mode      Mode
	Created   time.Time
}

// Sealer seals and opens envelopes for one master-key context. It owns the
// nonce source used for every IV it generates and is safe for concurrent use.
type Sealer struct {
	getter keys.Getter
	nonces NonceSource
	rand   io.Reader
	now    func() time.Time
	log    zerolog.Logger
}

type Option func(*Sealer)

// WithNonceSource replaces the default CounterNonces.
func WithNonceSource(n NonceSource) Option {
	return func(s *Sealer) { s.nonces = n }
}

// WithRand makes the default CounterNonces draw randomness from r. It has no
// effect when WithNonceSource is also given.
func WithRand(r io.Reader) Option {
	return func(s *Sealer) { s.rand = r }
}

func WithClock(now func() time.Time) Option {
	return func(s *Sealer) { s.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Sealer) { s.log = l }
}

func NewSealer(getter keys.Getter, opts ...Option) *Sealer {
	s := &Sealer{
		getter: getter,
		now:    time.Now,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.nonces == nil {
		c := NewCounterNonces(s.rand)
		log := s.log
		c.onRegenerate = func(prefixLen int) {
			log.Debug().Int("prefix_len", prefixLen).Msg("nonce prefix regenerated")
		}
		s.nonces = c
	}
	return s
}

// masterKey fetches the key and checks it against mode. The caller must
// Destroy the result.
func (s *Sealer) masterKey(ctx context.Context) (*keys.Material, error) {
	if s.getter == nil {
		return nil, faults.New(faults.KeyUnavailable, "no key getter configured")
	}
	m, err := s.getter.Key(ctx)
	if err != nil {
		return nil, faults.Wrap(faults.KeyUnavailable, "key getter failed", err)
	}
	if m == nil {
		return nil, faults.New(faults.KeyUnavailable, "key getter returned no key")
	}
	return m, nil
}

// Seal encrypts plaintext into a single-layer envelope.
func (s *Sealer) Seal(ctx context.Context, mode Mode, plaintext []byte, p Params) ([]byte, error) {
	if !mode.Valid() {
		return nil, faults.New(faults.UnknownMode, "invalid mode").With("agid", uint8(mode.alg))
	}
	master, err := s.masterKey(ctx)
	if err != nil {
		return nil, err
	}
	defer master.Destroy()
	if err := mode.CheckKeySize(master.Len()); err != nil {
		return nil, err
	}
	return s.sealOnce(mode, master, plaintext, p)
}

// SealLayered seals plaintext repeatedly, each round sealing the previous
// round's envelope. layers is clamped to [MinLayers, MaxLayers].
func (s *Sealer) SealLayered(ctx context.Context, mode Mode, plaintext []byte, layers int, p Params) ([]byte, error) {
	if !mode.Valid() {
		return nil, faults.New(faults.UnknownMode, "invalid mode").With("agid", uint8(mode.alg))
	}
	master, err := s.masterKey(ctx)
	if err != nil {
		return nil, err
	}
	defer master.Destroy()
	if err := mode.CheckKeySize(master.Len()); err != nil {
		return nil, err
	}

	n := ClampLayers(layers)
	cur := plaintext
	for i := 0; i < n; i++ {
		cur, err = s.sealOnce(mode, master, cur, p)
		if err != nil {
			return nil, err
		}
		s.log.Debug().Int("round", i+1).Int("layers", n).Int("size", len(cur)).Msg("layer sealed")
	}
	return marshalLayered(n, cur), nil
}

// ClampLayers bounds a requested layer count to [MinLayers, MaxLayers].
func ClampLayers(n int) int {
	return min(max(n, MinLayers), MaxLayers)
}

func (s *Sealer) sealOnce(mode Mode, master *keys.Material, plaintext []byte, p Params) ([]byte, error) {
	headerKey, payloadKey, err := DeriveKeys(master, p.Salt)
	if err != nil {
		return nil, err
	}
	defer headerKey.Destroy()
	defer payloadKey.Destroy()

	headerIV, err := s.nonces.Next(mode.IVLen())
	if err != nil {
		return nil, err
	}
	dataIV, err := s.nonces.Next(mode.IVLen())
	if err != nil {
		return nil, err
	}

	header, err := s.headerPlaintext()
	if err != nil {
		return nil, err
	}

	hk, err := headerKey.Bytes()
	if err != nil {
		return nil, err
	}
	headerCT, headerTag, err := seal(mode, hk, headerIV, header, p.AAD)
	if err != nil {
		return nil, err
	}
	pk, err := payloadKey.Bytes()
	if err != nil {
		return nil, err
	}
	dataCT, dataTag, err := seal(mode, pk, dataIV, plaintext, headerCT)
	if err != nil {
		return nil, err
	}

	env := &Envelope{
		Version:   Version,
		Algorithm: mode.alg,
		KeyLen:    master.Len(),
		HeaderIV:  Mask(headerIV, p.Mask),
		HeaderCT:  Mask(headerCT, p.Mask),
		HeaderTag: Mask(headerTag, p.Mask),
		DataIV:    Mask(dataIV, p.Mask),
		DataCT:    Mask(dataCT, p.Mask),
		DataTag:   Mask(dataTag, p.Mask),
	}
	s.log.Debug().Str("mode", mode.Name()).Int("size", len(plaintext)).Bool("masked", len(p.Mask) > 0).Msg("envelope sealed")
	return env.MarshalBinary()
}

func (s *Sealer) headerPlaintext() ([]byte, error) {
	w := binproto.NewWriter()
	if err := binproto.Encode(w, binproto.Uint32(Version)); err != nil {
		return nil, err
	}
	if err := binproto.Encode(w, binproto.NewInt64(s.now().UnixMilli())); err != nil {
		return nil, err
	}
	return w.Drain().Bytes(), nil
}

func parseHeaderPlaintext(b []byte) (time.Time, error) {
	r := binproto.NewReaderBytes(b)
	version, err := readField[binproto.Uint32](r, "header_version")
	if err != nil {
		return time.Time{}, err
	}
	if uint32(version) != Version {
		return time.Time{}, faults.New(faults.UnsupportedVersion, "unsupported header version").
			With("version", uint32(version)).With("want", Version)
	}
	ts, err := readField[binproto.Int64](r, "header_timestamp")
	if err != nil {
		return time.Time{}, err
	}
	if !ts.V.IsInt64() || !r.Exhausted() {
		return time.Time{}, faults.New(faults.MalformedEnvelope, "malformed header plaintext")
	}
	return time.UnixMilli(ts.V.Int64()).UTC(), nil
}

// Open authenticates and decrypts a single-layer envelope. Both tags are
// verified before any plaintext is returned.
func (s *Sealer) Open(ctx context.Context, envelope []byte, p Params) (*Opened, error) {
	env, err := ParseEnvelope(envelope)
	if err != nil {
		return nil, err
	}
	mode, err := ResolveMode(env.Algorithm)
	if err != nil {
		return nil, err
	}

	master, err := s.masterKey(ctx)
	if err != nil {
		return nil, err
	}
	defer master.Destroy()
	if env.KeyLen != master.Len() {
		return nil, faults.New(faults.KeyLengthMismatch, "envelope key length does not match master key").
			With("envelope", env.KeyLen).With("key", master.Len())
	}
	if err := mode.CheckKeySize(env.KeyLen); err != nil {
		return nil, err
	}

	headerIV := Mask(env.HeaderIV, p.Mask)
	dataIV := Mask(env.DataIV, p.Mask)
	for _, iv := range [][]byte{headerIV, dataIV} {
		if len(iv) != mode.IVLen() {
			return nil, faults.New(faults.IVLength, "envelope iv length does not match mode").
				With("mode", mode.Name()).With("size", len(iv)).With("want", mode.IVLen())
		}
	}

	headerKey, payloadKey, err := DeriveKeys(master, p.Salt)
	if err != nil {
		return nil, err
	}
	defer headerKey.Destroy()
	defer payloadKey.Destroy()

	headerCT := Mask(env.HeaderCT, p.Mask)
	hk, err := headerKey.Bytes()
	if err != nil {
		return nil, err
	}
	header, err := open(mode, hk, headerIV, headerCT, Mask(env.HeaderTag, p.Mask), p.AAD)
	if err != nil {
		return nil, err
	}
	created, err := parseHeaderPlaintext(header)
	if err != nil {
		return nil, err
	}

	pk, err := payloadKey.Bytes()
	if err != nil {
		return nil, err
	}
	plaintext, err := open(mode, pk, dataIV, Mask(env.DataCT, p.Mask), Mask(env.DataTag, p.Mask), headerCT)
	if err != nil {
		return nil, err
	}
	return &Opened{Plaintext: plaintext, Mode: mode, Created: created}, nil
}

// IsEnvelope reports whether b starts with the envelope magic.
func IsEnvelope(b []byte) bool {
	return len(b) > len(Magic) && bytes.Equal(b[:len(Magic)], []byte(Magic))
}
