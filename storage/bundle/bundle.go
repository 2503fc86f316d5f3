// Package bundle moves sealed envelopes between stores as a deterministic TAR
// archive.
//
// Layout:
//
//	envelopes/<cid>   raw envelope bytes
//	index.json        optional, non-authoritative framing summary
//
// Envelopes are never decrypted; only their framing is checked.
package bundle

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"xdao.co/sealkit/cidutil"
	"xdao.co/sealkit/storage"
)

// FormatVersion is the current bundle index schema version.
const FormatVersion = 1

const entryPrefix = "envelopes/"

var epoch0 = time.Unix(0, 0).UTC()

// ExportOptions controls bundle export behavior.
type ExportOptions struct {
	// Labels is optional, non-authoritative metadata mapping names to CIDs.
	Labels map[string]cid.Cid
	// IncludeIndex controls whether index.json is included.
	IncludeIndex bool
}

// Export writes a deterministic TAR bundle containing the envelopes for ids.
//
// Entry order is lexicographic by CID and TAR headers are normalized, so the
// same set of ids always yields the same bytes. Every object is verified
// against its CID and must parse as an envelope.
func Export(ctx context.Context, w io.Writer, cas storage.CAS, ids []cid.Cid, opts ExportOptions) (err error) {
	if cas == nil {
		return errors.New("bundle: nil CAS")
	}

	uniq := make(map[string]cid.Cid, len(ids))
	for _, id := range ids {
		if !id.Defined() {
			return storage.ErrInvalidCID
		}
		uniq[id.String()] = id
	}
	names := make([]string, 0, len(uniq))
	for s := range uniq {
		names = append(names, s)
	}
	sort.Strings(names)

	tw := tar.NewWriter(w)
	defer func() {
		if cerr := tw.Close(); err == nil {
			err = cerr
		}
	}()

	entries := make([]IndexEntry, 0, len(names))
	for _, s := range names {
		id := uniq[s]
		b, info, err := storage.GetEnvelope(ctx, cas, id)
		if err != nil {
			return fmt.Errorf("bundle: %s: %w", s, err)
		}
		if err := cidutil.Verify(id, b); err != nil {
			return storage.ErrCIDMismatch
		}
		if err := writeFile(tw, entryPrefix+s, b); err != nil {
			return err
		}
		entries = append(entries, IndexEntry{
			CID:     s,
			Size:    len(b),
			Mode:    info.Mode,
			Layers:  info.Layers,
			Version: info.Version,
		})
	}

	if !opts.IncludeIndex {
		return nil
	}
	idx := Index{
		Version:   FormatVersion,
		CIDCodec:  "raw",
		Multihash: "sha2-256",
		Envelopes: entries,
	}
	if len(opts.Labels) > 0 {
		keys := make([]string, 0, len(opts.Labels))
		for k := range opts.Labels {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if k == "" {
				return errors.New("bundle: empty label key")
			}
			v := opts.Labels[k]
			if !v.Defined() {
				return storage.ErrInvalidCID
			}
			idx.Labels = append(idx.Labels, IndexLabel{Name: k, CID: v.String()})
		}
	}
	b, err := json.Marshal(idx)
	if err != nil {
		return err
	}
	return writeFile(tw, "index.json", append(b, '\n'))
}

// ImportOptions controls bundle import behavior.
type ImportOptions struct {
	// IgnoreUnknown skips unknown TAR entries instead of failing.
	IgnoreUnknown bool
}

// Import reads a bundle from r, stores every envelope in cas and returns the
// imported CIDs in archive order. Unknown entries are an error.
func Import(ctx context.Context, r io.Reader, cas storage.CAS) ([]cid.Cid, error) {
	return ImportWithOptions(ctx, r, cas, ImportOptions{})
}

// ImportWithOptions is Import with explicit options.
//
// Each entry must hash to the CID in its name and parse as an envelope.
func ImportWithOptions(ctx context.Context, r io.Reader, cas storage.CAS, opts ImportOptions) ([]cid.Cid, error) {
	if cas == nil {
		return nil, errors.New("bundle: nil CAS")
	}

	tr := tar.NewReader(r)
	seen := map[string]struct{}{}
	var out []cid.Cid

	for {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		h, err := tr.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		name := cleanTarPath(h.Name)
		if name == "" {
			return out, fmt.Errorf("bundle: invalid entry path: %q", h.Name)
		}

		if h.Typeflag != tar.TypeReg {
			if opts.IgnoreUnknown {
				continue
			}
			return out, fmt.Errorf("bundle: unexpected tar entry type: %v (%s)", h.Typeflag, name)
		}
		if name == "index.json" {
			_, _ = io.Copy(io.Discard, tr)
			continue
		}
		if !strings.HasPrefix(name, entryPrefix) {
			if opts.IgnoreUnknown {
				_, _ = io.Copy(io.Discard, tr)
				continue
			}
			return out, fmt.Errorf("bundle: unknown entry: %s", name)
		}

		id, derr := cid.Decode(strings.TrimPrefix(name, entryPrefix))
		if derr != nil || !id.Defined() {
			return out, storage.ErrInvalidCID
		}
		payload, err := io.ReadAll(tr)
		if err != nil {
			return out, err
		}
		if err := cidutil.Verify(id, payload); err != nil {
			return out, storage.ErrCIDMismatch
		}

		key := id.String()
		if _, ok := seen[key]; ok {
			return out, fmt.Errorf("bundle: duplicate entry: %s", key)
		}
		seen[key] = struct{}{}

		putID, _, err := storage.PutEnvelope(ctx, cas, payload)
		if err != nil {
			return out, fmt.Errorf("bundle: %s: %w", key, err)
		}
		if !putID.Equals(id) {
			return out, storage.ErrCIDMismatch
		}
		out = append(out, id)
	}
}

// ReadIndex extracts index.json from a bundle. It returns (nil, nil) when the
// bundle carries no index.
func ReadIndex(r io.Reader) (*Index, error) {
	tr := tar.NewReader(r)
	for {
		h, err := tr.Next()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if cleanTarPath(h.Name) != "index.json" {
			continue
		}
		var idx Index
		if err := json.NewDecoder(tr).Decode(&idx); err != nil {
			return nil, fmt.Errorf("bundle: index.json: %w", err)
		}
		return &idx, nil
	}
}

// Index is the decoded form of index.json.
type Index struct {
	Version   int          `json:"version"`
	CIDCodec  string       `json:"cidCodec"`
	Multihash string       `json:"multihash"`
	Envelopes []IndexEntry `json:"envelopes"`
	Labels    []IndexLabel `json:"labels,omitempty"`
}

// IndexEntry summarizes one archived envelope.
type IndexEntry struct {
	CID     string `json:"cid"`
	Size    int    `json:"size"`
	Mode    string `json:"mode"`
	Layers  int    `json:"layers"`
	Version uint32 `json:"version"`
}

type IndexLabel struct {
	Name string `json:"name"`
	CID  string `json:"cid"`
}

func writeFile(tw *tar.Writer, name string, content []byte) error {
	hdr := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  epoch0,
		Typeflag: tar.TypeReg,
		Format:   tar.FormatUSTAR,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := io.Copy(tw, bytes.NewReader(content))
	return err
}

func cleanTarPath(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return ""
	}
	parts := strings.Split(name, "/")
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			return ""
		}
	}
	return name
}
