// Package snapshot persists the whole ledger world between CLI
// invocations: vault balances and allowances, tip stats, escrow
// state and registered identities.
//
// The on-disk format is deterministic CBOR, zstd-compressed, with a
// BLAKE3 checksum so a truncated or corrupted file is rejected on
// load instead of silently restoring a half-world.
package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"github.com/joshlevylabs/agent-commerce-protocol/escrow"
	"github.com/joshlevylabs/agent-commerce-protocol/event"
	"github.com/joshlevylabs/agent-commerce-protocol/registry"
	"github.com/joshlevylabs/agent-commerce-protocol/tipledger"
	"github.com/joshlevylabs/agent-commerce-protocol/token"
)

// ErrChecksum means the snapshot file's content does not match its
// stored checksum.
var ErrChecksum = errors.New("snapshot: checksum mismatch")

var magic = [4]byte{'A', 'C', 'P', 'S'}

const formatVersion = 1

// World is a full serializable capture of the ledger.
type World struct {
	SavedAt    time.Time                 `cbor:"saved_at"`
	Vault      token.VaultState          `cbor:"vault"`
	TipStats   []tipledger.AgentRecord   `cbor:"tip_stats"`
	Escrow     escrow.State              `cbor:"escrow"`
	Identities []registry.IdentityRecord `cbor:"identities"`
}

// Capture exports every component into one world.
func Capture(vault *token.Vault, tips *tipledger.Ledger, bounties *escrow.Escrow, reg *registry.Registry) *World {
	return &World{
		SavedAt:    time.Now().UTC(),
		Vault:      vault.Export(),
		TipStats:   tips.Export(),
		Escrow:     bounties.Export(),
		Identities: reg.Export(),
	}
}

// Restore loads the world back into the components.
func (w *World) Restore(vault *token.Vault, tips *tipledger.Ledger, bounties *escrow.Escrow, reg *registry.Registry) {
	vault.Restore(w.Vault)
	tips.Restore(w.TipStats)
	bounties.Restore(w.Escrow)
	reg.Restore(w.Identities)
}

// Save writes the world to path atomically (write to a temp file in
// the same directory, then rename).
func Save(path string, w *World) error {
	payload, err := encode(w)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("snapshot: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("snapshot: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("snapshot: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("snapshot: rename: %w", err)
	}
	return nil
}

// Load reads and verifies a world from path.
func Load(path string) (*World, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read: %w", err)
	}
	return decode(data)
}

func encode(w *World) ([]byte, error) {
	raw, err := event.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("snapshot: encode: %w", err)
	}

	var compressed bytes.Buffer
	zw, err := zstd.NewWriter(&compressed)
	if err != nil {
		return nil, fmt.Errorf("snapshot: zstd: %w", err)
	}
	if _, err := zw.Write(raw); err != nil {
		zw.Close()
		return nil, fmt.Errorf("snapshot: compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("snapshot: compress: %w", err)
	}

	sum := blake3.Sum256(compressed.Bytes())

	var out bytes.Buffer
	out.Write(magic[:])
	out.WriteByte(formatVersion)
	out.Write(sum[:])
	out.Write(compressed.Bytes())
	return out.Bytes(), nil
}

func decode(data []byte) (*World, error) {
	header := len(magic) + 1 + 32
	if len(data) < header {
		return nil, fmt.Errorf("snapshot: file too short (%d bytes)", len(data))
	}
	if !bytes.Equal(data[:len(magic)], magic[:]) {
		return nil, fmt.Errorf("snapshot: bad magic %q", data[:len(magic)])
	}
	if v := data[len(magic)]; v != formatVersion {
		return nil, fmt.Errorf("snapshot: unsupported format version %d", v)
	}

	var stored [32]byte
	copy(stored[:], data[len(magic)+1:header])
	compressed := data[header:]
	if blake3.Sum256(compressed) != stored {
		return nil, ErrChecksum
	}

	zr, err := zstd.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("snapshot: zstd: %w", err)
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("snapshot: decompress: %w", err)
	}

	var w World
	if err := event.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	return &w, nil
}
