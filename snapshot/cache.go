package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/wippyai/tysh/errors"
	"github.com/wippyai/tysh/typedb"
)

const fileExt = ".msgpack"

// Key returns the cache key of a binary: the hex SHA-256 of its contents.
func Key(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DefaultDir returns $XDG_CACHE_HOME/tysh, or ~/.cache/tysh.
func DefaultDir() (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(errors.PhaseCache, errors.KindNotFound, err, "locate cache directory")
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, "tysh"), nil
}

// Encode writes db to w.
func Encode(w io.Writer, db *typedb.Types) error {
	p := payload{
		Version:     formatVersion,
		PointerSize: db.PointerSize(),
		Entries:     make([]wireEntry, 0, db.TypeCount()),
		Lines:       toWireRanges(db.Lines()),
	}
	for g, t := range db.All() {
		p.Entries = append(p.Entries, toWire(g, t))
	}
	if err := msgpack.NewEncoder(w).Encode(&p); err != nil {
		return errors.Wrap(errors.PhaseCache, errors.KindInvalidData, err, "encode snapshot")
	}
	return nil
}

// Decode reads a snapshot written by Encode.
func Decode(r io.Reader) (*typedb.Types, error) {
	var p payload
	if err := msgpack.NewDecoder(r).Decode(&p); err != nil {
		return nil, errors.Wrap(errors.PhaseCache, errors.KindInvalidData, err, "decode snapshot")
	}
	if p.Version != formatVersion {
		return nil, errors.New(errors.PhaseCache, errors.KindUnsupported).
			Value(p.Version).
			Detail("snapshot format version %d, want %d", p.Version, formatVersion).
			Build()
	}

	entries := make([]typedb.Entry, len(p.Entries))
	for i, w := range p.Entries {
		e, err := w.entry()
		if err != nil {
			return nil, err
		}
		entries[i] = e
	}
	db, err := typedb.New(entries, typedb.Options{Lines: table(p.Lines), PointerSize: p.PointerSize})
	if err != nil {
		return nil, errors.Wrap(errors.PhaseCache, errors.KindInconsistent, err, "rebuild snapshot")
	}
	return db, nil
}

func path(dir, key string) string {
	return filepath.Join(dir, key+fileExt)
}

// Save writes db under key in dir, replacing any previous file atomically.
func Save(dir, key string, db *typedb.Types) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.PhaseCache, errors.KindInvalidInput, err, "create cache directory")
	}
	f, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return errors.Wrap(errors.PhaseCache, errors.KindInvalidInput, err, "create cache file")
	}
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !stderrors.Is(rmErr, os.ErrNotExist) {
			Logger().Debug("remove temp file", zap.String("path", f.Name()), zap.Error(rmErr))
		}
	}()

	if err := Encode(f, db); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(errors.PhaseCache, errors.KindInvalidData, err, "write cache file")
	}
	if err := os.Rename(f.Name(), path(dir, key)); err != nil {
		return errors.Wrap(errors.PhaseCache, errors.KindInvalidData, err, "install cache file")
	}
	Logger().Debug("snapshot saved", zap.String("key", key), zap.Int("types", db.TypeCount()))
	return nil
}

// Load reads the snapshot stored under key. A missing, stale or corrupt
// file reports false with a nil error.
func Load(dir, key string) (*typedb.Types, bool, error) {
	p := path(dir, key)
	f, err := os.Open(p)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(errors.PhaseCache, errors.KindInvalidInput, err, "open cache file")
	}
	defer f.Close()

	db, err := Decode(f)
	if err != nil {
		Logger().Warn("ignoring unusable snapshot", zap.String("path", p), zap.Error(err))
		return nil, false, nil
	}
	Logger().Debug("snapshot loaded", zap.String("key", key), zap.Int("types", db.TypeCount()))
	return db, true, nil
}
