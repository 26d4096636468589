// Package catalog stores encoded meshes in a badger database keyed by
// content hash, with an in-memory ordered index and a symbol table that
// dedupes re-added encodings.
package catalog

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"runtime"

	"github.com/arcspace/go-arc-sdk/stdlib/symbol"
	"github.com/arcspace/go-arc-sdk/stdlib/symbol/memory_table"
	"github.com/dgraph-io/badger/v3"
	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/pkg/errors"

	"github.com/bubnikv/harry/hry"
)

var (
	gCatalogStateKey = []byte{0x00, 0x00, 0x01}
	gEntryPrefix     = []byte{'M'}
)

const (
	majorVers = 2026
	minorVers = 1
)

// Opts specifies params for opening a catalog.
type Opts struct {
	DbPathName string // omit for an in-memory db
	ReadOnly   bool
}

// MeshInfo is the indexed metadata of one encoded mesh.
type MeshInfo struct {
	NumVtx  uint32
	NumFace uint32
	EncLen  uint32
}

// Catalog wraps a database of encoded meshes.
type Catalog interface {
	// TryAddMesh stores an encoding under its content hash.
	// If true is returned, the encoding did not exist and was added.
	TryAddMesh(enc []byte, info MeshInfo) (bool, error)

	// Lookup fetches an encoding by its content hash.
	Lookup(hash []byte) ([]byte, bool, error)

	// NumMeshes returns the number of stored encodings.
	NumMeshes() int64

	// Range walks the in-memory index in hash order.
	Range(fn func(hash []byte, info MeshInfo) bool)

	IsReadOnly() bool
	Close() error
}

type catalogState struct {
	MajorVers uint32
	MinorVers uint32
	NumMeshes uint64
}

func (st *catalogState) marshal() []byte {
	buf := make([]byte, 0, 3*binary.MaxVarintLen64)
	buf = binary.AppendUvarint(buf, uint64(st.MajorVers))
	buf = binary.AppendUvarint(buf, uint64(st.MinorVers))
	buf = binary.AppendUvarint(buf, st.NumMeshes)
	return buf
}

func (st *catalogState) unmarshal(b []byte) error {
	rd := bytes.NewReader(b)
	major, err := binary.ReadUvarint(rd)
	if err != nil {
		return errors.Wrap(hry.ErrBadCatalog, "bad state record")
	}
	minor, err := binary.ReadUvarint(rd)
	if err != nil {
		return errors.Wrap(hry.ErrBadCatalog, "bad state record")
	}
	count, err := binary.ReadUvarint(rd)
	if err != nil {
		return errors.Wrap(hry.ErrBadCatalog, "bad state record")
	}
	st.MajorVers = uint32(major)
	st.MinorVers = uint32(minor)
	st.NumMeshes = count
	return nil
}

type catalog struct {
	readOnly   bool
	stateDirty bool
	state      catalogState
	db         *badger.DB

	index *redblacktree.Tree // hash -> MeshInfo, hash order
	seen  symbol.Table       // dedupes hashes already stored or added this session
}

// Open opens or creates a catalog.
func Open(opts Opts) (Catalog, error) {
	dbOpts := badger.DefaultOptions(opts.DbPathName)
	dbOpts.ReadOnly = opts.ReadOnly
	dbOpts.DetectConflicts = false // single writer
	dbOpts.Logger = nil
	dbOpts.MetricsEnabled = false

	// Badger for windows currently does not support read-only mode
	if runtime.GOOS == "windows" {
		dbOpts.ReadOnly = false
	}

	if len(opts.DbPathName) == 0 {
		if opts.ReadOnly {
			return nil, errors.Wrap(hry.ErrBadCatalog, "DbPathName must be specified for read-only catalog")
		}
		dbOpts.InMemory = true
	}

	tableOpts := memory_table.DefaultOpts()
	seen, err := tableOpts.CreateTable()
	if err != nil {
		return nil, err
	}

	cat := &catalog{
		readOnly: opts.ReadOnly,
		seen:     seen,
		index: redblacktree.NewWith(func(a, b interface{}) int {
			return bytes.Compare(a.([]byte), b.([]byte))
		}),
	}

	cat.db, err = badger.Open(dbOpts)
	if err != nil {
		return nil, err
	}

	err = cat.loadState()
	if err == badger.ErrKeyNotFound {
		err = nil
		cat.stateDirty = true
		cat.state.MajorVers = majorVers
		cat.state.MinorVers = minorVers
	}
	if err == nil && (cat.state.MajorVers != majorVers || cat.state.MinorVers != minorVers) {
		err = errors.New("catalog version is incompatible")
	}
	if err == nil {
		err = cat.loadIndex()
	}
	if err != nil {
		cat.db.Close()
		return nil, err
	}
	return cat, nil
}

func (cat *catalog) IsReadOnly() bool {
	return cat.readOnly
}

func (cat *catalog) NumMeshes() int64 {
	return int64(cat.state.NumMeshes)
}

func (cat *catalog) loadState() error {
	return cat.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(gCatalogStateKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return cat.state.unmarshal(val)
		})
	})
}

func (cat *catalog) loadIndex() error {
	return cat.db.View(func(txn *badger.Txn) error {
		itOpts := badger.DefaultIteratorOptions
		itOpts.Prefix = gEntryPrefix
		itOpts.PrefetchValues = false
		it := txn.NewIterator(itOpts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			hash := append([]byte{}, item.Key()[len(gEntryPrefix):]...)
			info := MeshInfo{EncLen: uint32(item.ValueSize())}
			cat.index.Put(hash, info)
			cat.seen.GetSymbolID(hash, true)
		}
		return nil
	})
}

func (cat *catalog) flushState() error {
	if !cat.stateDirty || cat.readOnly {
		return nil
	}
	err := cat.db.Update(func(txn *badger.Txn) error {
		return txn.Set(gCatalogStateKey, cat.state.marshal())
	})
	if err == nil {
		cat.stateDirty = false
	}
	return err
}

// Hash returns the content hash a mesh encoding is keyed under.
func Hash(enc []byte) []byte {
	h := sha256.Sum256(enc)
	return h[:]
}

func (cat *catalog) TryAddMesh(enc []byte, info MeshInfo) (bool, error) {
	if cat.readOnly {
		return false, errors.Wrap(hry.ErrBadCatalog, "catalog is read-only")
	}
	hash := Hash(enc)
	if _, newlyIssued := cat.seen.GetSymbolID(hash, true); !newlyIssued {
		return false, nil
	}
	if _, found := cat.index.Get(hash); found {
		return false, nil
	}

	key := append(append([]byte{}, gEntryPrefix...), hash...)
	err := cat.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, enc)
	})
	if err != nil {
		return false, err
	}

	info.EncLen = uint32(len(enc))
	cat.index.Put(hash, info)
	cat.state.NumMeshes++
	cat.stateDirty = true
	return true, nil
}

func (cat *catalog) Lookup(hash []byte) ([]byte, bool, error) {
	key := append(append([]byte{}, gEntryPrefix...), hash...)
	var enc []byte
	err := cat.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		enc, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return enc, true, nil
}

func (cat *catalog) Range(fn func(hash []byte, info MeshInfo) bool) {
	it := cat.index.Iterator()
	for it.Next() {
		if !fn(it.Key().([]byte), it.Value().(MeshInfo)) {
			return
		}
	}
}

func (cat *catalog) Close() error {
	err := cat.flushState()
	if dbErr := cat.db.Close(); err == nil {
		err = dbErr
	}
	return err
}
