package trie

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ValentinKolb/datrie/lib/db/engines/trie/internal"
)

// Save persists the database to the writer as a length-prefixed stream of
// live entries, grounded on the sibling maple engine's Save format (magic
// number, version, entry count, per-entry fixed fields then a
// length-prefixed value).
//
// Thread-safety: Save holds a read lock for its duration; concurrent reads
// proceed, and concurrent writes are blocked until it completes.
func (impl *trieImpl) Save(w io.Writer) error {
	impl.mu.RLock()
	defer impl.mu.RUnlock()

	bw := bufio.NewWriterSize(w, 1024*1024)

	if _, err := bw.WriteString(magicNum); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint8(trieDBVersion)); err != nil {
		return err
	}

	writeIdx := impl.currIndex.Load()

	type toSave struct {
		key   []byte
		entry internal.Entry
	}
	var entries []toSave

	it, err := impl.t.PrefixSearch([]byte("*"))
	if err != nil {
		return err
	}
	for {
		tailEntry, err := it.Next()
		if err != nil {
			return err
		}
		if tailEntry == nil {
			break
		}
		e := tailEntry.Val.(internal.Entry)
		if _, isDeleted := e.TTLInfo(writeIdx); isDeleted {
			continue
		}
		key := make([]byte, len(tailEntry.Key))
		copy(key, tailEntry.Key)
		value := make([]byte, len(e.Value))
		copy(value, e.Value)
		entries = append(entries, toSave{key: key, entry: internal.Entry{
			Value:    value,
			ExpireAt: e.ExpireAt,
			DeleteAt: e.DeleteAt,
			Index:    e.Index,
		}})
	}

	if err := binary.Write(bw, binary.LittleEndian, uint64(len(entries))); err != nil {
		return err
	}

	for _, item := range entries {
		if err := binary.Write(bw, binary.LittleEndian, uint32(len(item.key))); err != nil {
			return err
		}
		if _, err := bw.Write(item.key); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, item.entry.ExpireAt); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, item.entry.DeleteAt); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, item.entry.Index); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, uint32(len(item.entry.Value))); err != nil {
			return err
		}
		if _, err := bw.Write(item.entry.Value); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// Load restores a database from the reader, replacing the current contents.
//
// Thread-safety: This function is not thread-safe and should not be called
// concurrently with any other method.
func (impl *trieImpl) Load(r io.Reader) error {
	// stopGC must run before mu is taken: the sweeper also acquires mu
	// (trie.go's sweep), so locking first could deadlock waiting for a
	// sweep in progress to finish while it's blocked waiting for this lock.
	impl.stopGC()
	defer impl.startGC()

	impl.mu.Lock()
	defer impl.mu.Unlock()

	br := bufio.NewReaderSize(r, 1024*1024)

	magicBytes := make([]byte, len(magicNum))
	if _, err := io.ReadFull(br, magicBytes); err != nil {
		return err
	}
	if string(magicBytes) != magicNum {
		return fmt.Errorf("invalid file format: magic number mismatch")
	}

	var version uint8
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return err
	}
	if int(version) != trieDBVersion {
		return fmt.Errorf("unsupported version: %d (expected %d)", version, trieDBVersion)
	}

	impl.t = newTrieFor(impl.alphabet)
	impl.gcStop = make(chan struct{})

	var entryCount uint64
	if err := binary.Read(br, binary.LittleEndian, &entryCount); err != nil {
		return err
	}

	var maxIndex uint64
	for i := uint64(0); i < entryCount; i++ {
		var keyLen uint32
		if err := binary.Read(br, binary.LittleEndian, &keyLen); err != nil {
			return err
		}
		key := make([]byte, keyLen)
		if _, err := io.ReadFull(br, key); err != nil {
			return err
		}

		var expireAt, deleteAt, index uint64
		if err := binary.Read(br, binary.LittleEndian, &expireAt); err != nil {
			return err
		}
		if err := binary.Read(br, binary.LittleEndian, &deleteAt); err != nil {
			return err
		}
		if err := binary.Read(br, binary.LittleEndian, &index); err != nil {
			return err
		}

		var valueLen uint32
		if err := binary.Read(br, binary.LittleEndian, &valueLen); err != nil {
			return err
		}
		value := make([]byte, valueLen)
		if _, err := io.ReadFull(br, value); err != nil {
			return err
		}

		if index > maxIndex {
			maxIndex = index
		}

		if _, err := impl.t.Set(key, internal.Entry{
			Value:    value,
			ExpireAt: expireAt,
			DeleteAt: deleteAt,
			Index:    index,
		}); err != nil {
			return fmt.Errorf("failed to restore key %q: %w", key, err)
		}
	}

	impl.currIndex.Store(0)
	impl.setWriteIdxLocked(maxIndex)

	return nil
}
