package heapdb

import (
	"os"

	"go.uber.org/zap"

	hmmap "github.com/cobaltbyte/heapdb/mmap"
)

// Heap is a file-backed sequence of directory and data pages: the top-level
// CRUD dispatcher of spec §4.5. It owns the directory chain (starting at
// the head directory, page 0) and, through each directory, the page cache
// for that directory's data pages.
type Heap struct {
	path        string
	directories []*PageDirectory
	log         *zap.Logger
	snapshot    *hmmap.Map // read-only mmap of the file as of Open(); nil if the file didn't exist yet
}

// Open constructs or loads a heap file at path. If the file exists and holds
// at least one page, its first PageSize bytes become the head directory;
// otherwise (no file, or a shorter one) an empty head directory
// (pd_number=0, next_dir=0) is created in memory.
func Open(path string, opts ...Option) (*Heap, error) {
	cfg := newConfig(opts)
	h := &Heap{path: path, log: cfg.logger}

	info, statErr := os.Stat(path)
	switch {
	case statErr == nil && info.Size() >= PageSize:
		m, err := hmmap.MapFile(path, false)
		if err == nil {
			h.snapshot = m
		}
		data, err := h.readPageFromDisk(0)
		if err != nil {
			return nil, newError(ErrIoError, "reading head directory", err)
		}
		head, err := LoadPageDirectory(data, h, h.log)
		if err != nil {
			return nil, err
		}
		h.directories = []*PageDirectory{head}

	case statErr != nil && !os.IsNotExist(statErr):
		return nil, newError(ErrIoError, "stat heap file", statErr)

	default:
		h.directories = []*PageDirectory{NewPageDirectory(0, h, h.log)}
	}

	return h, nil
}

// readPageFromDisk implements pageSource: it prefers the read-only snapshot
// mmap taken at Open() (spec §5: between commits the on-disk file may lag
// in-memory state arbitrarily, so a stale mapping is fine for pages this
// session hasn't touched yet) and falls back to a direct positioned read
// for anything beyond that snapshot, e.g. right after extending the file in
// a prior commit within the same process.
func (h *Heap) readPageFromDisk(pageNumber uint32) ([]byte, error) {
	if h.snapshot != nil {
		if data, ok := h.snapshot.ReadPage(pageNumber, PageSize); ok {
			return data, nil
		}
	}

	f, err := os.Open(h.path)
	if err != nil {
		return nil, newError(ErrIoError, "open heap file for read", err)
	}
	defer f.Close()

	data := make([]byte, PageSize)
	if _, err := f.ReadAt(data, int64(pageNumber)*PageSize); err != nil {
		return nil, newError(ErrIoError, "read page", err)
	}
	return data, nil
}

// readPageDir returns the cached directory whose pd_number == prev's
// next_dir, loading it from disk on a cache miss.
func (h *Heap) readPageDir(prev *PageDirectory) (*PageDirectory, error) {
	for _, d := range h.directories {
		if d.PdNumber() == prev.NextDir() {
			return d, nil
		}
	}
	data, err := h.readPageFromDisk(prev.NextDir())
	if err != nil {
		return nil, err
	}
	next, err := LoadPageDirectory(data, h, h.log)
	if err != nil {
		return nil, err
	}
	h.directories = append(h.directories, next)
	return next, nil
}

// InsertRecord walks the directory chain head-to-tail attempting insertion;
// when the tail refuses and has no next directory, a new directory is
// chained on and the insert retried there.
func (h *Heap) InsertRecord(record []byte) error {
	if len(record) > MaxRecordSize {
		return newError(ErrRecordTooLarge, "record exceeds one page's capacity", nil)
	}

	pd := h.directories[0]
	for {
		if pd.InsertRecord(record) {
			return nil
		}
		if pd.NextDir() == 0 {
			break
		}
		next, err := h.readPageDir(pd)
		if err != nil {
			return err
		}
		pd = next
	}

	newNum := pd.maxTrackedPageNumber() + 1
	newDir := NewPageDirectory(newNum, h, h.log)
	pd.setNextDir(newNum)
	h.directories = append(h.directories, newDir)
	if h.log != nil {
		h.log.Info("directory chain extended", zap.Uint32("new_directory", newNum))
	}

	if !newDir.InsertRecord(record) {
		return newError(ErrRecordTooLarge, "record does not fit even on a freshly chained directory", nil)
	}
	return nil
}

// findOwned walks the directory chain invoking directory.FindRecord,
// returning the owning directory alongside the hit so callers can update
// its free-space bookkeeping after mutating the page.
func (h *Heap) findOwned(key []byte) (dir *PageDirectory, page *Page, slotID int, found bool) {
	pd := h.directories[0]
	for {
		if page, slotID, ok := pd.FindRecord(key); ok {
			return pd, page, slotID, true
		}
		if pd.NextDir() == 0 {
			return nil, nil, 0, false
		}
		next, err := h.readPageDir(pd)
		if err != nil {
			return nil, nil, 0, false
		}
		pd = next
	}
}

// FindRecord walks the chain returning the first (page, slot) match, or
// found=false on exhaustion.
func (h *Heap) FindRecord(key []byte) (page *Page, slotID int, found bool) {
	_, page, slotID, found = h.findOwned(key)
	return page, slotID, found
}

// ReadRecord locates key and returns its raw encoded bytes.
func (h *Heap) ReadRecord(key []byte) ([]byte, error) {
	page, slotID, ok := h.FindRecord(key)
	if !ok {
		return nil, newError(ErrRecordNotFound, "no record with this key", nil)
	}
	return page.ReadRecord(slotID)
}

// UpdateRecord locates key and rewrites it with newRecord. If the current
// page can't accommodate the new size, the old record is deleted and
// newRecord is re-inserted via the head-directory insertion path — the key
// is unchanged but the record may move to a different page.
func (h *Heap) UpdateRecord(key []byte, newRecord []byte) error {
	dir, page, slotID, ok := h.findOwned(key)
	if !ok {
		return newError(ErrRecordNotFound, "no record with this key", nil)
	}

	updated := page.UpdateRecord(slotID, newRecord)
	dir.UpdateFreeSpace(page.PageNo(), page.FreeSpace())
	if updated {
		return nil
	}
	return h.InsertRecord(newRecord)
}

// DeleteRecord locates key and tombstones it. A missing key is reported
// non-fatally: it is logged and the call otherwise succeeds (spec §4.5,
// §7 Propagation).
func (h *Heap) DeleteRecord(key []byte) error {
	dir, page, slotID, ok := h.findOwned(key)
	if !ok {
		if h.log != nil {
			h.log.Warn("delete: record not found", zap.Binary("key", key))
		}
		return nil
	}
	if err := page.DeleteRecord(slotID); err != nil {
		return err
	}
	dir.UpdateFreeSpace(page.PageNo(), page.FreeSpace())
	return nil
}

// Commit flushes every cached directory and data page to its page-numbered
// offset in the backing file, creating the file if it does not yet exist.
// No ordering, fsync, or atomicity is provided (spec §5).
func (h *Heap) Commit() error {
	if h.snapshot != nil {
		h.snapshot.Close()
		h.snapshot = nil
	}

	f, err := os.OpenFile(h.path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return newError(ErrIoError, "open heap file for commit", err)
	}
	defer f.Close()

	for _, dir := range h.directories {
		if _, err := f.WriteAt(dir.page.Data, int64(dir.PdNumber())*PageSize); err != nil {
			return newError(ErrIoError, "write directory page", err)
		}

		var writeErr error
		dir.cache.forEach(func(pageNo uint32, p *Page) {
			if writeErr != nil {
				return
			}
			if _, err := f.WriteAt(p.Data, int64(pageNo)*PageSize); err != nil {
				writeErr = err
			}
		})
		if writeErr != nil {
			return newError(ErrIoError, "write data page", writeErr)
		}
	}

	if h.log != nil {
		h.log.Info("commit complete", zap.String("path", h.path), zap.Int("directories", len(h.directories)))
	}
	return nil
}
