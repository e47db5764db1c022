package heapdb

import (
	"encoding/binary"

	"go.uber.org/zap"
)

// pageSource reads a page's raw bytes from the backing file by page number,
// on a directory's cache miss. Implemented by *Heap.
type pageSource interface {
	readPageFromDisk(pageNumber uint32) ([]byte, error)
}

// PageDirectory is a Page whose slot 0 holds (own_pd_number, next_pd_number)
// and whose remaining slots each hold a (data_page_number, free_space)
// entry (spec §4.4).
type PageDirectory struct {
	page     *Page
	pdNumber uint32
	nextDir  uint32
	cache    pageCache
	source   pageSource
	log      *zap.Logger
}

// NewPageDirectory creates a fresh, empty directory page numbered pdNumber
// with no next link.
func NewPageDirectory(pdNumber uint32, source pageSource, log *zap.Logger) *PageDirectory {
	d := &PageDirectory{
		page:     NewPage(),
		pdNumber: pdNumber,
		nextDir:  0,
		source:   source,
		log:      log,
	}
	d.page.InsertRecord(encodeDirHeader(pdNumber, 0))
	return d
}

// LoadPageDirectory parses an existing directory page image, recovering its
// own/next page numbers from slot 0.
func LoadPageDirectory(data []byte, source pageSource, log *zap.Logger) (*PageDirectory, error) {
	page, err := LoadPage(data)
	if err != nil {
		return nil, err
	}
	header, err := page.ReadRecord(0)
	if err != nil {
		return nil, newError(ErrIoError, "directory page missing header slot", err)
	}
	own, next := decodeDirHeader(header)
	return &PageDirectory{page: page, pdNumber: own, nextDir: next, source: source, log: log}, nil
}

func encodeDirHeader(own, next uint32) []byte {
	b := make([]byte, directoryEntrySize)
	binary.LittleEndian.PutUint32(b[:PageNumSize], own)
	binary.LittleEndian.PutUint32(b[PageNumSize:], next)
	return b
}

func decodeDirHeader(b []byte) (own, next uint32) {
	return binary.LittleEndian.Uint32(b[:PageNumSize]), binary.LittleEndian.Uint32(b[PageNumSize:])
}

func encodeDirEntry(pageNum uint32, freeSpace int) []byte {
	b := make([]byte, directoryEntrySize)
	binary.LittleEndian.PutUint32(b[:PageNumSize], pageNum)
	binary.LittleEndian.PutUint32(b[PageNumSize:], uint32(freeSpace))
	return b
}

func decodeDirEntry(b []byte) (pageNum uint32, freeSpace int) {
	return binary.LittleEndian.Uint32(b[:PageNumSize]), int(binary.LittleEndian.Uint32(b[PageNumSize:]))
}

// PdNumber returns this directory's own page number.
func (d *PageDirectory) PdNumber() uint32 { return d.pdNumber }

// NextDir returns the next directory's page number, or 0 at the end of
// the chain.
func (d *PageDirectory) NextDir() uint32 { return d.nextDir }

// FreeSpace reports the directory page's own remaining capacity.
func (d *PageDirectory) FreeSpace() int { return d.page.FreeSpace() }

// setNextDir links this directory to the next one in the chain, rewriting
// its header slot in place (same length, so the update is an in-place
// overwrite per spec §4.2 case 1).
func (d *PageDirectory) setNextDir(next uint32) {
	d.nextDir = next
	d.page.UpdateRecord(0, encodeDirHeader(d.pdNumber, next))
}

// entryCount is the number of tracked data-page entries (excluding slot 0).
func (d *PageDirectory) entryCount() int {
	n := len(d.page.slots)
	if n == 0 {
		return 0
	}
	return n - 1
}

// entryAt reads the (page_num, free_space) pair stored in directory slot
// i+1.
func (d *PageDirectory) entryAt(i int) (pageNum uint32, freeSpace int, ok bool) {
	rec, err := d.page.ReadRecord(i + 1)
	if err != nil || len(rec) == 0 {
		return 0, 0, false
	}
	pageNum, freeSpace = decodeDirEntry(rec)
	return pageNum, freeSpace, true
}

func (d *PageDirectory) maxTrackedPageNumber() uint32 {
	max := d.pdNumber
	for i := 0; i < d.entryCount(); i++ {
		pn, _, ok := d.entryAt(i)
		if ok && pn > max {
			max = pn
		}
	}
	return max
}

// FindPage returns the data page numbered pageNumber, consulting the cache
// first and falling back to a directory slot scan plus a disk read on miss.
func (d *PageDirectory) FindPage(pageNumber uint32) (*Page, bool) {
	if p, ok := d.cache.get(pageNumber); ok {
		return p, true
	}
	for i := 0; i < d.entryCount(); i++ {
		pn, _, ok := d.entryAt(i)
		if !ok || pn != pageNumber {
			continue
		}
		data, err := d.source.readPageFromDisk(pageNumber)
		if err != nil {
			return nil, false
		}
		page, err := LoadPage(data)
		if err != nil {
			return nil, false
		}
		page.SetPageNo(pageNumber)
		d.cache.set(pageNumber, page)
		return page, true
	}
	return nil, false
}

// FindOrCreateDataPageForInsert scans tracked entries for one with at least
// neededSpace free; on a miss it allocates a brand new data page if this
// directory itself has room for one more entry (spec §4.4).
func (d *PageDirectory) FindOrCreateDataPageForInsert(neededSpace int) bool {
	for i := 0; i < d.entryCount(); i++ {
		pageNum, freeSpace, ok := d.entryAt(i)
		if !ok {
			continue
		}
		if freeSpace >= neededSpace {
			_, found := d.FindPage(pageNum)
			return found
		}
	}

	if minDirHeadroom > d.page.FreeSpace() {
		return false
	}

	page := NewPage()
	newPageNum := d.maxTrackedPageNumber() + 1
	if _, ok := d.page.InsertRecord(encodeDirEntry(newPageNum, page.FreeSpace())); !ok {
		return false
	}
	page.SetPageNo(newPageNum)
	d.cache.set(newPageNum, page)
	if d.log != nil {
		d.log.Debug("allocated data page", zap.Uint32("directory", d.pdNumber), zap.Uint32("page", newPageNum))
	}
	return true
}

// InsertRecord tries every data page this directory tracks, allocating a new
// one on demand when none admit record.
func (d *PageDirectory) InsertRecord(record []byte) bool {
	for i := 0; i < d.entryCount(); i++ {
		pageNum, _, ok := d.entryAt(i)
		if !ok {
			continue
		}
		page, found := d.FindPage(pageNum)
		if !found || page.IsFull() {
			continue
		}
		if _, inserted := page.InsertRecord(record); inserted {
			d.UpdateFreeSpace(pageNum, page.FreeSpace())
			return true
		}
	}

	if !d.FindOrCreateDataPageForInsert(len(record) + SlotEntrySize) {
		return false
	}
	return d.InsertRecord(record)
}

// UpdateFreeSpace overwrites the stored free-space counter for pageNum's
// directory entry.
func (d *PageDirectory) UpdateFreeSpace(pageNum uint32, freeSpace int) {
	for i := 0; i < d.entryCount(); i++ {
		pn, _, ok := d.entryAt(i)
		if ok && pn == pageNum {
			d.page.UpdateRecord(i+1, encodeDirEntry(pageNum, freeSpace))
			return
		}
	}
}

// FindRecord asks every tracked data page to locate key, returning the
// first hit.
func (d *PageDirectory) FindRecord(key []byte) (*Page, int, bool) {
	for i := 0; i < d.entryCount(); i++ {
		pageNum, _, ok := d.entryAt(i)
		if !ok {
			continue
		}
		page, found := d.FindPage(pageNum)
		if !found {
			continue
		}
		if slotID, hit := page.FindRecord(key); hit {
			return page, slotID, true
		}
	}
	return nil, 0, false
}
