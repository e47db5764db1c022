package heapdb

import "encoding/binary"

// slotEntry is a (offset, length) pair into a page's data area. length == 0
// marks the slot as tombstoned.
type slotEntry struct {
	offset uint16
	length uint16
}

func (s slotEntry) tombstoned() bool { return s.length == 0 }

// Page is a fixed-size slotted page: records grow from byte 0 upward toward
// freeSpacePtr, while the slot directory and footer grow from the end of
// Data downward. See spec §4.2 for the full layout.
type Page struct {
	Data         []byte
	slots        []slotEntry
	freeSpacePtr uint16
	index        *bpIndex
	pageNo       uint32 // page number within the heap file; not self-describing on disk
}

// PageNo returns this page's number within the owning heap file, as
// assigned by the page directory that created or loaded it.
func (p *Page) PageNo() uint32 { return p.pageNo }

// SetPageNo records this page's number. Called by the owning PageDirectory;
// a page's bytes do not self-describe their own number.
func (p *Page) SetPageNo(n uint32) { p.pageNo = n }

// NewPage allocates a fresh, empty page.
func NewPage() *Page {
	p := &Page{
		Data:  make([]byte, PageSize),
		index: newBPIndex(),
	}
	p.writeFooter()
	return p
}

// LoadPage parses an existing page image (exactly PageSize bytes) read from
// disk, rebuilding the in-memory slot directory from its footer. The B+ tree
// index starts empty; it is never persisted (spec §4.3 Lifecycle) and is
// repopulated lazily as InsertRecord is called again on this page.
func LoadPage(data []byte) (*Page, error) {
	if len(data) != PageSize {
		return nil, newError(ErrIoError, "page image has wrong size", nil)
	}
	p := &Page{Data: data, index: newBPIndex()}
	p.readFooter()
	return p, nil
}

func slotByteOffset(slotID int) int {
	return PageSize - FooterSize - (slotID+1)*SlotEntrySize
}

func (p *Page) readFooter() {
	slotCountOff := PageSize - FooterSize
	fspOff := PageSize - FreeSpacePointerSize
	slotCount := int(binary.LittleEndian.Uint16(p.Data[slotCountOff : slotCountOff+NumberSlotsSize]))
	p.freeSpacePtr = binary.LittleEndian.Uint16(p.Data[fspOff : fspOff+FreeSpacePointerSize])

	p.slots = make([]slotEntry, slotCount)
	for i := 0; i < slotCount; i++ {
		off := slotByteOffset(i)
		p.slots[i] = slotEntry{
			offset: binary.LittleEndian.Uint16(p.Data[off : off+OffsetSize]),
			length: binary.LittleEndian.Uint16(p.Data[off+OffsetSize : off+SlotEntrySize]),
		}
	}
}

// writeFooter rewrites the slot count, free-space pointer, and every slot
// entry back into Data's tail.
func (p *Page) writeFooter() {
	slotCountOff := PageSize - FooterSize
	fspOff := PageSize - FreeSpacePointerSize
	binary.LittleEndian.PutUint16(p.Data[slotCountOff:slotCountOff+NumberSlotsSize], uint16(len(p.slots)))
	binary.LittleEndian.PutUint16(p.Data[fspOff:fspOff+FreeSpacePointerSize], p.freeSpacePtr)

	for i, s := range p.slots {
		p.writeSlot(i, s)
	}
}

func (p *Page) writeSlot(slotID int, s slotEntry) {
	off := slotByteOffset(slotID)
	binary.LittleEndian.PutUint16(p.Data[off:off+OffsetSize], s.offset)
	binary.LittleEndian.PutUint16(p.Data[off+OffsetSize:off+SlotEntrySize], s.length)
}

// FreeSpace is the number of bytes left for record data plus one more slot
// entry (spec §4.2).
func (p *Page) FreeSpace() int {
	return PageSize - int(p.freeSpacePtr) - len(p.slots)*SlotEntrySize - FooterSize
}

// IsFull reports whether the page has no usable free space left.
func (p *Page) IsFull() bool {
	return p.FreeSpace() <= 0
}

// IsPacked reports whether the page holds no tombstoned slots.
func (p *Page) IsPacked() bool {
	for _, s := range p.slots {
		if s.tombstoned() {
			return false
		}
	}
	return true
}

// InsertRecord writes record into the page, reusing a tombstoned slot when
// one is available (policy: last tombstoned slot in directory order, per
// the reference implementation) or else appending a new slot. It populates
// the page's B+ tree index with (key, slotID) on success.
func (p *Page) InsertRecord(record []byte) (slotID int, inserted bool) {
	needed := len(record) + SlotEntrySize
	if needed > p.FreeSpace() {
		return 0, false
	}

	copy(p.Data[p.freeSpacePtr:int(p.freeSpacePtr)+len(record)], record)

	if p.IsPacked() {
		slotID = len(p.slots)
		p.slots = append(p.slots, slotEntry{offset: p.freeSpacePtr, length: uint16(len(record))})
	} else {
		slotID = -1
		for i, s := range p.slots {
			if s.tombstoned() {
				slotID = i
			}
		}
		p.slots[slotID] = slotEntry{offset: p.freeSpacePtr, length: uint16(len(record))}
	}

	p.freeSpacePtr += uint16(len(record))
	p.writeFooter()

	if key := recordKey(record); key != nil {
		p.index.Insert(binary.LittleEndian.Uint32(key), slotID)
	}
	return slotID, true
}

// ReadRecord returns the bytes stored at slotID. The caller is responsible
// for rejecting tombstoned slots (length 0).
func (p *Page) ReadRecord(slotID int) ([]byte, error) {
	if slotID < 0 || slotID >= len(p.slots) {
		return nil, newError(ErrIoError, "slot id out of range", nil)
	}
	s := p.slots[slotID]
	return p.Data[s.offset : s.offset+s.length], nil
}

// UpdateRecord rewrites the record at slotID. Equal-length updates overwrite
// in place; shorter updates overwrite the prefix and compact; longer
// updates tombstone the old slot, compact, and retry as a fresh insert on
// this page (the slot id is not preserved in that case).
func (p *Page) UpdateRecord(slotID int, newRecord []byte) bool {
	if slotID < 0 || slotID >= len(p.slots) {
		return false
	}
	s := p.slots[slotID]

	switch {
	case len(newRecord) == int(s.length):
		copy(p.Data[s.offset:s.offset+s.length], newRecord)
		return true

	case len(newRecord) < int(s.length):
		copy(p.Data[s.offset:int(s.offset)+len(newRecord)], newRecord)
		p.slots[slotID] = slotEntry{offset: s.offset, length: uint16(len(newRecord))}
		p.writeSlot(slotID, p.slots[slotID])
		p.compactPage()
		return true

	default: // longer
		p.tombstone(slotID)
		p.compactPage()
		_, inserted := p.InsertRecord(newRecord)
		return inserted
	}
}

// DeleteRecord tombstones slotID and compacts the page.
func (p *Page) DeleteRecord(slotID int) error {
	if slotID < 0 || slotID >= len(p.slots) {
		return newError(ErrIoError, "slot id out of range", nil)
	}
	p.tombstone(slotID)
	p.compactPage()
	return nil
}

func (p *Page) tombstone(slotID int) {
	p.slots[slotID] = slotEntry{offset: p.slots[slotID].offset, length: 0}
	p.writeSlot(slotID, p.slots[slotID])
}

// compactPage slides every live record down to a contiguous prefix starting
// at byte 0, visiting slots in ascending-offset order. Tombstoned slots
// remain in the directory so their ids stay reusable by InsertRecord.
func (p *Page) compactPage() {
	order := make([]int, len(p.slots))
	for i := range order {
		order[i] = i
	}
	sortByOffset(order, p.slots)

	var writePtr uint16
	for _, i := range order {
		s := p.slots[i]
		if s.tombstoned() {
			continue
		}
		if s.offset != writePtr {
			copy(p.Data[writePtr:int(writePtr)+int(s.length)], p.Data[s.offset:s.offset+s.length])
		}
		p.slots[i] = slotEntry{offset: writePtr, length: s.length}
		p.writeSlot(i, p.slots[i])
		writePtr += s.length
	}

	p.freeSpacePtr = writePtr
	p.writeFooter()
}

// sortByOffset sorts slot indices by ascending slots[i].offset, insertion
// style since slot counts per page are small.
func sortByOffset(order []int, slots []slotEntry) {
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && slots[order[j-1]].offset > slots[order[j]].offset; j-- {
			order[j-1], order[j] = order[j], order[j-1]
		}
	}
}

// FindRecord does a linear scan over every slot comparing the first keySize
// bytes of each record to key, returning the first match. The page's B+
// tree index is a query accelerator populated by InsertRecord; FindRecord
// itself always performs the full scan so that it only ever reports
// "not found" after genuinely missing every slot (spec §9's correction to
// the reference implementation's short-circuiting bug).
func (p *Page) FindRecord(key []byte) (slotID int, found bool) {
	for i, s := range p.slots {
		if s.tombstoned() {
			continue
		}
		record := p.Data[s.offset : s.offset+s.length]
		if recordKeyEqual(record, key) {
			return i, true
		}
	}
	return 0, false
}

// SearchIndex consults only the page's B+ tree index, exercising C3
// directly without falling back to a linear scan.
func (p *Page) SearchIndex(key []byte) (slotID int, found bool) {
	if len(key) < keySize {
		return 0, false
	}
	return p.index.Search(binary.LittleEndian.Uint32(key))
}

func recordKeyEqual(record, key []byte) bool {
	if len(record) < keySize || len(key) < keySize {
		return false
	}
	for i := 0; i < keySize; i++ {
		if record[i] != key[i] {
			return false
		}
	}
	return true
}
