package heapdb

import "testing"

func recordWithKey(t *testing.T, id uint32, payload string) []byte {
	t.Helper()
	schema := Schema{TypeInt, TypeVarStr}
	record, err := EncodeRecord([]Value{IntValue(id), StringValue(payload)}, schema)
	if err != nil {
		t.Fatalf("EncodeRecord failed: %v", err)
	}
	return record
}

func TestPageInsertAndFind(t *testing.T) {
	p := NewPage()
	rec := recordWithKey(t, 1, "hello")

	slotID, ok := p.InsertRecord(rec)
	if !ok {
		t.Fatal("InsertRecord failed on a fresh page")
	}

	got, found := p.FindRecord(encodeKey(1))
	if !found || got != slotID {
		t.Fatalf("FindRecord: got (%d, %v), want (%d, true)", got, found, slotID)
	}

	raw, err := p.ReadRecord(slotID)
	if err != nil {
		t.Fatalf("ReadRecord failed: %v", err)
	}
	if string(raw) != string(rec) {
		t.Fatalf("ReadRecord mismatch: got %q, want %q", raw, rec)
	}
}

func TestPageFindRecordMissing(t *testing.T) {
	p := NewPage()
	p.InsertRecord(recordWithKey(t, 1, "a"))

	if _, found := p.FindRecord(encodeKey(999)); found {
		t.Fatal("FindRecord reported a hit for an absent key")
	}
}

func TestPageUpdateEqualLength(t *testing.T) {
	p := NewPage()
	slotID, _ := p.InsertRecord(recordWithKey(t, 1, "aaaaa"))

	newRec := recordWithKey(t, 1, "bbbbb")
	if !p.UpdateRecord(slotID, newRec) {
		t.Fatal("equal-length UpdateRecord should succeed in place")
	}
	raw, _ := p.ReadRecord(slotID)
	if string(raw) != string(newRec) {
		t.Fatalf("UpdateRecord mismatch: got %q, want %q", raw, newRec)
	}
}

func TestPageUpdateShorter(t *testing.T) {
	p := NewPage()
	slotID, _ := p.InsertRecord(recordWithKey(t, 1, "aaaaaaaaaa"))
	before := p.FreeSpace()

	newRec := recordWithKey(t, 1, "a")
	if !p.UpdateRecord(slotID, newRec) {
		t.Fatal("shorter UpdateRecord should succeed")
	}
	if p.FreeSpace() <= before {
		t.Fatalf("shorter update should reclaim space: before=%d after=%d", before, p.FreeSpace())
	}
	raw, _ := p.ReadRecord(slotID)
	if string(raw) != string(newRec) {
		t.Fatalf("UpdateRecord mismatch: got %q, want %q", raw, newRec)
	}
}

func TestPageUpdateLongerRelocatesSlot(t *testing.T) {
	p := NewPage()
	slotID, _ := p.InsertRecord(recordWithKey(t, 1, "a"))

	newRec := recordWithKey(t, 1, "a much longer payload than before")
	if !p.UpdateRecord(slotID, newRec) {
		t.Fatal("longer UpdateRecord should succeed via delete+reinsert")
	}

	newSlot, found := p.FindRecord(encodeKey(1))
	if !found {
		t.Fatal("record should still be findable after a longer update")
	}
	raw, _ := p.ReadRecord(newSlot)
	if string(raw) != string(newRec) {
		t.Fatalf("UpdateRecord mismatch: got %q, want %q", raw, newRec)
	}
}

func TestPageDeleteTombstones(t *testing.T) {
	p := NewPage()
	slotID, _ := p.InsertRecord(recordWithKey(t, 1, "x"))

	if err := p.DeleteRecord(slotID); err != nil {
		t.Fatalf("DeleteRecord failed: %v", err)
	}
	if _, found := p.FindRecord(encodeKey(1)); found {
		t.Fatal("deleted record should no longer be found")
	}
	if p.IsPacked() {
		t.Fatal("a page holding a tombstoned slot should report IsPacked() == false")
	}
}

func TestPageInsertReusesLastTombstonedSlot(t *testing.T) {
	p := NewPage()
	s0, _ := p.InsertRecord(recordWithKey(t, 1, "a"))
	s1, _ := p.InsertRecord(recordWithKey(t, 2, "b"))

	p.DeleteRecord(s0)
	p.DeleteRecord(s1)

	reused, ok := p.InsertRecord(recordWithKey(t, 3, "c"))
	if !ok {
		t.Fatal("InsertRecord should reuse a tombstoned slot")
	}
	if reused != s1 {
		t.Fatalf("expected the last tombstoned slot (%d) to be reused, got %d", s1, reused)
	}
}

func TestPageCompactionPreservesLiveRecords(t *testing.T) {
	p := NewPage()
	s0, _ := p.InsertRecord(recordWithKey(t, 1, "aaa"))
	_, _ = p.InsertRecord(recordWithKey(t, 2, "bbb"))
	s2, _ := p.InsertRecord(recordWithKey(t, 3, "ccc"))

	p.DeleteRecord(s0)

	raw, err := p.ReadRecord(s2)
	if err != nil {
		t.Fatalf("ReadRecord after compaction failed: %v", err)
	}
	if string(raw) != string(recordWithKey(t, 3, "ccc")) {
		t.Fatalf("record 3 corrupted by compaction: %q", raw)
	}
}

func TestPageInsertRejectsOversizedRecord(t *testing.T) {
	p := NewPage()
	huge := make([]byte, PageSize)
	if _, ok := p.InsertRecord(huge); ok {
		t.Fatal("InsertRecord should refuse a record larger than the page")
	}
}

func TestPageLoadRoundTrip(t *testing.T) {
	p := NewPage()
	p.InsertRecord(recordWithKey(t, 1, "persisted"))

	loaded, err := LoadPage(p.Data)
	if err != nil {
		t.Fatalf("LoadPage failed: %v", err)
	}
	slotID, found := loaded.FindRecord(encodeKey(1))
	if !found {
		t.Fatal("reloaded page lost its record")
	}
	raw, _ := loaded.ReadRecord(slotID)
	if string(raw) != string(recordWithKey(t, 1, "persisted")) {
		t.Fatalf("reloaded record mismatch: %q", raw)
	}
}
