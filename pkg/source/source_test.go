package source_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hitoa/vclc/pkg/source"
)

func TestBufferGetLineColumn(t *testing.T) {
	buf := source.NewBuffer("test.vcl", []byte("abc\ndef\nghi"))

	cases := []struct {
		offset           int
		wantLine, wantCol int
	}{
		{0, 1, 1},  // 'a'
		{2, 1, 3},  // 'c'
		{4, 2, 1},  // 'd' (right after the first \n)
		{7, 2, 4},  // the \n ending line 2
		{8, 3, 1},  // 'g'
		{10, 3, 3}, // 'i'
	}
	for _, c := range cases {
		line, col := buf.GetLineColumn(c.offset)
		if line != c.wantLine || col != c.wantCol {
			t.Errorf("GetLineColumn(%d) = (%d,%d), want (%d,%d)", c.offset, line, col, c.wantLine, c.wantCol)
		}
	}
}

func TestBufferNameTextLenAt(t *testing.T) {
	buf := source.NewBuffer("main.vcl", []byte("xyz"))
	if buf.Name() != "main.vcl" {
		t.Fatalf("expected Name() = main.vcl, got %q", buf.Name())
	}
	if buf.Len() != 3 {
		t.Fatalf("expected Len() = 3, got %d", buf.Len())
	}
	if buf.At(1) != 'y' {
		t.Fatalf("expected At(1) = 'y', got %q", buf.At(1))
	}
	if string(buf.Slice(0, 2)) != "xy" {
		t.Fatalf("expected Slice(0,2) = xy, got %q", buf.Slice(0, 2))
	}
}

func TestLocationValidAndAdvance(t *testing.T) {
	buf := source.NewBuffer("f.vcl", []byte("ab"))
	loc := source.Location{Buffer: buf, Offset: 0}
	if !loc.Valid() {
		t.Fatalf("expected offset 0 to be valid")
	}
	if loc.Byte() != 'a' {
		t.Fatalf("expected Byte() = 'a', got %q", loc.Byte())
	}
	next := loc.Advance()
	if next.Offset != 1 || next.Byte() != 'b' {
		t.Fatalf("expected Advance() to land on 'b' at offset 1, got offset=%d byte=%q", next.Offset, next.Byte())
	}
	end := source.Location{Buffer: buf, Offset: 2}
	if end.Valid() {
		t.Fatalf("expected an out-of-bounds offset to be invalid")
	}
	if (source.Location{}).Valid() {
		t.Fatalf("expected a zero-value Location to be invalid")
	}
}

func TestLocationLess(t *testing.T) {
	buf := source.NewBuffer("f.vcl", []byte("abcd"))
	a := source.Location{Buffer: buf, Offset: 1}
	b := source.Location{Buffer: buf, Offset: 2}
	if !a.Less(b) {
		t.Fatalf("expected offset 1 to be Less than offset 2")
	}
	if b.Less(a) {
		t.Fatalf("expected offset 2 not to be Less than offset 1")
	}
}

func TestRangeLengthTextAndUnion(t *testing.T) {
	buf := source.NewBuffer("f.vcl", []byte("hello world"))
	helloRange := source.NewRange(
		source.Location{Buffer: buf, Offset: 0},
		source.Location{Buffer: buf, Offset: 5},
	)
	worldRange := source.NewRange(
		source.Location{Buffer: buf, Offset: 6},
		source.Location{Buffer: buf, Offset: 11},
	)
	if helloRange.Length() != 5 {
		t.Fatalf("expected length 5, got %d", helloRange.Length())
	}
	if string(helloRange.Text()) != "hello" {
		t.Fatalf("expected text \"hello\", got %q", helloRange.Text())
	}

	union := helloRange.Union(worldRange)
	if union.Start.Offset != 0 || union.End.Offset != 11 {
		t.Fatalf("expected the union to span the whole buffer, got [%d,%d)", union.Start.Offset, union.End.Offset)
	}
	if string(union.Text()) != "hello world" {
		t.Fatalf("expected union text \"hello world\", got %q", union.Text())
	}
}

func TestManagerLoadFromDiskCachesByAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.vcl")
	if err := os.WriteFile(path, []byte("int x = 1;"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	m := source.NewManager()
	first, err := m.LoadFromDisk(path)
	if err != nil {
		t.Fatalf("LoadFromDisk: %v", err)
	}
	second, err := m.LoadFromDisk(path)
	if err != nil {
		t.Fatalf("LoadFromDisk (cached): %v", err)
	}
	if first != second {
		t.Fatalf("expected a second LoadFromDisk of the same path to return the cached Buffer")
	}
	abs, _ := filepath.Abs(path)
	if !m.Has(abs) {
		t.Fatalf("expected Has to report the absolute path as loaded")
	}
}

func TestManagerLoadFromDiskMissingFile(t *testing.T) {
	m := source.NewManager()
	if _, err := m.LoadFromDisk(filepath.Join(t.TempDir(), "missing.vcl")); err != source.ErrFileNotFound {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
}

func TestManagerLoadFromMemory(t *testing.T) {
	m := source.NewManager()
	buf := m.LoadFromMemory([]byte("float y = 2.0;"), "inline")
	if buf.Name() != "inline" {
		t.Fatalf("expected Name() = inline, got %q", buf.Name())
	}
	if !m.Has("inline") {
		t.Fatalf("expected Has to report the memory tag as loaded")
	}
}

func TestMapPutGet(t *testing.T) {
	buf := source.NewBuffer("f.vcl", []byte("abc"))
	m := source.NewMap[string]()
	r := source.NewRange(source.Location{Buffer: buf, Offset: 0}, source.Location{Buffer: buf, Offset: 1})
	m.Put("node1", r)

	got, ok := m.Get("node1")
	if !ok || got != r {
		t.Fatalf("expected Get to return the range stored under node1, got %v ok=%v", got, ok)
	}
	if _, ok := m.Get("missing"); ok {
		t.Fatalf("expected Get to report false for an unstored key")
	}
}
