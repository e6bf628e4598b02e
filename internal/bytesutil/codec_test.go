package bytesutil

import "testing"

func TestUint32_RoundTrip(t *testing.T) {
	buf := make([]byte, 4)
	PutUint32(buf, 0xdeadbeef)
	got, err := Uint32(buf)
	if err != nil {
		t.Fatalf("Uint32: %v", err)
	}
	if got != 0xdeadbeef {
		t.Fatalf("got %x, want %x", got, 0xdeadbeef)
	}
}

func TestUint32_ShortBuffer(t *testing.T) {
	if _, err := Uint32([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error on short buffer")
	}
}

func TestUint64_RoundTrip(t *testing.T) {
	buf := make([]byte, 8)
	PutUint64(buf, 0x0102030405060708)
	got, err := Uint64(buf)
	if err != nil {
		t.Fatalf("Uint64: %v", err)
	}
	if got != 0x0102030405060708 {
		t.Fatalf("got %x, want %x", got, 0x0102030405060708)
	}
}

func TestUint64_ShortBuffer(t *testing.T) {
	if _, err := Uint64(make([]byte, 7)); err == nil {
		t.Fatal("expected error on short buffer")
	}
}

func TestString_RoundTrip(t *testing.T) {
	buf := make([]byte, 64)
	if err := PutString(buf, "kaas"); err != nil {
		t.Fatalf("PutString: %v", err)
	}
	s, n, err := String(buf)
	if err != nil {
		t.Fatalf("String: %v", err)
	}
	if s != "kaas" || n != 5 {
		t.Fatalf("got (%q, %d), want (%q, 5)", s, n, "kaas")
	}
}

func TestString_Empty(t *testing.T) {
	buf := make([]byte, 8)
	if err := PutString(buf, ""); err != nil {
		t.Fatalf("PutString: %v", err)
	}
	s, n, err := String(buf)
	if err != nil {
		t.Fatalf("String: %v", err)
	}
	if s != "" || n != 1 {
		t.Fatalf("got (%q, %d), want (\"\", 1)", s, n)
	}
}

func TestPutString_TooLong(t *testing.T) {
	long := make([]byte, 256)
	if err := PutString(make([]byte, 300), string(long)); err == nil {
		t.Fatal("expected error for string longer than 255 bytes")
	}
}

func TestString_ShortBuffer(t *testing.T) {
	if _, _, err := String(nil); err == nil {
		t.Fatal("expected error on empty buffer")
	}
	buf := []byte{5, 'a', 'b'} // declares 5 bytes, only 2 present
	if _, _, err := String(buf); err == nil {
		t.Fatal("expected error on truncated string")
	}
}
