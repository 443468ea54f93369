package object

import (
	"bytes"
	"testing"
)

func TestHeaderRoundTrip(t *testing.T) {
	tests := []Header{
		{Type: TypeBlob, Algorithm: 1, Compression: CompressionNone, PayloadLen: 6},
		{Type: TypeTree, Algorithm: 1, Compression: CompressionNone, PayloadLen: 0},
		{Type: TypeChunkList, Algorithm: 1, Compression: CompressionZstd, PayloadLen: 1 << 20},
	}
	for _, want := range tests {
		buf, err := want.Encode()
		if err != nil {
			t.Fatalf("Encode(%+v): %v", want, err)
		}
		if len(buf) != HeaderSize {
			t.Fatalf("Encode length = %d, want %d", len(buf), HeaderSize)
		}
		got, err := DecodeHeader(buf)
		if err != nil {
			t.Fatalf("DecodeHeader: %v", err)
		}
		if got != want {
			t.Errorf("DecodeHeader(Encode(%+v)) = %+v", want, got)
		}
	}
}

func TestDecodeHeaderNeverPanics(t *testing.T) {
	inputs := [][]byte{
		make([]byte, HeaderSize),
		make([]byte, HeaderSize+100),
		bytes.Repeat([]byte{0xff}, HeaderSize),
		append([]byte("CAFS"), bytes.Repeat([]byte{0}, HeaderSize-4)...),
	}
	for i, in := range inputs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("input %d: DecodeHeader panicked: %v", i, r)
				}
			}()
			DecodeHeader(in)
		}()
	}
}

func TestDecodeHeaderShortInput(t *testing.T) {
	for n := 0; n < HeaderSize; n++ {
		if _, err := DecodeHeader(make([]byte, n)); err == nil {
			t.Errorf("DecodeHeader(%d bytes) succeeded, want error", n)
		}
	}
}

func TestDecodeHeaderRejectsBadMagic(t *testing.T) {
	h := Header{Type: TypeBlob, Algorithm: 1, PayloadLen: 0}
	buf, _ := h.Encode()
	buf[0] = 'X'
	if _, err := DecodeHeader(buf); err == nil {
		t.Error("DecodeHeader with bad magic succeeded, want error")
	}
}

func TestDecodeHeaderRejectsBadVersion(t *testing.T) {
	h := Header{Type: TypeBlob, Algorithm: 1, PayloadLen: 0}
	buf, _ := h.Encode()
	buf[4] = 1
	if _, err := DecodeHeader(buf); err == nil {
		t.Error("DecodeHeader with version 1 succeeded, want error")
	}
}

func TestDecodeHeaderRejectsOutOfRangeFields(t *testing.T) {
	h := Header{Type: TypeBlob, Algorithm: 1, PayloadLen: 0}
	buf, _ := h.Encode()

	badType := append([]byte(nil), buf...)
	badType[5] = 9
	if _, err := DecodeHeader(badType); err == nil {
		t.Error("DecodeHeader with invalid type succeeded, want error")
	}

	badCompression := append([]byte(nil), buf...)
	badCompression[7] = 9
	if _, err := DecodeHeader(badCompression); err == nil {
		t.Error("DecodeHeader with invalid compression succeeded, want error")
	}
}

func TestEncodeDecodeFullObject(t *testing.T) {
	payload := []byte("payload bytes")
	h := Header{Type: TypeBlob, Algorithm: 1, Compression: CompressionNone}
	full, err := Encode(h, payload)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	gotHeader, gotPayload, err := Decode(full)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if gotHeader.PayloadLen != uint64(len(payload)) {
		t.Errorf("PayloadLen = %d, want %d", gotHeader.PayloadLen, len(payload))
	}
	if !bytes.Equal(gotPayload, payload) {
		t.Errorf("payload = %q, want %q", gotPayload, payload)
	}
}

func TestDecodeRejectsLengthMismatch(t *testing.T) {
	h := Header{Type: TypeBlob, Algorithm: 1}
	full, _ := Encode(h, []byte("12345"))
	truncated := full[:len(full)-1]
	if _, _, err := Decode(truncated); err == nil {
		t.Error("Decode with truncated payload succeeded, want error")
	}
	padded := append(full, 0xff)
	if _, _, err := Decode(padded); err == nil {
		t.Error("Decode with extra trailing byte succeeded, want error")
	}
}
