package book

import (
	"encoding/binary"
	"testing"

	"github.com/hezhaoyun/xiangqigo/common"
)

func encodeRecord(hash uint64, move, weight uint16) []byte {
	buf := make([]byte, recordSize)
	binary.BigEndian.PutUint64(buf[0:8], hash)
	binary.BigEndian.PutUint16(buf[8:10], move)
	binary.BigEndian.PutUint16(buf[10:12], weight)
	return buf
}

func TestLoadRejectsTruncatedFile(t *testing.T) {
	if _, err := Load([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected an error for a file not a multiple of the record size")
	}
}

func TestLoadRejectsUnsortedHashes(t *testing.T) {
	var data []byte
	data = append(data, encodeRecord(10, 0, 1)...)
	data = append(data, encodeRecord(5, 0, 1)...)
	if _, err := Load(data); err == nil {
		t.Fatal("expected an error for non-ascending hashes")
	}
}

func TestProbeFindsMatchingHash(t *testing.T) {
	var data []byte
	data = append(data, encodeRecord(5, common.Encode16(0, 1), 1)...)
	data = append(data, encodeRecord(10, common.Encode16(2, 3), 5)...)
	data = append(data, encodeRecord(10, common.Encode16(4, 5), 1)...)
	data = append(data, encodeRecord(20, common.Encode16(6, 7), 1)...)

	b, err := Load(data)
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	if _, _, ok := b.Probe(999, 0); ok {
		t.Fatal("expected no match for an absent hash")
	}
	from, to, ok := b.Probe(10, 7)
	if !ok {
		t.Fatal("expected a match for hash 10")
	}
	if int(from) < 0 || int(to) < 0 {
		t.Fatalf("unexpected squares: %d -> %d", from, to)
	}
}

func TestVerifyFileDetectsUnsortedChunks(t *testing.T) {
	var data []byte
	for i := 0; i < 50; i++ {
		data = append(data, encodeRecord(uint64(i), 0, 1)...)
	}
	if err := VerifyFile(data); err != nil {
		t.Fatalf("expected sorted data to verify cleanly: %v", err)
	}
	copy(data[12*25:12*25+8], encodeRecord(0, 0, 0)[:8])
	if err := VerifyFile(data); err == nil {
		t.Fatal("expected VerifyFile to detect the corrupted middle record")
	}
}
