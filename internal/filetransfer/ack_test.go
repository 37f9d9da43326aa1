package filetransfer

import "testing"

func TestEncodeDecodeAckRoundTrip(t *testing.T) {
	wire := EncodeAck(9001)
	if len(wire) != AckWireSize {
		t.Fatalf("EncodeAck produced %d bytes, want %d", len(wire), AckWireSize)
	}

	value, err := DecodeAck(wire)
	if err != nil {
		t.Fatalf("DecodeAck returned error: %v", err)
	}
	if value != 9001 {
		t.Errorf("value = %d, want 9001", value)
	}
}

func TestDecodeAckRejectsDisagreeingCopies(t *testing.T) {
	wire := EncodeAck(5)
	wire[4] = 0xFF // corrupt the second copy

	if _, err := DecodeAck(wire); err == nil {
		t.Fatalf("DecodeAck succeeded on disagreeing copies, want error")
	}
}

func TestDecodeAckRejectsShortRecord(t *testing.T) {
	if _, err := DecodeAck([]byte{0, 0, 0, 1}); err == nil {
		t.Fatalf("DecodeAck succeeded on short record, want error")
	}
}
