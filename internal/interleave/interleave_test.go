package interleave

import (
	"bytes"
	"testing"
)

func TestInterleave(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		stride int
		want   []byte
	}{
		{"stride2", []byte{1, 2, 3, 4, 5, 6}, 2, []byte{1, 3, 5, 2, 4, 6}},
		{"stride4", []byte{1, 2, 3, 4, 5, 6, 7, 8}, 4, []byte{1, 5, 2, 6, 3, 7, 4, 8}},
		{"remainder", []byte{1, 2, 3, 4, 9}, 2, []byte{1, 3, 2, 4, 9}},
		{"stride1", []byte{7, 8}, 1, []byte{7, 8}},
		{"empty", []byte{}, 4, []byte{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Interleave(tt.data, tt.stride, nil)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Interleave() = %v, want %v", got, tt.want)
			}
			back := Deinterleave(got, tt.stride, nil)
			if !bytes.Equal(back, tt.data) {
				t.Errorf("Deinterleave() = %v, want %v", back, tt.data)
			}
		})
	}
}

func TestInterleaveReusesBuffer(t *testing.T) {
	out := make([]byte, 4)
	got := Interleave([]byte{1, 2, 3, 4}, 2, out)
	if &got[0] != &out[0] {
		t.Error("Interleave did not write into the supplied buffer")
	}
}
