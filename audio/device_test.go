package audio

import "testing"

func TestApplyKey(t *testing.T) {
	tests := []struct {
		name   string
		key    []byte
		cursor int
		want   int
		action keyAction
	}{
		{"down arrow", []byte{0x1b, '[', 'B'}, 0, 1, keyNone},
		{"down clamps", []byte{0x1b, '[', 'B'}, 2, 2, keyNone},
		{"up arrow", []byte{0x1b, '[', 'A'}, 2, 1, keyNone},
		{"up clamps", []byte{0x1b, '[', 'A'}, 0, 0, keyNone},
		{"vim down", []byte{'j'}, 1, 2, keyNone},
		{"vim up", []byte{'k'}, 1, 0, keyNone},
		{"enter", []byte{'\r'}, 1, 1, keyConfirm},
		{"ctrl-c", []byte{3}, 1, 1, keyCancel},
		{"other", []byte{'x'}, 1, 1, keyNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, action := applyKey(tt.key, tt.cursor, 3)
			if got != tt.want || action != tt.action {
				t.Fatalf("applyKey = (%d, %d), want (%d, %d)", got, action, tt.want, tt.action)
			}
		})
	}
}
