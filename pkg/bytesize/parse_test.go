package bytesize

import (
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "bytes", input: "512B", want: 512},
		{name: "kilobytes", input: "100KB", want: 100 * 1024},
		{name: "megabytes", input: "10MB", want: 10 * 1024 * 1024},
		{name: "terabytes", input: "1TB", want: int64(1024) * 1024 * 1024 * 1024},
		{name: "decimal", input: "1.5GB", want: int64(1.5 * 1024 * 1024 * 1024)},
		{name: "lowercase", input: "512kb", want: 512 * 1024},
		{name: "with spaces", input: " 1 MB ", want: 1024 * 1024},

		{name: "empty string", input: "", wantErr: true},
		{name: "missing unit", input: "512", wantErr: true},
		{name: "missing value", input: "MB", wantErr: true},
		{name: "invalid value", input: "abcMB", wantErr: true},
		{name: "negative value", input: "-1GB", wantErr: true},
		{name: "unknown unit", input: "512XB", wantErr: true},
		{name: "overflow", input: "99999999999TB", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		input int64
		want  string
	}{
		{0, "0B"},
		{512, "512B"},
		{1024, "1KB"},
		{1536, "1.5KB"},
		{10 * MB, "10MB"},
		{GB + GB/4, "1.3GB"},
	}

	for _, tt := range tests {
		if got := Format(tt.input); got != tt.want {
			t.Errorf("Format(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestMegabytes(t *testing.T) {
	tests := []struct {
		input int64
		want  int
	}{
		{0, 1},
		{512 * KB, 1},
		{MB, 1},
		{MB + 1, 2},
		{100 * MB, 100},
	}

	for _, tt := range tests {
		if got := Megabytes(tt.input); got != tt.want {
			t.Errorf("Megabytes(%d) = %d, want %d", tt.input, got, tt.want)
		}
	}
}
