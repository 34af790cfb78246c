package types

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "plain bytes", input: "1024", want: 1024},
		{name: "zero", input: "0", want: 0},
		{name: "byte suffix", input: "512B", want: 512},
		{name: "lowercase byte suffix", input: "512b", want: 512},
		{name: "kilobytes", input: "100K", want: 100 * KiB},
		{name: "kilobytes with B", input: "100KB", want: 100 * KiB},
		{name: "kibibytes", input: "100KiB", want: 100 * KiB},
		{name: "megabytes", input: "10MB", want: 10 * MiB},
		{name: "gigabytes lowercase", input: "2g", want: 2 * GiB},
		{name: "terabytes", input: "1TiB", want: TiB},
		{name: "decimal", input: "1.5G", want: int64(1.5 * float64(GiB))},
		{name: "surrounding whitespace", input: "  100M  ", want: 100 * MiB},
		{name: "space before unit", input: "100 MB", want: 100 * MiB},
		{name: "empty", input: "", wantErr: true},
		{name: "negative", input: "-5M", wantErr: true},
		{name: "unknown unit", input: "5X", wantErr: true},
		{name: "garbage", input: "invalid", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseSize(%q) expected error, got %d", tt.input, got)
				}
				if !errors.Is(err, ErrInvalidSize) {
					t.Errorf("ParseSize(%q) error = %v, want ErrInvalidSize", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSize(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		input int64
		want  string
	}{
		{0, "0 B"},
		{1024, "1.0 KiB"},
		{1536 * KiB, "1.5 MiB"},
		{-1, "0 B"},
	}
	for _, tt := range tests {
		if got := FormatSize(tt.input); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNewPartialFailure(t *testing.T) {
	t.Parallel()

	if err := NewPartialFailure("restore", 3, nil); err != nil {
		t.Fatalf("NewPartialFailure with no failures = %v, want nil", err)
	}

	cause := fmt.Errorf("open: %w", fs.ErrPermission)
	err := NewPartialFailure("restore", 2, []ItemError{
		NewItemError("Config/options.lua", cause),
		{Item: "Config/autoexec.cfg", Message: "locked"},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrPartialFailure) {
		t.Errorf("errors.Is(err, ErrPartialFailure) = false")
	}
	if !errors.Is(err, fs.ErrPermission) {
		t.Errorf("item cause should be reachable through errors.Is")
	}

	var pf *PartialFailureError
	if !errors.As(err, &pf) {
		t.Fatal("errors.As(*PartialFailureError) = false")
	}
	if pf.Succeeded != 2 || len(pf.Failed) != 2 {
		t.Errorf("got succeeded=%d failed=%d", pf.Succeeded, len(pf.Failed))
	}
	if !strings.Contains(err.Error(), "options.lua") {
		t.Errorf("message %q should name failed items", err.Error())
	}
}

func TestPartialFailureMessageTruncates(t *testing.T) {
	t.Parallel()

	var failed []ItemError
	for i := 0; i < 8; i++ {
		failed = append(failed, ItemError{Item: fmt.Sprintf("svc%d", i), Message: "denied"})
	}
	msg := NewPartialFailure("apply", 0, failed).Error()
	if !strings.Contains(msg, "and 3 more") {
		t.Errorf("message %q should truncate the item list", msg)
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"permission", &fs.PathError{Op: "open", Path: "x", Err: fs.ErrPermission}, ErrPermissionDenied},
		{"not exist", &fs.PathError{Op: "open", Path: "x", Err: fs.ErrNotExist}, ErrNotFound},
		{"already classified", ErrLocked, ErrLocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if !errors.Is(got, tt.want) {
				t.Errorf("Classify(%v) = %v, want kind %v", tt.err, got, tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("Classify must keep the original error in the chain")
			}
		})
	}

	if Classify(nil) != nil {
		t.Error("Classify(nil) should be nil")
	}
	if !IsPermission(Classify(&fs.PathError{Err: fs.ErrPermission})) {
		t.Error("IsPermission should detect classified permission errors")
	}
}
