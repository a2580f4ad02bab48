package fsutil

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	fserrors "github.com/deploymenttheory/go-dex-checksum/internal/utils/errors"
)

func TestWriteFileReadFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classes.dex")
	data := []byte("dex\n035\x00payload")

	if err := WriteFile(path, data, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if !FileExists(path) {
		t.Fatalf("expected %s to exist", path)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("round trip mismatch: got %q, want %q", got, data)
	}
}

func TestWriteFileTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.dex")
	if err := WriteFile(path, bytes.Repeat([]byte{0xff}, 64), 0644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFile(path, []byte{1, 2, 3}, 0644); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 3 {
		t.Errorf("file not truncated: size %d", info.Size())
	}
}

func TestWriteFileMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.dex")

	err := WriteFile(path, []byte{1}, 0644)
	if !errors.Is(err, fserrors.ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected underlying cause to be preserved, got %v", err)
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.dex"))
	if !errors.Is(err, fserrors.ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound, got %v", err)
	}
}

func TestReadFileHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.bin")
	if err := os.WriteFile(path, []byte{0x1f, 0x8b, 0x08}, 0644); err != nil {
		t.Fatal(err)
	}

	header, err := ReadFileHeader(path, 8)
	if err != nil {
		t.Fatalf("ReadFileHeader failed: %v", err)
	}
	if !bytes.Equal(header, []byte{0x1f, 0x8b, 0x08}) {
		t.Errorf("unexpected header %x", header)
	}
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory available")
	}

	got, err := ExpandTilde("~/dex/classes.dex")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(home, "dex", "classes.dex"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	if got, _ := ExpandTilde("/abs/classes.dex"); got != "/abs/classes.dex" {
		t.Errorf("absolute path changed: %q", got)
	}
}

func TestGetPathMutexNormalizes(t *testing.T) {
	if GetPathMutex("a/b/../c") != GetPathMutex("a/c") {
		t.Error("equivalent paths should share a mutex")
	}
}
