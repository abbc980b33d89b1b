package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nested", "01 - Intro.srt")

	if err := WriteFileAtomic(target, []byte("first"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic returned error: %v", err)
	}
	if err := WriteFileAtomic(target, []byte("second"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic returned error: %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read target: %v", err)
	}
	if string(data) != "second" {
		t.Fatalf("unexpected content %q", data)
	}

	entries, err := os.ReadDir(filepath.Dir(target))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp files to be cleaned up, got %d entries", len(entries))
	}

	info, err := os.Stat(target)
	if err != nil {
		t.Fatalf("stat target: %v", err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Fatalf("unexpected mode %v", info.Mode().Perm())
	}
}

func TestWriteFileAtomicEmpty(t *testing.T) {
	target := filepath.Join(t.TempDir(), "empty.srt")
	if err := WriteFileAtomic(target, nil, 0o644); err != nil {
		t.Fatalf("WriteFileAtomic returned error: %v", err)
	}
	if !Exists(target) {
		t.Fatal("expected empty file to exist")
	}
	if NonEmptyFile(target) {
		t.Fatal("expected empty file to be reported empty")
	}
}

func TestNonEmptyFile(t *testing.T) {
	dir := t.TempDir()
	full := filepath.Join(dir, "full.mp4")
	if err := os.WriteFile(full, []byte{1}, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if !NonEmptyFile(full) {
		t.Fatal("expected file to be non-empty")
	}
	if NonEmptyFile(dir) {
		t.Fatal("directories are not files")
	}
	if NonEmptyFile(filepath.Join(dir, "missing")) || Exists(filepath.Join(dir, "missing")) {
		t.Fatal("missing path reported present")
	}
}
