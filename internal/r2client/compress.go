package r2client

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// CompressFile writes a zstd-compressed copy of srcPath to dstPath.
func CompressFile(srcPath, dstPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("compress: open source: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("compress: create dest: %w", err)
	}
	defer dst.Close()

	encoder, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return fmt.Errorf("compress: create encoder: %w", err)
	}
	if _, err := io.Copy(encoder, src); err != nil {
		_ = encoder.Close()
		return fmt.Errorf("compress: copy: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("compress: close encoder: %w", err)
	}
	return dst.Sync()
}

// DecompressStream decompresses r into dstPath. The file appears only after
// the whole stream has been decoded, so a truncated download never replaces
// a good database.
func DecompressStream(r io.Reader, dstPath string) error {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return fmt.Errorf("decompress: create decoder: %w", err)
	}
	defer decoder.Close()

	partPath := dstPath + ".part"
	dst, err := os.Create(partPath)
	if err != nil {
		return fmt.Errorf("decompress: create dest: %w", err)
	}

	if _, err := io.Copy(dst, decoder); err != nil {
		_ = dst.Close()
		_ = os.Remove(partPath)
		return fmt.Errorf("decompress: copy: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(partPath)
		return fmt.Errorf("decompress: close dest: %w", err)
	}
	if err := os.Rename(partPath, dstPath); err != nil {
		_ = os.Remove(partPath)
		return fmt.Errorf("decompress: rename: %w", err)
	}
	return nil
}
