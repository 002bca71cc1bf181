package game

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/nwaples/rardecode/v2"
)

var (
	magicZIP    = []byte{0x50, 0x4B, 0x03, 0x04}
	magicZIPEnd = []byte{0x50, 0x4B, 0x05, 0x06}
	magic7z     = []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}
	magicGzip   = []byte{0x1F, 0x8B}
	magicRAR    = []byte{0x52, 0x61, 0x72, 0x21}
)

// MaxSize caps the size of a game image.
const MaxSize = 64 * 1024 * 1024

var (
	ErrNoROMFile    = errors.New("no game file found in the archive")
	ErrFileTooLarge = errors.New("file exceeds maximum size limit")
)

type format int

const (
	formatRaw format = iota
	formatZIP
	format7z
	formatGzip
	formatRAR
)

func detect(header []byte) format {
	switch {
	case bytes.HasPrefix(header, magicZIP), bytes.HasPrefix(header, magicZIPEnd):
		return formatZIP
	case bytes.HasPrefix(header, magicRAR):
		return formatRAR
	case bytes.HasPrefix(header, magic7z):
		return format7z
	case bytes.HasPrefix(header, magicGzip):
		return formatGzip
	}
	return formatRaw
}

// load returns the game data with its file name and
// whether it was taken out of an archive.
func load(path string, extensions []string) ([]byte, string, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", false, fmt.Errorf("game: %w", err)
	}
	defer func() { _ = f.Close() }()

	header := make([]byte, 8)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, "", false, fmt.Errorf("game header: %w", err)
	}
	if _, err = f.Seek(0, io.SeekStart); err != nil {
		return nil, "", false, fmt.Errorf("game: %w", err)
	}

	var data []byte
	var name string
	switch detect(header[:n]) {
	case formatRaw:
		data, err = limitedRead(f)
		return data, filepath.Base(path), false, err
	case formatZIP:
		data, name, err = fromZIP(path, extensions)
	case format7z:
		data, name, err = from7z(path, extensions)
	case formatGzip:
		data, name, err = fromGzip(f, path)
	case formatRAR:
		data, name, err = fromRAR(path, extensions)
	}
	return data, name, true, err
}

func isROMFile(name string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	for _, e := range extensions {
		if ext == strings.TrimPrefix(strings.ToLower(e), ".") {
			return true
		}
	}
	return false
}

func limitedRead(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxSize {
		return nil, ErrFileTooLarge
	}
	return data, nil
}

type archiveFile interface {
	Open() (io.ReadCloser, error)
}

func readEntry(f archiveFile, name string) ([]byte, string, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open %s in archive: %w", name, err)
	}
	defer func() { _ = rc.Close() }()
	data, err := limitedRead(rc)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", name, err)
	}
	return data, filepath.Base(name), nil
}

func fromZIP(path string, extensions []string) ([]byte, string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, "", fmt.Errorf("zip: %w", err)
	}
	defer func() { _ = r.Close() }()

	for _, f := range r.File {
		if f.FileInfo().IsDir() || !isROMFile(f.Name, extensions) {
			continue
		}
		return readEntry(f, f.Name)
	}
	return nil, "", ErrNoROMFile
}

func from7z(path string, extensions []string) ([]byte, string, error) {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, "", fmt.Errorf("7z: %w", err)
	}
	defer func() { _ = r.Close() }()

	for _, f := range r.File {
		if f.FileInfo().IsDir() || !isROMFile(f.Name, extensions) {
			continue
		}
		return readEntry(f, f.Name)
	}
	return nil, "", ErrNoROMFile
}

// fromGzip unpacks a single gzipped file, the name comes
// from the gzip header or the archive name without .gz.
func fromGzip(r io.Reader, path string) ([]byte, string, error) {
	gr, err := gzip.NewReader(r)
	if err != nil {
		return nil, "", fmt.Errorf("gzip: %w", err)
	}
	defer func() { _ = gr.Close() }()

	data, err := limitedRead(gr)
	if err != nil {
		return nil, "", fmt.Errorf("gzip: %w", err)
	}
	name := gr.Name
	if name == "" {
		name = filepath.Base(path)
		if strings.HasSuffix(strings.ToLower(name), ".gz") {
			name = name[:len(name)-3]
		}
	}
	return data, filepath.Base(name), nil
}

func fromRAR(path string, extensions []string) ([]byte, string, error) {
	r, err := rardecode.OpenReader(path)
	if err != nil {
		return nil, "", fmt.Errorf("rar: %w", err)
	}
	defer func() { _ = r.Close() }()

	for {
		header, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, "", fmt.Errorf("rar entry: %w", err)
		}
		if header.IsDir || !isROMFile(header.Name, extensions) {
			continue
		}
		data, err := limitedRead(r)
		if err != nil {
			return nil, "", fmt.Errorf("read %s: %w", header.Name, err)
		}
		return data, filepath.Base(header.Name), nil
	}
	return nil, "", ErrNoROMFile
}
