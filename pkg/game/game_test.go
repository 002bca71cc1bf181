package game

import (
	"archive/zip"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rom = []byte{0x00, 0xc3, 0x50, 0x01, 0xce, 0xed, 0x66, 0x66, 0xcc, 0x0d}

func writeZip(t *testing.T, path string, files map[string][]byte) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for name, data := range files {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
}

func TestRawGame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tetris.gb")
	require.NoError(t, os.WriteFile(path, rom, 0644))

	g, err := NewFileGame(path)
	require.NoError(t, err)

	assert.Equal(t, "tetris.gb", g.Name())
	assert.Equal(t, "tetris", Title(g))
	assert.Equal(t, rom, g.Data())
	p, ok := g.Path()
	assert.True(t, ok)
	assert.Equal(t, path, p)
	assert.NoError(t, g.Close())
	assert.FileExists(t, path)
}

func TestZippedGame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pack.zip")
	writeZip(t, path, map[string][]byte{"readme.txt": []byte("hi"), "dir/game.gbc": rom})

	g, err := NewFileGame(path, "gbc", ".gb")
	require.NoError(t, err)

	assert.Equal(t, "game.gbc", g.Name())
	assert.Equal(t, rom, g.Data())
	p, _ := g.Path()
	assert.NotEqual(t, path, p)
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, rom, data)

	require.NoError(t, g.Close())
	assert.NoFileExists(t, p)
}

func TestZipWithoutGame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pack.zip")
	writeZip(t, path, map[string][]byte{"readme.txt": []byte("hi")})

	_, err := NewFileGame(path, "gb")
	assert.ErrorIs(t, err, ErrNoROMFile)
}

func TestGzippedGame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zelda.gb.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := gzip.NewWriter(f)
	_, err = w.Write(rom)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	g, err := NewFileGame(path)
	require.NoError(t, err)
	defer func() { _ = g.Close() }()

	assert.Equal(t, "zelda.gb", g.Name())
	assert.Equal(t, rom, g.Data())
}

func TestMissingGame(t *testing.T) {
	_, err := NewFileGame(filepath.Join(t.TempDir(), "nope.gb"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDetect(t *testing.T) {
	tests := []struct {
		header []byte
		want   format
	}{
		{header: []byte("PK\x03\x04...."), want: formatZIP},
		{header: []byte("PK\x05\x06"), want: formatZIP},
		{header: []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C, 0, 4}, want: format7z},
		{header: []byte{0x1F, 0x8B, 8}, want: formatGzip},
		{header: []byte("Rar!\x1a\x07"), want: formatRAR},
		{header: rom, want: formatRaw},
		{header: nil, want: formatRaw},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, detect(test.header), "%x", test.header)
	}
}

func TestMemoryGame(t *testing.T) {
	data := []byte{1, 2, 3}
	g := NewMemoryGame("mem.gb", data)
	data[0] = 9

	assert.Equal(t, []byte{1, 2, 3}, g.Data())
	_, ok := g.Path()
	assert.False(t, ok)
}

func TestFileSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.sav")
	require.NoError(t, os.WriteFile(path, []byte{1, 2}, 0644))

	s, err := NewFileSave(path)
	require.NoError(t, err)
	assert.True(t, s.CanWrite())
	assert.Equal(t, []byte{1, 2}, s.Data())

	require.NoError(t, s.Write([]byte{3, 4, 5}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 4, 5}, data)
	assert.Equal(t, []byte{3, 4, 5}, s.Data())
}

func TestReadOnlySave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.sav")
	require.NoError(t, os.WriteFile(path, []byte{1}, 0444))

	s, err := NewFileSave(path)
	require.NoError(t, err)
	assert.False(t, s.CanWrite())
	assert.ErrorIs(t, s.Write([]byte{2}), os.ErrPermission)

	m := NewMemorySave("x.sav", nil)
	assert.False(t, m.CanWrite())
	assert.Error(t, m.Write(nil))
}
