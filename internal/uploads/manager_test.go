package uploads

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, cfg Config) *Manager {
	t.Helper()
	if cfg.Root == "" {
		cfg.Root = t.TempDir()
	}
	m, err := NewManager(cfg)
	require.NoError(t, err)
	return m
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{0, 0, 255, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"photo.png", "photo.png"},
		{"my wallet.jpg", "my_wallet.jpg"},
		{"../../etc/passwd.png", "passwd.png"},
		{`..\..\windows\evil.gif`, "evil.gif"},
		{".hidden.png", "hidden.png"},
		{"café keys.jpeg", "caf_keys.jpeg"},
		{"???", "upload"},
		{"", "upload"},
		{"..", "upload"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}
}

func TestManager_StoreAndLocate(t *testing.T) {
	m := newTestManager(t, Config{})
	data := testPNG(t, 4, 4)

	ref, err := m.Store(bytes.NewReader(data), "wallet.png")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(ref, "_wallet.png"))
	assert.NotContains(t, ref, "/")

	p, err := m.Locate(ref)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(m.Root(), ref), p)

	stored, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, data, stored)
}

func TestManager_StoreSameNameTwice(t *testing.T) {
	m := newTestManager(t, Config{})
	data := testPNG(t, 2, 2)

	first, err := m.Store(bytes.NewReader(data), "keys.png")
	require.NoError(t, err)
	second, err := m.Store(bytes.NewReader(data), "keys.png")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	_, err = m.Locate(first)
	require.NoError(t, err)
	_, err = m.Locate(second)
	require.NoError(t, err)
}

func TestManager_StoreTraversalStaysInRoot(t *testing.T) {
	m := newTestManager(t, Config{})

	ref, err := m.Store(bytes.NewReader(testPNG(t, 2, 2)), "../../outside.png")
	require.NoError(t, err)

	p, err := m.Locate(ref)
	require.NoError(t, err)
	assert.Equal(t, m.Root(), filepath.Dir(p))
}

func TestManager_StoreRejectsDisallowedExtension(t *testing.T) {
	m := newTestManager(t, Config{})

	_, err := m.Store(strings.NewReader("#!/bin/sh\n"), "script.sh")
	require.ErrorIs(t, err, ErrUnsupportedMediaType)

	_, err = m.Store(strings.NewReader("data"), "noextension")
	require.ErrorIs(t, err, ErrUnsupportedMediaType)

	entries, err := os.ReadDir(m.Root())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestManager_StoreRejectsMismatchedContent(t *testing.T) {
	m := newTestManager(t, Config{})

	_, err := m.Store(strings.NewReader("this is plain text, not a picture"), "fake.png")
	require.ErrorIs(t, err, ErrUnsupportedMediaType)

	_, err = m.Store(bytes.NewReader(testPNG(t, 2, 2)), "renamed.jpg")
	require.ErrorIs(t, err, ErrUnsupportedMediaType)
}

func TestManager_StoreLimits(t *testing.T) {
	m := newTestManager(t, Config{MaxBytes: 64})

	_, err := m.Store(bytes.NewReader(bytes.Repeat([]byte{0x89}, 65)), "big.png")
	require.ErrorIs(t, err, ErrFileTooLarge)

	_, err = m.Store(bytes.NewReader(nil), "empty.png")
	require.ErrorIs(t, err, ErrEmptyFile)
}

func TestManager_CustomExtensions(t *testing.T) {
	m := newTestManager(t, Config{AllowedExtensions: []string{".PDF", " txt "}})

	assert.True(t, m.Allowed("report.pdf"))
	assert.True(t, m.Allowed("notes.TXT"))
	assert.False(t, m.Allowed("photo.png"))

	ref, err := m.Store(strings.NewReader("lost umbrella near gym"), "notes.txt")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(ref, "_notes.txt"))
}

func TestManager_RemoveIsIdempotent(t *testing.T) {
	m := newTestManager(t, Config{})

	ref, err := m.Store(bytes.NewReader(testPNG(t, 2, 2)), "phone.png")
	require.NoError(t, err)

	require.NoError(t, m.Remove(ref))
	require.NoError(t, m.Remove(ref))

	_, err = m.Locate(ref)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestManager_RejectsEscapingRefs(t *testing.T) {
	m := newTestManager(t, Config{})

	for _, ref := range []string{"", ".", "..", "../x.png", "a/b.png", `a\b.png`} {
		require.ErrorIs(t, m.Remove(ref), ErrInvalidRef, ref)
		_, err := m.Locate(ref)
		require.ErrorIs(t, err, ErrInvalidRef, ref)
	}
}

func TestManager_Resolve(t *testing.T) {
	m := newTestManager(t, Config{})

	assert.Nil(t, m.Resolve(nil, "http://localhost:8080"))
	empty := ""
	assert.Nil(t, m.Resolve(&empty, "http://localhost:8080"))

	ref := "20240101120000_abc_wallet.png"
	url := m.Resolve(&ref, "http://localhost:8080/")
	require.NotNil(t, url)
	assert.Equal(t, "http://localhost:8080/static/uploads/20240101120000_abc_wallet.png", *url)

	public := newTestManager(t, Config{PublicBaseURL: "https://cdn.example.com/", URLPrefix: "files/"})
	url = public.Resolve(&ref, "http://localhost:8080")
	require.NotNil(t, url)
	assert.Equal(t, "https://cdn.example.com/files/20240101120000_abc_wallet.png", *url)
}

func TestManager_DownscalesLargeImages(t *testing.T) {
	m := newTestManager(t, Config{MaxImageDimension: 50})

	ref, err := m.Store(bytes.NewReader(testPNG(t, 200, 100)), "wide.png")
	require.NoError(t, err)
	p, err := m.Locate(ref)
	require.NoError(t, err)

	f, err := os.Open(p)
	require.NoError(t, err)
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 50, cfg.Width)
	assert.Equal(t, 25, cfg.Height)

	ref, err = m.Store(bytes.NewReader(testJPEG(t, 60, 120)), "tall.jpg")
	require.NoError(t, err)
	p, err = m.Locate(ref)
	require.NoError(t, err)
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	cfg, format, err = image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 25, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestManager_SmallImagesUntouched(t *testing.T) {
	m := newTestManager(t, Config{MaxImageDimension: 50})
	data := testPNG(t, 10, 10)

	ref, err := m.Store(bytes.NewReader(data), "small.png")
	require.NoError(t, err)
	p, err := m.Locate(ref)
	require.NoError(t, err)
	stored, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, data, stored)
}
