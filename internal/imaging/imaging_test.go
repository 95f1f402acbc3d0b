package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(x % 256), B: uint8(y % 256), A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPrepareJPEG(t *testing.T) {
	data := testJPEG(t, 400, 300)

	got, err := Prepare(bytes.NewReader(data), "shelf.jpeg")
	require.NoError(t, err)

	assert.Equal(t, "shelf.jpg", got.Filename)
	assert.Equal(t, "image/jpeg", got.MIME)

	img, format, err := image.Decode(bytes.NewReader(got.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())
}

func TestPreparePNGReencoded(t *testing.T) {
	data := testPNG(t, 200, 200)

	got, err := Prepare(bytes.NewReader(data), "box.png")
	require.NoError(t, err)

	assert.Equal(t, "box.jpg", got.Filename)

	_, format, err := image.Decode(bytes.NewReader(got.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestPrepareDownscalesLargeImage(t *testing.T) {
	data := testJPEG(t, 2048, 1024)

	got, err := Prepare(bytes.NewReader(data), "pallet.jpg")
	require.NoError(t, err)

	img, _, err := image.Decode(bytes.NewReader(got.Data))
	require.NoError(t, err)
	assert.Equal(t, MaxDimension, img.Bounds().Dx())
	assert.Equal(t, MaxDimension/2, img.Bounds().Dy())
}

func TestPrepareDoesNotUpscale(t *testing.T) {
	data := testJPEG(t, 100, 80)

	got, err := Prepare(bytes.NewReader(data), "small.jpg")
	require.NoError(t, err)

	img, _, err := image.Decode(bytes.NewReader(got.Data))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 80, img.Bounds().Dy())
}

func TestPrepareRejectsInvalidData(t *testing.T) {
	_, err := Prepare(bytes.NewReader([]byte("not an image at all")), "fake.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported image format")
}

func TestPrepareRejectsGIF(t *testing.T) {
	img := image.NewPaletted(image.Rect(0, 0, 10, 10), color.Palette{color.White, color.Black})
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, img, nil))

	_, err := Prepare(bytes.NewReader(buf.Bytes()), "anim.gif")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported image format")
}

func TestNormalizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"photo.png", "photo.jpg"},
		{"photo.JPEG", "photo.jpg"},
		{"no-extension", "no-extension.jpg"},
		{"/tmp/uploads/crate.png", "crate.jpg"},
		{"", "photo.jpg"},
		{".hidden", "photo.jpg"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeFilename(tt.in), "input %q", tt.in)
	}
}
