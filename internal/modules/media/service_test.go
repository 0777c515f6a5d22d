package media

import (
	"bytes"
	"context"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := imaging.New(width, height, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

func TestUploadImageRejectsBadExtension(t *testing.T) {
	svc := NewService(nil, nil, zap.NewNop())

	// The extension check runs before any storage or database access.
	_, err := svc.UploadImage(context.Background(), "chart.pdf", []byte("%PDF-"))
	assert.ErrorIs(t, err, ErrBadExtension)

	_, err = svc.UploadImage(context.Background(), "noext", nil)
	assert.ErrorIs(t, err, ErrBadExtension)
}

func TestResizeKeepsSmallImages(t *testing.T) {
	svc := NewService(nil, nil, zap.NewNop())

	data := encodePNG(t, 640, 480)
	out := svc.resize(data, ".png")
	assert.Equal(t, data, out)
}

func TestResizeBoundsLargeImages(t *testing.T) {
	svc := NewService(nil, nil, zap.NewNop())

	data := encodePNG(t, 4000, 2000)
	out := svc.resize(data, ".png")

	img, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 1024, img.Bounds().Dx())
	assert.Equal(t, 512, img.Bounds().Dy())
}

func TestResizePassesThroughUndecodableData(t *testing.T) {
	svc := NewService(nil, nil, zap.NewNop())

	data := []byte("not an image")
	assert.Equal(t, data, svc.resize(data, ".jpg"))
}
