package http

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lenza-tech/matcher-backend/pkg/e"
)

// pngHeader — минимальный валидный префикс PNG для http.DetectContentType.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func multipartFiles(t *testing.T, field, filename string, content []byte) []*multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r := httptest.NewRequest("POST", "/api/v1/search", &body)
	r.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, r.ParseMultipartForm(1<<20))

	return r.MultipartForm.File[field]
}

func TestParseImages_RejectsNonImageUpload(t *testing.T) {
	files := multipartFiles(t, "image", "notes.txt", []byte("plain text, not a picture"))

	_, err := parseImages(files)

	require.Error(t, err)
	assert.ErrorIs(t, err, e.ErrUnsupportedMediaType)
}

func TestParseImages_AcceptsPNGUpload(t *testing.T) {
	files := multipartFiles(t, "image", "query.png", pngHeader)

	images, err := parseImages(files)

	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "image/png", images[0].MimeType)
	assert.Equal(t, "query.png", images[0].Name)
}

func TestParseImages_Empty(t *testing.T) {
	_, err := parseImages(nil)

	assert.ErrorIs(t, err, e.ErrNoImages)
}
