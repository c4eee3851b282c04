package media

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileHeader(t *testing.T, filename, contentType string, size int) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("x"), size))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))
	return req.MultipartForm.File["image"][0]
}

func TestValidateImage(t *testing.T) {
	_, err := ValidateImage(fileHeader(t, "a.PNG", "image/png", 10))
	assert.NoError(t, err)

	_, err = ValidateImage(fileHeader(t, "a.exe", "application/octet-stream", 10))
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, err = ValidateImage(fileHeader(t, "a.png", "text/plain", 10))
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, err = ValidateImage(fileHeader(t, "noext", "image/png", 10))
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestLocalSaveAndDelete(t *testing.T) {
	root := t.TempDir()
	local := NewLocal(root)
	ctx := context.Background()

	stored, err := local.Save(ctx, fileHeader(t, "photo.jpg", "image/jpeg", 32))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.URL, "/uploads/products/image-"))
	assert.True(t, strings.HasSuffix(stored.Key, ".jpg"))

	onDisk := filepath.Join(root, filepath.FromSlash(stored.Key))
	_, err = os.Stat(onDisk)
	require.NoError(t, err)

	require.NoError(t, local.Delete(ctx, stored.Key))
	_, err = os.Stat(onDisk)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, local.Delete(ctx, stored.Key), "deleting twice is not an error")
	assert.NoError(t, local.Delete(ctx, ""))
}

func TestLocalDeleteRefusesEscapes(t *testing.T) {
	local := NewLocal(t.TempDir())
	ctx := context.Background()

	assert.Error(t, local.Delete(ctx, "../etc/passwd"))
	assert.Error(t, local.Delete(ctx, "products/../../secret"))
	assert.Error(t, local.Delete(ctx, "other/file.png"))
}
