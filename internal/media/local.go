package media

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Local writes images to <root>/products and serves them from /uploads/products/.
type Local struct {
	root string
}

func NewLocal(root string) *Local {
	return &Local{root: root}
}

func (l *Local) Root() string { return l.root }

func (l *Local) Save(_ context.Context, file *multipart.FileHeader) (Stored, error) {
	extension, err := ValidateImage(file)
	if err != nil {
		return Stored{}, err
	}

	filename := objectName(extension)
	dir := filepath.Join(l.root, "products")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		zap.L().Error("upload: failed to create directory", zap.String("dir", dir), zap.Error(err))
		return Stored{}, err
	}

	fullPath := filepath.Join(dir, filename)
	zap.L().Debug("upload: saving image",
		zap.String("filename", filename),
		zap.String("ext", extension),
		zap.String("fullPath", fullPath),
	)

	out, err := os.Create(fullPath)
	if err != nil {
		zap.L().Error("upload: failed to create file", zap.String("path", fullPath), zap.Error(err))
		return Stored{}, err
	}
	defer out.Close()

	in, err := file.Open()
	if err != nil {
		return Stored{}, err
	}
	defer in.Close()

	if _, err := io.Copy(out, in); err != nil {
		zap.L().Error("upload: failed to save file", zap.String("path", fullPath), zap.Error(err))
		return Stored{}, err
	}

	key := path.Join("products", filename)
	return Stored{URL: "/uploads/" + key, Key: key}, nil
}

// Delete removes a previously saved image. Keys escaping the uploads root are refused.
func (l *Local) Delete(_ context.Context, key string) error {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return nil
	}

	cleanRel := strings.TrimPrefix(path.Clean("/"+strings.TrimPrefix(trimmed, "/")), "/")
	if !strings.HasPrefix(cleanRel, "products/") {
		return fmt.Errorf("refusing to delete non-upload path: %s", key)
	}

	cleanBase := filepath.Clean(l.root)
	target := filepath.Clean(filepath.Join(cleanBase, filepath.FromSlash(cleanRel)))
	if !strings.HasPrefix(target, cleanBase+string(os.PathSeparator)) {
		return fmt.Errorf("refusing to delete path outside upload root: %s", key)
	}

	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
