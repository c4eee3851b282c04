package media

import (
	"context"
	"mime/multipart"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"
)

// Cloudinary keeps images in a Cloudinary folder; the public id is the delete key.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinary(cloudURL, folder string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromURL(cloudURL)
	if err != nil {
		return nil, err
	}
	return &Cloudinary{cld: cld, folder: folder}, nil
}

func (c *Cloudinary) Save(ctx context.Context, file *multipart.FileHeader) (Stored, error) {
	extension, err := ValidateImage(file)
	if err != nil {
		return Stored{}, err
	}

	body, err := file.Open()
	if err != nil {
		return Stored{}, err
	}
	defer body.Close()

	publicID := strings.TrimSuffix(objectName(extension), extension)
	result, err := c.cld.Upload.Upload(ctx, body, uploader.UploadParams{
		Folder:   c.folder,
		PublicID: publicID,
	})
	if err != nil {
		zap.L().Error("cloudinary upload failed", zap.Error(err))
		return Stored{}, err
	}
	return Stored{URL: result.SecureURL, Key: result.PublicID}, nil
}

func (c *Cloudinary) Delete(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	_, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: key})
	return err
}
