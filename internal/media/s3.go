package media

import (
	"context"
	"mime/multipart"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"go.uber.org/zap"
)

type S3Config struct {
	Region string
	Bucket string
	// Endpoint targets an S3-compatible service (MinIO, R2, Spaces); empty means AWS.
	Endpoint string
	// PublicURL prefixes object keys in product URLs; empty uses the upload location.
	PublicURL string
}

// S3 uploads public-read objects under uploads/ in one bucket.
type S3 struct {
	cfg      S3Config
	client   *s3.S3
	uploader *s3manager.Uploader
}

func NewS3(cfg S3Config) (*S3, error) {
	awsCfg := aws.NewConfig().WithRegion(cfg.Region)
	if cfg.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint).WithS3ForcePathStyle(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, err
	}

	client := s3.New(sess)
	return &S3{
		cfg:      cfg,
		client:   client,
		uploader: s3manager.NewUploaderWithClient(client),
	}, nil
}

func (s *S3) Save(ctx context.Context, file *multipart.FileHeader) (Stored, error) {
	extension, err := ValidateImage(file)
	if err != nil {
		return Stored{}, err
	}

	body, err := file.Open()
	if err != nil {
		return Stored{}, err
	}
	defer body.Close()

	key := "uploads/" + objectName(extension)
	result, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ACL:         aws.String(s3.ObjectCannedACLPublicRead),
		ContentType: aws.String(contentType(file, extension)),
	})
	if err != nil {
		zap.L().Error("s3 upload failed", zap.String("bucket", s.cfg.Bucket), zap.String("key", key), zap.Error(err))
		return Stored{}, err
	}

	url := result.Location
	if s.cfg.PublicURL != "" {
		url = strings.TrimRight(s.cfg.PublicURL, "/") + "/" + key
	}
	return Stored{URL: url, Key: key}, nil
}

func (s *S3) Delete(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	return err
}
