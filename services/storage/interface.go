package storage

import (
	"context"
	"io"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
)

// Upload is the result of hosting a media file: the permanent identifier and
// the public URL recorded on chat messages.
type Upload struct {
	PublicID string `json:"publicId"`
	URL      string `json:"url"`
}

// MediaService hosts patient-uploaded media (scan photos, reports) and hands
// back URLs safe to embed in the transcript.
type MediaService interface {
	UploadImage(ctx context.Context, r io.Reader, destFolder string) (*Upload, error)
	DeleteFile(ctx context.Context, publicID string) error
	GetDownloadURL(ctx context.Context, publicID string) (string, error)
	GetSecureDownloadURL(ctx context.Context, publicID string, expires time.Duration) (string, error)
}

// CloudinaryMediaService implements MediaService on Cloudinary.
type CloudinaryMediaService struct {
	cld       *cloudinary.Cloudinary
	cloudName string
	apiSecret string
}
