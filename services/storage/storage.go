package storage

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// NewMediaService creates a Cloudinary-backed MediaService.
func NewMediaService(cld *cloudinary.Cloudinary, cloudName, apiSecret string) MediaService {
	return &CloudinaryMediaService{
		cld:       cld,
		cloudName: cloudName,
		apiSecret: apiSecret,
	}
}

// UploadImage uploads image bytes into the specified folder and returns the
// hosted identifier and URL.
func (s *CloudinaryMediaService) UploadImage(ctx context.Context, r io.Reader, destFolder string) (*Upload, error) {
	result, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:       destFolder,
		ResourceType: "image",
	})
	if err != nil {
		return nil, fmt.Errorf("CloudinaryMediaService: failed to upload image: %w", err)
	}
	if result.PublicID == "" {
		return nil, fmt.Errorf("CloudinaryMediaService: no public ID returned")
	}
	return &Upload{PublicID: result.PublicID, URL: result.SecureURL}, nil
}

// DeleteFile removes a hosted file given its public ID.
func (s *CloudinaryMediaService) DeleteFile(ctx context.Context, publicID string) error {
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("CloudinaryMediaService: failed to delete file: %w", err)
	}
	return nil
}

// GetDownloadURL constructs the public URL for a hosted image.
func (s *CloudinaryMediaService) GetDownloadURL(ctx context.Context, publicID string) (string, error) {
	img, err := s.cld.Image(publicID)
	if err != nil {
		return "", fmt.Errorf("CloudinaryMediaService: failed to get asset: %w", err)
	}
	url, err := img.String()
	if err != nil {
		return "", fmt.Errorf("CloudinaryMediaService: failed to get URL string: %w", err)
	}
	return url, nil
}

// GetSecureDownloadURL generates a signed, short-lived URL for an
// authenticated resource. The signature is SHA-1 over "expires_at" and
// "public_id" concatenated with the API secret.
func (s *CloudinaryMediaService) GetSecureDownloadURL(ctx context.Context, publicID string, expires time.Duration) (string, error) {
	expiresAt := time.Now().Add(expires).Unix()
	stringToSign := fmt.Sprintf("expires_at=%d&public_id=%s%s", expiresAt, publicID, s.apiSecret)
	signature := computeSHA1(stringToSign)
	secureURL := fmt.Sprintf("https://res.cloudinary.com/%s/image/authenticated/s--%s--/expires_%d/%s", s.cloudName, signature, expiresAt, publicID)
	return secureURL, nil
}

func computeSHA1(input string) string {
	h := sha1.New()
	h.Write([]byte(input))
	return hex.EncodeToString(h.Sum(nil))
}
