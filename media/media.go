// Package media forwards reel videos to an external host and keeps only the
// returned URL.
package media

import (
	"context"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	reelFolder        = "aura/reels"
	videoResourceType = "video"
)

// Upload is what the host returned for a stored video.
type Upload struct {
	URL      string
	PublicID string
}

type VideoHost interface {
	UploadVideo(ctx context.Context, r io.Reader, ownerID string) (Upload, error)
	DeleteVideo(ctx context.Context, publicID string) error
}

// CloudinaryHost stores videos on Cloudinary.
type CloudinaryHost struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryHost(cloudinaryURL string) (*CloudinaryHost, error) {
	if cloudinaryURL == "" {
		return nil, errors.New("CLOUDINARY_URL is not set")
	}
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, errors.Wrap(err, "cloudinary configuration")
	}
	return &CloudinaryHost{cld: cld}, nil
}

func (h *CloudinaryHost) UploadVideo(ctx context.Context, r io.Reader, ownerID string) (Upload, error) {
	uploadParams := uploader.UploadParams{
		Folder:       reelFolder,
		PublicID:     ownerID + "_" + uuid.NewString(),
		ResourceType: videoResourceType,
	}

	result, err := h.cld.Upload.Upload(ctx, r, uploadParams)
	if err != nil {
		return Upload{}, errors.Wrap(err, "upload video")
	}
	if result.Error.Message != "" {
		return Upload{}, errors.Errorf("upload video: %s", result.Error.Message)
	}
	return Upload{URL: result.SecureURL, PublicID: result.PublicID}, nil
}

func (h *CloudinaryHost) DeleteVideo(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	result, err := h.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: videoResourceType,
	})
	if err != nil {
		return errors.Wrap(err, "destroy video")
	}
	if result.Error.Message != "" {
		return errors.Errorf("destroy video: %s", result.Error.Message)
	}
	return nil
}

// Unconfigured is used when no host is configured. Uploads fail, deletes are
// no-ops.
type Unconfigured struct{}

var ErrNotConfigured = errors.New("video host is not configured")

func (Unconfigured) UploadVideo(context.Context, io.Reader, string) (Upload, error) {
	return Upload{}, ErrNotConfigured
}

func (Unconfigured) DeleteVideo(context.Context, string) error { return nil }
