package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// Uploader PUTs bytes to presigned object-store URLs.
type Uploader struct {
	http *resty.Client
}

func NewUploader() *Uploader {
	return &Uploader{http: resty.New()}
}

// Put uploads body to url with the given content type.
func (u *Uploader) Put(ctx context.Context, url, contentType string, body []byte) error {
	resp, err := u.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetBody(body).
		Put(url)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("upload failed: %s: %s", resp.Status(), resp.String())
	}
	return nil
}
