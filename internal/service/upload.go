package service

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const imgbbEndpoint = "https://api.imgbb.com/1/upload"

// UploadResult carries the hosted image locations returned by ImgBB.
type UploadResult struct {
	URL       string `json:"url"`
	ThumbURL  string `json:"thumbUrl,omitempty"`
	DeleteURL string `json:"deleteUrl,omitempty"`
}

type Uploader interface {
	Upload(ctx context.Context, base64Image string) (*UploadResult, error)
}

type imgbbUploader struct {
	apiKey string
	client *http.Client
	log    *zap.Logger
}

func NewImgBBUploader(apiKey string, log *zap.Logger) Uploader {
	return &imgbbUploader{
		apiKey: apiKey,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

type imgbbResponse struct {
	Success bool `json:"success"`
	Data    struct {
		URL   string `json:"url"`
		Thumb struct {
			URL string `json:"url"`
		} `json:"thumb"`
		DeleteURL string `json:"delete_url"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (u *imgbbUploader) Upload(ctx context.Context, base64Image string) (*UploadResult, error) {
	if base64Image == "" {
		return nil, E(KindValidation, "No image provided")
	}
	if u.apiKey == "" {
		return nil, E(KindInvalidState, "Image hosting is not configured")
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("image", base64Image); err != nil {
		return nil, Wrap("Failed to build upload request", err)
	}
	if err := form.Close(); err != nil {
		return nil, Wrap("Failed to build upload request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, imgbbEndpoint+"?key="+u.apiKey, &body)
	if err != nil {
		return nil, Wrap("Failed to build upload request", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, Wrap("Image upload failed", err)
	}
	defer resp.Body.Close()

	var parsed imgbbResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, Wrap("Image host returned an unreadable response", err)
	}
	if !parsed.Success {
		u.log.Warn("image upload rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("message", parsed.Error.Message))
		return nil, Ef(KindUnexpected, "Image upload rejected: %s", parsed.Error.Message)
	}
	return &UploadResult{
		URL:       parsed.Data.URL,
		ThumbURL:  parsed.Data.Thumb.URL,
		DeleteURL: parsed.Data.DeleteURL,
	}, nil
}
