package storage

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
)

// UploadResult is what the storage provider hands back for a stored file.
// PublicID is the handle required to delete the file again.
type UploadResult struct {
	PublicID     string
	URL          string
	Size         int64
	ResourceType string
}

// CloudinaryClient talks to the Cloudinary upload REST API. All calls run
// through a circuit breaker so a storage outage cannot pile up requests.
type CloudinaryClient struct {
	cloudName string
	apiKey    string
	apiSecret string
	folder    string
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker
}

func NewCloudinaryClient(cloudName, apiKey, apiSecret, folder string, breaker *gobreaker.CircuitBreaker) *CloudinaryClient {
	return &CloudinaryClient{
		cloudName: cloudName,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		folder:    folder,
		client:    &http.Client{Timeout: 60 * time.Second},
		breaker:   breaker,
	}
}

// Configured reports whether all Cloudinary credentials are present.
// Uploads fail when they are not.
func (c *CloudinaryClient) Configured() bool {
	return c.cloudName != "" && c.apiKey != "" && c.apiSecret != ""
}

// resourceTypeFor picks the Cloudinary resource type from the mime type.
// Documents and archives go up as raw.
func resourceTypeFor(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "video/"):
		return "video"
	case strings.HasPrefix(mimeType, "image/"):
		return "image"
	}
	return "raw"
}

// sign builds the Cloudinary request signature: the parameters sorted by
// name, joined with &, with the API secret appended, hashed with SHA-1.
func (c *CloudinaryClient) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(params[k])
	}
	sb.WriteString(c.apiSecret)

	sum := sha1.Sum([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// Upload stores the file bytes and returns the storage handle and URL.
func (c *CloudinaryClient) Upload(ctx context.Context, data []byte, originalName, mimeType string) (*UploadResult, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("cloudinary is not configured")
	}

	resourceType := resourceTypeFor(mimeType)
	publicID := fmt.Sprintf("task-%d-%s", time.Now().UnixMilli(), uuid.New().String()[:8])
	timestamp := fmt.Sprintf("%d", time.Now().Unix())

	signed := map[string]string{
		"folder":    c.folder,
		"public_id": publicID,
		"timestamp": timestamp,
	}
	signature := c.sign(signed)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", originalName)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload request: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to build upload request: %v", err)
	}
	for k, v := range signed {
		writer.WriteField(k, v)
	}
	writer.WriteField("api_key", c.apiKey)
	writer.WriteField("signature", signature)
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload request: %v", err)
	}

	endpoint := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/%s/upload", c.cloudName, resourceType)

	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", writer.FormDataContentType())

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		payload, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("cloudinary upload failed with status %d: %s", resp.StatusCode, payload)
		}

		var uploaded struct {
			PublicID  string `json:"public_id"`
			SecureURL string `json:"secure_url"`
			Bytes     int64  `json:"bytes"`
		}
		if err := json.Unmarshal(payload, &uploaded); err != nil {
			return nil, fmt.Errorf("failed to decode cloudinary response: %v", err)
		}

		return &UploadResult{
			PublicID:     uploaded.PublicID,
			URL:          uploaded.SecureURL,
			Size:         uploaded.Bytes,
			ResourceType: resourceType,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*UploadResult), nil
}

// Delete removes a stored file by its public ID. Cloudinary reports "not
// found" as a normal result, which counts as deleted here.
func (c *CloudinaryClient) Delete(ctx context.Context, publicID string) error {
	if !c.Configured() {
		return fmt.Errorf("cloudinary is not configured")
	}

	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	signed := map[string]string{
		"public_id": publicID,
		"timestamp": timestamp,
	}
	signature := c.sign(signed)

	form := url.Values{}
	form.Set("public_id", publicID)
	form.Set("timestamp", timestamp)
	form.Set("api_key", c.apiKey)
	form.Set("signature", signature)

	// The destroy endpoint wants the resource type the asset was stored
	// under; raw and video assets are retried when image says not found.
	_, err := c.breaker.Execute(func() (interface{}, error) {
		for _, resourceType := range []string{"image", "raw", "video"} {
			endpoint := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/%s/destroy", c.cloudName, resourceType)

			req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
			if err != nil {
				return nil, err
			}
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			resp, err := c.client.Do(req)
			if err != nil {
				return nil, err
			}
			payload, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return nil, err
			}
			if resp.StatusCode != http.StatusOK {
				return nil, fmt.Errorf("cloudinary destroy failed with status %d: %s", resp.StatusCode, payload)
			}

			var destroyed struct {
				Result string `json:"result"`
			}
			if err := json.Unmarshal(payload, &destroyed); err != nil {
				return nil, fmt.Errorf("failed to decode cloudinary response: %v", err)
			}
			if destroyed.Result == "ok" || destroyed.Result == "not found" {
				if destroyed.Result == "ok" {
					return nil, nil
				}
				continue
			}
			return nil, fmt.Errorf("cloudinary destroy returned %q for %s", destroyed.Result, publicID)
		}
		// Treat a handle unknown under every resource type as already gone.
		return nil, nil
	})
	return err
}
