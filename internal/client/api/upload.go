package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

// UploadMediaParams describes one media upload: the resolved file bytes plus
// the contextual naming fields the service stores alongside the asset.
type UploadMediaParams struct {
	Data     []byte
	FileName string
	MimeType string

	ProjectName   string
	ElementName   string
	HierarchyPath string
}

// UploadMediaResult is the server's answer to a media upload.
type UploadMediaResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	AssetID     string `json:"assetId"`
	Description string `json:"description"`
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// UploadMedia uploads one file as multipart/form-data and returns the
// server-assigned asset identifier. Cancelling ctx aborts the in-flight
// transfer.
func (c *Client) UploadMedia(ctx context.Context, p UploadMediaParams) (*UploadMediaResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(p.FileName)))
	header.Set("Content-Type", p.MimeType)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(p.Data); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}

	fields := map[string]string{
		"projectName": p.ProjectName,
		"elementName": p.ElementName,
	}
	if p.HierarchyPath != "" {
		fields["hierarchyPath"] = p.HierarchyPath
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("failed to build upload form: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/mobile/media/upload", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out UploadMediaResult
	if err := c.do(req, &out, true); err != nil {
		return nil, fmt.Errorf("failed to upload media %s: %w", p.FileName, err)
	}
	if !out.Success {
		return nil, fmt.Errorf("media upload rejected: %s", out.Message)
	}
	return &out, nil
}
