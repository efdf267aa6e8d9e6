package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	apperrors "pulldata/internal/errors"
)

// Download saves the item data to dir and returns the file path. The file is
// named after the item name, or its id when the item has no name, with a
// .zip extension.
func (c *Client) Download(ctx context.Context, item *Item, dir string) (string, error) {
	if err := c.requireToken(); err != nil {
		return "", err
	}

	req, err := c.newGet(ctx, c.endpoint("content/items/"+url.PathEscape(item.ID)+"/data"), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperrors.NewNetworkError("download request failed", err).WithContext("item_id", item.ID)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperrors.NewNetworkError(fmt.Sprintf("download failed with status: %d", resp.StatusCode), nil).
			WithContext("item_id", item.ID)
	}

	// Errors come back as JSON with status 200
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		var apiErr apiError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.err() != nil {
			return "", apperrors.NewPortalError("download rejected", apiErr.err()).WithContext("item_id", item.ID)
		}
		return "", apperrors.NewPortalError("download returned JSON instead of a package", nil).
			WithContext("item_id", item.ID)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", apperrors.NewStorageError("failed to create download folder", err)
	}

	path := filepath.Join(dir, downloadName(item))
	out, err := os.Create(path)
	if err != nil {
		return "", apperrors.NewStorageError("failed to create download file", err)
	}

	n, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", apperrors.NewNetworkError("failed to save download", err).WithContext("path", path)
	}

	c.logger.InfoContext(ctx, "Survey package downloaded",
		slog.String("path", path),
		slog.Int64("size_bytes", n))
	return path, nil
}

// UpdateData replaces the data of item with the file at zipPath
func (c *Client) UpdateData(ctx context.Context, item *Item, zipPath string) error {
	if err := c.requireToken(); err != nil {
		return err
	}
	if item.Owner == "" {
		return apperrors.NewPortalError("item has no owner", nil).WithContext("item_id", item.ID)
	}

	body, contentType, err := multipartFile(zipPath, url.Values{
		"f":     {"json"},
		"token": {c.token},
	})
	if err != nil {
		return apperrors.NewStorageError("failed to read archive", err).WithContext("path", zipPath)
	}

	endpoint := c.endpoint(fmt.Sprintf("content/users/%s/items/%s/update",
		url.PathEscape(item.Owner), url.PathEscape(item.ID)))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return apperrors.NewConfigError("invalid portal url", err)
	}
	req.Header.Set("Content-Type", contentType)

	var resp struct {
		apiError
		Success bool   `json:"success"`
		ID      string `json:"id"`
	}
	if err := c.do(req, &resp); err != nil {
		return apperrors.NewNetworkError("update request failed", err).WithContext("item_id", item.ID)
	}
	if err := resp.err(); err != nil {
		return apperrors.NewPortalError("update rejected", err).WithContext("item_id", item.ID)
	}
	if !resp.Success {
		return apperrors.NewPortalError("update did not report success", nil).WithContext("item_id", item.ID)
	}

	c.logger.InfoContext(ctx, "Survey item updated",
		slog.String("item_id", item.ID),
		slog.String("archive", filepath.Base(zipPath)))
	return nil
}

// multipartFile builds a form with fields and the file under "file"
func multipartFile(path string, fields url.Values) (*bytes.Buffer, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, values := range fields {
		for _, v := range values {
			if err := mw.WriteField(key, v); err != nil {
				return nil, "", err
			}
		}
	}

	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

func downloadName(item *Item) string {
	name := strings.TrimSuffix(filepath.Base(item.Name), filepath.Ext(item.Name))
	if item.Name == "" || name == "" || name == "." || name == string(filepath.Separator) {
		name = item.ID
	}
	return name + ".zip"
}
