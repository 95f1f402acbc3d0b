package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"

	"github.com/gudangapp/gudang/internal/model"
)

// uploadResponse covers the field names different server versions use for
// the stored file's URL.
type uploadResponse struct {
	PhotoURL string `json:"photo_url"`
	URL      string `json:"url"`
	FileURL  string `json:"file_url"`
	Path     string `json:"path"`
}

func (r uploadResponse) location() string {
	switch {
	case r.URL != "":
		return r.URL
	case r.FileURL != "":
		return r.FileURL
	case r.PhotoURL != "":
		return r.PhotoURL
	default:
		return r.Path
	}
}

// UploadFile stores a standalone file and returns its URL. Used for images
// selected before their owning item exists.
func (c *Client) UploadFile(ctx context.Context, filename string, data []byte) (string, error) {
	var raw json.RawMessage
	if err := c.sendMultipart(ctx, http.MethodPost, "/upload", filename, data, nil, &raw); err != nil {
		return "", err
	}

	// Some server versions answer with a bare string.
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s, nil
	}
	var out uploadResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &Error{Kind: KindServer, Message: "upload response had no file URL"}
	}
	if out.location() == "" {
		return "", &Error{Kind: KindServer, Message: "upload response had no file URL"}
	}
	return out.location(), nil
}

// UploadItemImage attaches an image to an existing item and returns the
// stored photo URL from the refreshed item record.
func (c *Client) UploadItemImage(ctx context.Context, itemID, filename string, data []byte) (string, error) {
	var out model.Item
	path := "/upload/" + url.PathEscape(itemID) + "/upload-image"
	if err := c.sendMultipart(ctx, http.MethodPatch, path, filename, data, nil, &out); err != nil {
		return "", err
	}
	if out.PhotoURL == "" {
		return "", &Error{Kind: KindServer, Message: "item image upload returned no photo URL"}
	}
	return out.PhotoURL, nil
}

// UpdateItemWithImage patches an item's fields and replaces its image in a
// single request. The patch rides along as a JSON form field.
func (c *Client) UpdateItemWithImage(ctx context.Context, itemID, filename string, data []byte, patch model.UpdateItem) (*model.Item, error) {
	fields := map[string]string{}
	itemData, err := json.Marshal(patch)
	if err != nil {
		return nil, &Error{Kind: KindValidation, Message: "encoding item patch: " + err.Error()}
	}
	if string(itemData) != "{}" {
		fields["itemData"] = string(itemData)
	}

	var out model.Item
	path := "/upload/" + url.PathEscape(itemID) + "/update-with-image"
	if err := c.sendMultipart(ctx, http.MethodPatch, path, filename, data, fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// sendMultipart posts a file plus optional extra form fields. The file's
// content type is derived from its extension, falling back to sniffing.
func (c *Client) sendMultipart(ctx context.Context, method, path, filename string, data []byte, fields map[string]string, out any) error {
	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return &Error{Kind: KindValidation, Message: "building multipart body: " + err.Error()}
	}
	if _, err := part.Write(data); err != nil {
		return &Error{Kind: KindValidation, Message: "building multipart body: " + err.Error()}
	}

	writer.WriteField("contentType", contentType)
	for name, value := range fields {
		writer.WriteField(name, value)
	}
	if err := writer.Close(); err != nil {
		return &Error{Kind: KindValidation, Message: "building multipart body: " + err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, buf)
	if err != nil {
		return &Error{Kind: KindNetwork, Message: err.Error()}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.send(req, out)
}
