package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

// File is one part of a multipart upload.
type File struct {
	Field       string
	Name        string
	ContentType string
	Body        io.Reader
}

// Upload posts a multipart form once; uploads are never retried.
func (c *Client) Upload(ctx context.Context, endpoint, token string, fields map[string]string, files []File, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return &Error{Message: "encode form", Err: err}
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(f.Field), escapeQuotes(f.Name)))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := mw.CreatePart(h)
		if err != nil {
			return &Error{Message: "encode form", Err: err}
		}
		if _, err := io.Copy(part, f.Body); err != nil {
			return &Error{Message: "read upload", Err: err}
		}
	}
	if err := mw.Close(); err != nil {
		return &Error{Message: "encode form", Err: err}
	}

	cl := call{token: token, timeout: c.timeout, contentType: mw.FormDataContentType()}
	raw, err := c.send(ctx, http.MethodPost, endpoint, buf.Bytes(), cl)
	if err != nil {
		return normalize(err)
	}
	return decodeInto(raw, out)
}

func escapeQuotes(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// readAllFile buffers f so the same upload can be sent more than once.
func readAllFile(f File) (func() io.Reader, error) {
	if f.Body == nil {
		return nil, &Error{Message: "empty upload"}
	}
	data, err := io.ReadAll(f.Body)
	if err != nil {
		return nil, &Error{Message: "read upload", Err: err}
	}
	return func() io.Reader { return bytes.NewReader(data) }, nil
}
