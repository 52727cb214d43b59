package redcap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/usestring/redcap-go/pkg/contenttype"
)

// FileUpload is the document attached to a file import. The wire field name
// is fixed by the API, so only the display name and the content vary.
type FileUpload struct {
	Name   string
	Reader io.Reader
}

// execute validates the payload, performs the POST, and decodes the body
// according to the operation's descriptor. The returned value is []byte for
// raw operations, []map[string]any or map[string]any for JSON, and string
// for CSV and XML.
func (p *Project) execute(ctx context.Context, op Operation, pl *Payload, file *FileUpload) (any, http.Header, error) {
	if err := op.validate(pl); err != nil {
		return nil, nil, err
	}

	start := time.Now()

	req, err := p.newRequest(ctx, pl, file)
	if err != nil {
		return nil, nil, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		slog.Debug("API request failed",
			slog.String("operation", op.String()),
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil, nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading response body: %w", err)
	}

	if !op.desc().rawBytes {
		body, err = decodeCharset(body, resp.Header.Get("Content-Type"))
		if err != nil {
			return nil, nil, err
		}
	}

	result, err := decodeBody(op, requestFormat(pl), body, resp.StatusCode)
	if err != nil {
		slog.Debug("API request rejected",
			slog.String("operation", op.String()),
			slog.Int("status", resp.StatusCode),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil, resp.Header, err
	}

	slog.Debug("API request completed",
		slog.String("operation", op.String()),
		slog.Int("status", resp.StatusCode),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return result, resp.Header, nil
}

// newRequest builds the POST: plain form encoding normally, multipart when a
// file rides along.
func (p *Project) newRequest(ctx context.Context, pl *Payload, file *FileUpload) (*http.Request, error) {
	var body io.Reader
	var contentType string

	if file != nil {
		buf := &bytes.Buffer{}
		w := multipart.NewWriter(buf)
		for key, vals := range pl.Encode() {
			for _, v := range vals {
				if err := w.WriteField(key, v); err != nil {
					return nil, fmt.Errorf("encoding form field %s: %w", key, err)
				}
			}
		}
		part, err := w.CreateFormFile("file", file.Name)
		if err != nil {
			return nil, fmt.Errorf("encoding file part: %w", err)
		}
		if _, err := io.Copy(part, file.Reader); err != nil {
			return nil, fmt.Errorf("copying file content: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("finalizing multipart body: %w", err)
		}
		body = buf
		contentType = w.FormDataContentType()
	} else {
		body = strings.NewReader(pl.Encode().Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", userAgent)
	return req, nil
}

// requestFormat returns the format that governs decoding. returnFormat wins
// when both are present: import operations send data in one format but ask
// for the response in another.
func requestFormat(pl *Payload) Format {
	if rf := pl.Get(keyReturnFormat); rf != "" {
		return Format(rf)
	}
	if f := pl.Get(keyFormat); f != "" {
		return Format(f)
	}
	return FormatJSON
}

// decodeBody turns the body into the operation's result value.
func decodeBody(op Operation, format Format, body []byte, status int) (any, error) {
	d := op.desc()

	if d.rawBytes {
		if status >= 400 {
			return nil, &ServiceError{StatusCode: status, Message: strings.TrimSpace(string(body))}
		}
		return body, nil
	}

	switch format.wire() {
	case FormatJSON:
		return decodeJSON(body, status, d.allowEmpty)
	case FormatCSV, FormatXML:
		if d.allowEmpty && status >= 400 {
			return nil, &ServiceError{StatusCode: status, Message: strings.TrimSpace(string(body))}
		}
		return string(body), nil
	}
	return nil, &UsageError{Message: fmt.Sprintf("unsupported format %q", format)}
}

// decodeJSON parses the body leniently. The service emits bare control
// characters inside string values, which the strict parser rejects, so a
// failed parse is retried once with those characters stripped.
func decodeJSON(body []byte, status int, allowEmpty bool) (any, error) {
	var decoded any
	err := json.Unmarshal(body, &decoded)
	if err != nil {
		err = json.Unmarshal(sanitizeControl(body), &decoded)
	}
	if err != nil {
		if allowEmpty && status < 400 {
			return map[string]any{}, nil
		}
		if status >= 400 {
			return nil, &ServiceError{StatusCode: status, Message: strings.TrimSpace(string(body))}
		}
		return nil, &DecodeError{Format: string(FormatJSON), Cause: err}
	}
	if msg, ok := embeddedError(decoded); ok {
		return nil, &ServiceError{StatusCode: status, Message: msg, Content: decoded}
	}
	return decoded, nil
}

// embeddedError detects the service's in-body error object. Semantic
// failures arrive under an "error" key, often with a success status.
func embeddedError(decoded any) (string, bool) {
	obj, ok := decoded.(map[string]any)
	if !ok {
		return "", false
	}
	msg, ok := obj["error"]
	if !ok {
		return "", false
	}
	if s, ok := msg.(string); ok {
		return s, true
	}
	return fmt.Sprintf("%v", msg), true
}

// sanitizeControl drops control bytes below 0x20 except tab, newline, and
// carriage return.
func sanitizeControl(body []byte) []byte {
	out := make([]byte, 0, len(body))
	for _, b := range body {
		if b < 0x20 && b != '\t' && b != '\n' && b != '\r' {
			continue
		}
		out = append(out, b)
	}
	return out
}

// decodeCharset transcodes the body to UTF-8 when the response declares a
// different charset. Unknown charsets pass the body through unchanged.
func decodeCharset(body []byte, contentType string) ([]byte, error) {
	cs := contenttype.Charset(contentType)
	if cs == "" || cs == "utf-8" {
		return body, nil
	}
	enc, err := htmlindex.Get(cs)
	if err != nil {
		return body, nil
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), body)
	if err != nil {
		return nil, fmt.Errorf("transcoding %s response body: %w", cs, err)
	}
	return out, nil
}
