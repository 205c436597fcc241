package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"time"

	"github.com/tidwall/gjson"

	httpx "resume-uploader/pkg/http"
)

const (
	defaultFileField       = "file"
	defaultValidateTimeout = 60 * time.Second
	defaultUploadTimeout   = 120 * time.Second

	// Responses past this size are cut off before parsing.
	maxBodyBytes = 1 << 20
)

// Result is the parsed outcome of one API call. OK mirrors the 2xx success
// range; the remaining fields are best-effort reads of the body and stay
// empty when the body is malformed or absent.
type Result struct {
	OK               bool
	Status           int
	Message          string
	CandidateObjID   string
	ApplicationObjID string
}

// Options configures a submission client. Zero values fall back to the
// remote API's documented defaults; validate gets a shorter timeout budget
// than upload because the document transfer is larger.
type Options struct {
	BaseURL         string
	AuthToken       string
	FileField       string
	ValidateTimeout time.Duration
	UploadTimeout   time.Duration
	Retry           httpx.RetryPolicy
}

// Client drives the two-phase validate→upload protocol against the remote
// applicant-tracking API.
type Client struct {
	baseURL   string
	authToken string
	fileField string
	validate  *httpx.Client
	upload    *httpx.Client
}

func NewClient(opts Options) *Client {
	if opts.FileField == "" {
		opts.FileField = defaultFileField
	}
	if opts.ValidateTimeout <= 0 {
		opts.ValidateTimeout = defaultValidateTimeout
	}
	if opts.UploadTimeout <= 0 {
		opts.UploadTimeout = defaultUploadTimeout
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = httpx.DefaultRetryPolicy()
	}
	return &Client{
		baseURL:   opts.BaseURL,
		authToken: opts.AuthToken,
		fileField: opts.FileField,
		validate:  httpx.NewClient(opts.ValidateTimeout, opts.Retry),
		upload:    httpx.NewClient(opts.UploadTimeout, opts.Retry),
	}
}

// ValidateEmail asks the remote whether the synthesized email may apply to
// the destination. A non-2xx status is not an error: it comes back as a
// Result with OK=false so the caller can apply the skip policy.
func (c *Client) ValidateEmail(ctx context.Context, email, jobObjID string) (Result, error) {
	payload, err := json.Marshal(map[string]string{
		"email":      email,
		"job_obj_id": jobObjID,
	})
	if err != nil {
		return Result{}, fmt.Errorf("marshal validate payload: %w", err)
	}

	resp, err := c.validate.Do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, c.baseURL+"/validate-email/", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		c.setHeaders(req)
		return req, nil
	})
	if err != nil {
		return Result{}, err
	}
	return readResult(resp), nil
}

// UploadResume posts the candidate's fields and the PDF binary to the
// upload endpoint for the destination. The multipart body is rebuilt from
// disk on every retry attempt.
func (c *Client) UploadResume(ctx context.Context, jobObjID, firstName, lastName, email, pdfPath string) (Result, error) {
	url := fmt.Sprintf("%s/upload-candidate-resume/%s", c.baseURL, jobObjID)

	resp, err := c.upload.Do(ctx, func() (*http.Request, error) {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)

		fields := [][2]string{
			{"first_name", firstName},
			{"last_name", lastName},
			{"email", email},
		}
		for _, kv := range fields {
			if err := w.WriteField(kv[0], kv[1]); err != nil {
				return nil, fmt.Errorf("write form field %s: %w", kv[0], err)
			}
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name=%q; filename=%q`, c.fileField, filepath.Base(pdfPath)))
		h.Set("Content-Type", "application/pdf")
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("create file part: %w", err)
		}
		f, err := os.Open(pdfPath)
		if err != nil {
			return nil, fmt.Errorf("open resume: %w", err)
		}
		_, err = io.Copy(part, f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read resume: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, err
		}

		req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(buf.Bytes()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", w.FormDataContentType())
		c.setHeaders(req)
		return req, nil
	})
	if err != nil {
		return Result{}, err
	}
	return readResult(resp), nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
}

func readResult(resp *http.Response) Result {
	defer resp.Body.Close()

	res := Result{
		Status: resp.StatusCode,
		OK:     resp.StatusCode >= 200 && resp.StatusCode < 300,
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return res
	}
	res.Message, res.CandidateObjID, res.ApplicationObjID = parseBody(body)
	return res
}

// parseBody tolerates non-JSON and malformed bodies: everything degrades to
// empty strings rather than an error. The human-readable message lives
// under whichever of the conventional keys the remote picked.
func parseBody(body []byte) (msg, candidate, application string) {
	js := gjson.ParseBytes(body)
	if !js.IsObject() {
		return "", "", ""
	}
	for _, key := range []string{"message", "error", "msg"} {
		if v := js.Get(key); v.Exists() && v.String() != "" {
			msg = v.String()
			break
		}
	}
	candidate = js.Get("data.candidate_obj_id").String()
	application = js.Get("data.application_obj_id").String()
	return msg, candidate, application
}
