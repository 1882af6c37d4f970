package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dsimon1405/Library/apperr"
	"github.com/dsimon1405/Library/model"
	"github.com/dsimon1405/Library/util/httpx"
)

type httpRepo struct {
	baseURL string
	client  *http.Client
}

// NewHTTP takes the lib-service base URL from config; there is no hidden
// global service address.
func NewHTTP(baseURL string) Repo {
	return &httpRepo{baseURL: strings.TrimRight(baseURL, "/"), client: httpx.Client()}
}

func (r *httpRepo) AdjustQuantity(ctx context.Context, bookID int64, delta int) (*model.Book, error) {
	query := url.Values{"quantityChange": {strconv.Itoa(delta)}}
	book := &model.Book{}
	if err := r.do(ctx, http.MethodPut, fmt.Sprintf("/items/%d", bookID), query, nil, book); err != nil {
		return nil, err
	}
	return book, nil
}

// do performs one request against lib-service. out == nil means no body is
// expected; otherwise a 2xx with an empty body is an error rather than
// silently valid data.
func (r *httpRepo) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return apperr.Newf(apperr.CodeRemoteService, "inventory: encode request: %v", err)
		}
		rd = bytes.NewReader(b)
	}

	u := r.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return apperr.Newf(apperr.CodeRemoteService, "inventory: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return apperr.Newf(apperr.CodeRemoteService, "inventory: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Newf(apperr.CodeRemoteService, "inventory: read response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return remoteError(resp.Status, raw)
	}
	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return apperr.New(apperr.CodeEmptyRemoteResponse, "inventory: response body is empty")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperr.Newf(apperr.CodeRemoteService, "inventory: decode response: %v", err)
	}
	return nil
}

// remoteError surfaces the "errors" field of a structured error body when
// lib-service sends one, falling back to the HTTP status text.
func remoteError(status string, raw []byte) error {
	var body struct {
		Errors json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && len(body.Errors) > 0 && string(body.Errors) != "null" {
		var msg string
		if err := json.Unmarshal(body.Errors, &msg); err == nil {
			return apperr.New(apperr.CodeRemoteService, msg)
		}
		return apperr.New(apperr.CodeRemoteService, string(body.Errors))
	}
	return apperr.New(apperr.CodeRemoteService, status)
}
