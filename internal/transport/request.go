package transport

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/agentstation/comicmap/pkg/errors"
	"github.com/agentstation/comicmap/pkg/logging"
)

// maxErrorBody bounds how much of a failed response is kept in the error message.
const maxErrorBody = 512

// ReadBody reads and closes a response body. Non-2xx statuses become *errors.FetchError.
func ReadBody(resp *http.Response) ([]byte, error) {
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapIO("read", "response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, StatusError(resp, body)
	}
	return body, nil
}

// DecodeResponse decodes a JSON response into the target structure.
func DecodeResponse(resp *http.Response, target any) error {
	body, err := ReadBody(resp)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapParse("json", "response", err)
	}
	return nil
}

// StatusError builds a FetchError for an unsuccessful response.
func StatusError(resp *http.Response, body []byte) *errors.FetchError {
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody] + "..."
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	url := ""
	if resp.Request != nil && resp.Request.URL != nil {
		url = resp.Request.URL.String()
	}
	return errors.NewFetchError(url, resp.StatusCode, msg)
}
