package httputils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// PostJSON posts body as JSON and decodes the response into resp when
// non-nil. Any non-200 status is an error.
func PostJSON(url string, body interface{}, resp interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}
	r, err := http.Post(url, "application/json", bytes.NewReader(jsonBody))
	if err != nil {
		return err
	}
	defer r.Body.Close()
	if r.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %d", r.StatusCode)
	}
	if resp != nil {
		return json.NewDecoder(r.Body).Decode(resp)
	}
	return nil
}
