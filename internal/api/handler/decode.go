package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

const msgBadBody = "Cuerpo de la solicitud inválido"

// maxBodyBytes bounds the JSON payload of every auth endpoint.
const maxBodyBytes = 64 << 10

var errBadBody = echo.NewHTTPError(http.StatusBadRequest, msgBadBody)

// decodeJSON strictly decodes the request body into dst, a pointer to a
// struct whose fields all carry json tags without omitempty. Unknown fields,
// keys that only match a field case-insensitively, wrong types and trailing
// data are rejected. An empty body leaves dst zeroed so the service reports
// the missing fields.
func decodeJSON(c echo.Context, dst any) error {
	data, err := io.ReadAll(http.MaxBytesReader(c.Response(), c.Request().Body, maxBodyBytes))
	if err != nil {
		return errBadBody
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errBadBody
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errBadBody
	}

	if !exactKeys(data, dst) {
		return errBadBody
	}
	return nil
}

// exactKeys reports whether every key of the JSON object in data is spelled
// exactly like one of dst's json field names. encoding/json folds case when
// matching, so this is checked against dst's own encoding.
func exactKeys(data []byte, dst any) bool {
	var sent map[string]json.RawMessage
	if err := json.Unmarshal(data, &sent); err != nil {
		return false
	}
	if len(sent) == 0 {
		return true
	}

	encoded, err := json.Marshal(dst)
	if err != nil {
		return false
	}
	var known map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &known); err != nil {
		return false
	}

	for key := range sent {
		if _, ok := known[key]; !ok {
			return false
		}
	}
	return true
}
