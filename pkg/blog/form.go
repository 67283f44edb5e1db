package blog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/solorad/blog-crud/pkg/models"
)

const maxBodyBytes = 1 << 20

// parseFields reads a form-encoded, multipart or JSON body into free-form fields.
// Form keys keep their first value.
func parseFields(w http.ResponseWriter, r *http.Request) (models.Fields, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		if len(bytes.TrimSpace(body)) == 0 {
			return models.Fields{}, nil
		}
		var fields models.Fields
		if err := decodeJSON(body, &fields); err != nil {
			return nil, fmt.Errorf("decode json body: %w", err)
		}
		if fields == nil {
			return nil, errors.New("decode json body: not an object")
		}
		return fields, nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return nil, fmt.Errorf("parse multipart body: %w", err)
		}
	default:
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("parse form body: %w", err)
		}
	}
	fields := models.Fields{}
	for k, v := range r.PostForm {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}
	return fields, nil
}

// idFrom returns the "id" field as a string, empty if absent
func idFrom(fields models.Fields) string {
	v, ok := fields["id"]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// decodeJSON decodes a single JSON value into v. Numbers that are whole and fit
// in an int64 stay integers; the rest become float64.
func decodeJSON(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("trailing data after JSON value")
	}
	switch t := v.(type) {
	case *models.Fields:
		for k, e := range *t {
			(*t)[k] = numbers(e)
		}
	case *[]interface{}:
		for i, e := range *t {
			(*t)[i] = numbers(e)
		}
	}
	return nil
}

func numbers(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case map[string]interface{}:
		for k, e := range t {
			t[k] = numbers(e)
		}
	case []interface{}:
		for i, e := range t {
			t[i] = numbers(e)
		}
	}
	return v
}
