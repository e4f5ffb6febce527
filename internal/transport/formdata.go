package transport

import (
	"bytes"
	"fmt"
	"mime/multipart"
)

// FormData is a binary-attachment payload sent as multipart/form-data.
// Fields and files keep their insertion order.
type FormData struct {
	fields []formField
	files  []formFile
}

type formField struct {
	name  string
	value string
}

type formFile struct {
	field    string
	filename string
	content  []byte
}

// NewFormData returns an empty multipart payload.
func NewFormData() *FormData {
	return &FormData{}
}

// Set appends a text field.
func (f *FormData) Set(name, value string) *FormData {
	f.fields = append(f.fields, formField{name: name, value: value})
	return f
}

// Has reports whether a text field or file part named name is present.
func (f *FormData) Has(name string) bool {
	for _, field := range f.fields {
		if field.name == name {
			return true
		}
	}
	for _, file := range f.files {
		if file.field == name {
			return true
		}
	}
	return false
}

// AddFile appends a file part.
func (f *FormData) AddFile(field, filename string, content []byte) *FormData {
	f.files = append(f.files, formFile{field: field, filename: filename, content: content})
	return f
}

// Names lists the part names in the order they are encoded.
func (f *FormData) Names() []string {
	names := make([]string, 0, f.Len())
	for _, field := range f.fields {
		names = append(names, field.name)
	}
	for _, file := range f.files {
		names = append(names, file.field)
	}
	return names
}

// Len returns the number of parts.
func (f *FormData) Len() int {
	return len(f.fields) + len(f.files)
}

// encode renders the payload and returns the content type carrying its boundary.
func (f *FormData) encode() (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for _, field := range f.fields {
		if err := w.WriteField(field.name, field.value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", field.name, err)
		}
	}
	for _, file := range f.files {
		part, err := w.CreateFormFile(file.field, file.filename)
		if err != nil {
			return nil, "", fmt.Errorf("create part %s: %w", file.field, err)
		}
		if _, err := part.Write(file.content); err != nil {
			return nil, "", fmt.Errorf("write part %s: %w", file.field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}
