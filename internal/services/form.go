package services

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// FormFile is one file part of a multipart form. Content wins over Path when both are set.
type FormFile struct {
	Field    string
	FileName string
	Path     string
	Content  io.Reader
}

// Form collects fields and files in insertion order.
type Form struct {
	fields [][2]string
	files  []FormFile
}

// NewForm returns an empty form.
func NewForm() *Form {
	return &Form{}
}

// Field adds a text field. Empty values are skipped.
func (f *Form) Field(name, value string) *Form {
	if value != "" {
		f.fields = append(f.fields, [2]string{name, value})
	}
	return f
}

// File adds a file part. A nil file or one without a source is skipped.
func (f *Form) File(file *FormFile) *Form {
	if file != nil && (file.Content != nil || file.Path != "") {
		f.files = append(f.files, *file)
	}
	return f
}

// Encode renders the form and returns the body with its Content-Type.
func (f *Form) Encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, kv := range f.fields {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", fmt.Errorf("failed to write form field %s: %w", kv[0], err)
		}
	}

	for _, file := range f.files {
		if err := writeFile(w, file); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish form: %w", err)
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}

func writeFile(w *multipart.Writer, file FormFile) error {
	src := file.Content
	name := file.FileName

	if src == nil {
		fh, err := os.Open(file.Path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", file.Path, err)
		}
		defer fh.Close()
		src = fh
		if name == "" {
			name = filepath.Base(file.Path)
		}
	}
	if name == "" {
		name = file.Field
	}

	part, err := w.CreateFormFile(file.Field, name)
	if err != nil {
		return fmt.Errorf("failed to create form file %s: %w", file.Field, err)
	}

	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("failed to copy %s: %w", file.Field, err)
	}

	return nil
}
