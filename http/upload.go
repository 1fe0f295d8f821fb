package http

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/pixoapp/pixo"
)

const (
	// multipartOverhead is allowed on top of the upload limit for boundaries
	// and the other form fields.
	multipartOverhead = 1 << 20
	// multipartMemory is kept in memory before parts spill to temp files.
	multipartMemory = 8 << 20
)

var errBodyTooLarge = errors.New("request body too large")

// uploadForm is a parsed multipart upload request.
type uploadForm struct {
	form   *multipart.Form
	file   multipart.File
	header *multipart.FileHeader
}

// parseUploadForm limits the request body to maxUploadSize plus overhead and
// parses it. A request that is not multipart yields an empty form, so the
// caller reports the missing fields.
func parseUploadForm(w http.ResponseWriter, r *http.Request, maxUploadSize int64) (*uploadForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+multipartOverhead)

	err := r.ParseMultipartForm(multipartMemory)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, errBodyTooLarge
		}
		return &uploadForm{}, nil
	}

	uf := &uploadForm{form: r.MultipartForm}
	if files := r.MultipartForm.File["file"]; len(files) > 0 {
		uf.header = files[0]
		f, err := uf.header.Open()
		if err != nil {
			return nil, err
		}
		uf.file = f
	}

	return uf, nil
}

// value returns the first value of a text field.
func (u *uploadForm) value(key string) string {
	if u.form == nil {
		return ""
	}
	if vs := u.form.Value[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// check reports the error code of a missing or nameless file part.
// A file part sent without a filename is parsed as a text field.
func (u *uploadForm) check() (code, message string, ok bool) {
	if u.file == nil {
		if u.form != nil && len(u.form.Value["file"]) > 0 {
			return "empty_filename", "File has no name", false
		}
		return "no_file", "No file in request", false
	}
	if u.header.Filename == "" {
		return "empty_filename", "File has no name", false
	}
	return "", "", true
}

func (u *uploadForm) upload() pixo.Upload {
	return pixo.Upload{
		Filename:    u.header.Filename,
		ContentType: u.header.Header.Get("Content-Type"),
		Size:        u.header.Size,
		Content:     u.file,
	}
}

// Close releases the file part and any temp files of the form.
func (u *uploadForm) Close() error {
	var errs []error
	if u.file != nil {
		errs = append(errs, u.file.Close())
	}
	if u.form != nil {
		errs = append(errs, u.form.RemoveAll())
	}
	return errors.Join(errs...)
}
