package handle

import (
	"errors"
	"net/http"

	"latexsnap/api/internal/app"
	"latexsnap/api/internal/recognize"
	"latexsnap/api/internal/util"
)

type UploadInfo struct {
	Name    string `json:"name"`
	MIME    string `json:"mime"`
	Size    int    `json:"size"`
	Preview string `json:"preview"`
}

func uploadInfo(img *recognize.Image) UploadInfo {
	return UploadInfo{
		Name:    img.Name,
		MIME:    img.MIME,
		Size:    len(img.Data),
		Preview: util.MakeDataURL(img.MIME, img.Data),
	}
}

// Upload accepts a multipart "file" (POST) or forgets the current one
// (DELETE).
func (h *Handle) Upload(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost, http.MethodDelete) {
		return
	}
	c := h.controller(w, r)
	if r.Method == http.MethodDelete {
		c.RemoveFile()
		w.WriteHeader(http.StatusNoContent)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, recognize.MaxFileSize+1<<20)
	f, hdr, err := r.FormFile("file")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, &recognize.ValidationError{Msg: "Image size must be less than 10MB."})
			return
		}
		writeError(w, &recognize.ValidationError{Msg: "Please upload an image first."})
		return
	}
	defer f.Close()

	img, err := recognize.CaptureReader(hdr.Filename, hdr.Header.Get("Content-Type"), f)
	if err != nil {
		if recognize.KindOf(err) != recognize.KindValidation {
			err = &recognize.ValidationError{Msg: "could not read upload: " + err.Error()}
		}
		writeError(w, err)
		return
	}
	in := app.FileInput{Name: img.Name, ContentType: img.MIME, Data: img.Data}
	if err := c.SelectFile(in); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadInfo(c.Uploaded()))
}
