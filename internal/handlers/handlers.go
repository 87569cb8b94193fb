package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Brownie44l1/oral-api/internal/inference"
	"github.com/cyclopcam/logs"
	"github.com/julienschmidt/httprouter"
)

// MaxUploadBytes is the largest request body we accept on the predict endpoint
const MaxUploadBytes = 10 << 20

const healthMessage = "Oral disease prediction API is running"

type Handler struct {
	log     logs.Log
	service *inference.Service
}

func NewHandler(log logs.Log, service *inference.Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Message     string `json:"message"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	sendJSON(w, http.StatusOK, HealthResponse{
		Status:      "healthy",
		ModelLoaded: h.service.ModelLoaded(),
		Message:     healthMessage,
	})
}

func (h *Handler) Predict(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)

	upload, err := readUpload(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.service.Classify(r.Context(), upload)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	sendJSON(w, http.StatusOK, result)
}

// readUpload extracts the "file" part of a multipart request.
// A nil upload with a nil error means the request carried no file part at all.
func readUpload(r *http.Request) (*inference.Upload, error) {
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &inference.Error{Kind: inference.KindPayloadTooLarge, Message: inference.MsgPayloadTooLarge, Err: err}
		}
		// Not multipart, or malformed multipart. Either way there is no file.
		return nil, nil
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		// A file input submitted with nothing selected arrives as a plain value without a filename
		if _, ok := r.MultipartForm.Value["file"]; ok {
			return &inference.Upload{}, nil
		}
		return nil, nil
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload '%v': %w", header.Filename, err)
	}

	return &inference.Upload{
		Filename: header.Filename,
		Data:     data,
	}, nil
}

// fail logs err and sends it to the client. Anything that is not an *inference.Error
// becomes an InternalError, and its details stay in the log.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	id := RequestID(r.Context())
	var ierr *inference.Error
	if !errors.As(err, &ierr) {
		ierr = &inference.Error{Kind: inference.KindInternal, Message: inference.MsgInternal, Err: err}
	}

	code := StatusCode(ierr.Kind)
	if code >= http.StatusInternalServerError {
		h.log.Errorf("[%v] Failed request %v: %v", id, r.URL.Path, ierr)
	} else {
		h.log.Infof("[%v] Failed request %v: %v", id, r.URL.Path, ierr)
	}
	sendError(w, code, ierr.Message)
}
