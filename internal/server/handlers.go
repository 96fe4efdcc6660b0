package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/matzehuels/comfyscope/pkg/buildinfo"
	cerrors "github.com/matzehuels/comfyscope/pkg/errors"
	cio "github.com/matzehuels/comfyscope/pkg/io"
	"github.com/matzehuels/comfyscope/pkg/pipeline"
	"github.com/matzehuels/comfyscope/pkg/workflow"
)

// FormField is the multipart field holding the uploaded image.
const FormField = "image"

var (
	errEmptyBody    = errors.New("request body is empty")
	errMissingImage = fmt.Errorf("multipart field %q is missing", FormField)
)

type extractResponse struct {
	ID       string             `json:"id"`
	Workflow *workflow.Workflow `json:"workflow"`
	Positive []string           `json:"positive"`
	Negative []string           `json:"negative"`
	Cached   bool               `json:"cached"`
}

type errorResponse struct {
	Code    cerrors.Code `json:"code"`
	Message string       `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		buildinfo.Info
	}{"ok", buildinfo.Get()})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	res, ok := s.execute(w, r, nil)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, extractResponse{
		ID:       RequestID(r.Context()),
		Workflow: res.Extraction.Workflow,
		Positive: res.Extraction.Positive,
		Negative: res.Extraction.Negative,
		Cached:   res.CacheInfo.ExtractHit,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	filename := s.filename
	if name := r.URL.Query().Get("filename"); name != "" {
		if err := cerrors.ValidateFilename(name); err != nil {
			respondError(w, http.StatusBadRequest, err)
			return
		}
		filename = name
	}

	res, ok := s.execute(w, r, []string{pipeline.FormatJSON})
	if !ok {
		return
	}
	w.Header().Set("Content-Type", cio.MediaType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.WriteHeader(http.StatusOK)
	w.Write(res.Artifacts[pipeline.FormatJSON])
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	if err := cerrors.ValidateFormat(format, pipeline.FormatDOT, pipeline.FormatSVG); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	res, ok := s.execute(w, r, []string{format})
	if !ok {
		return
	}
	w.Header().Set("Content-Type", pipeline.ContentTypes[format])
	w.WriteHeader(http.StatusOK)
	w.Write(res.Artifacts[format])
}

// execute reads the upload and runs the pipeline. On failure it writes the
// error response and returns ok == false.
func (s *Server) execute(w http.ResponseWriter, r *http.Request, formats []string) (*pipeline.Result, bool) {
	img, err := s.readImage(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, cerrors.New(cerrors.ErrCodeInvalidInput,
				"image exceeds %d bytes", tooLarge.Limit))
			return nil, false
		}
		respondError(w, http.StatusBadRequest, cerrors.Wrap(cerrors.ErrCodeInvalidInput, err, "%v", err))
		return nil, false
	}

	q := r.URL.Query()
	opts := pipeline.Options{
		Image:           img,
		Source:          RequestID(r.Context()),
		TextEncodeTypes: s.classify.TextEncodeTypes,
		NegativeSlot:    s.classify.NegativeSlot,
		Formats:         formats,
		Detailed:        boolParam(q.Get("detailed")),
		Polarity:        boolParam(q.Get("polarity")),
		Refresh:         boolParam(q.Get("refresh")),
	}
	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.logger.Warn("extraction failed", "id", RequestID(r.Context()), "err", err)
		respondError(w, statusFor(err), err)
		return nil, false
	}
	return res, true
}

// readImage returns the raw request body, or the "image" field of a
// multipart form, bounded by the configured upload limit.
func (s *Server) readImage(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
			return nil, fmt.Errorf("parse form: %w", err)
		}
		f, _, err := r.FormFile(FormField)
		if err != nil {
			return nil, errMissingImage
		}
		defer f.Close()
		return readNonEmpty(f)
	}
	return readNonEmpty(r.Body)
}

func readNonEmpty(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errEmptyBody
	}
	return data, nil
}

func boolParam(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}

// statusFor maps error codes to HTTP statuses.
func statusFor(err error) int {
	switch cerrors.GetCode(err) {
	case cerrors.ErrCodeNoWorkflow, cerrors.ErrCodeImageProcessing, cerrors.ErrCodeMalformedWorkflow:
		return http.StatusUnprocessableEntity
	case cerrors.ErrCodeInvalidInput, cerrors.ErrCodeInvalidFormat, cerrors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case cerrors.ErrCodeFileNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, err error) {
	code := cerrors.GetCode(err)
	if code == "" {
		code = cerrors.ErrCodeInternal
	}
	msg := cerrors.UserMessage(err)
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	respondJSON(w, status, errorResponse{Code: code, Message: msg})
}
