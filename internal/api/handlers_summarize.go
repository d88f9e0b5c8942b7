package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dgallion1/lexgest/internal/citation"
	"github.com/dgallion1/lexgest/internal/export"
	"github.com/dgallion1/lexgest/internal/legal"
	"github.com/dgallion1/lexgest/internal/parser"
	"github.com/dgallion1/lexgest/internal/pipeline"
)

// handleSummarize accepts files and/or pasted text, adds them to a session
// and queues a run over every document in that session.
func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	opts, err := s.requestOptions(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	files := slices.Concat(r.MultipartForm.File["files"], r.MultipartForm.File["files[]"])
	uploads := make([]pipeline.Upload, 0, len(files))
	for _, fh := range files {
		up, err := s.readUpload(fh)
		if err != nil {
			code := http.StatusBadRequest
			if errors.Is(err, errTooLarge) {
				code = http.StatusRequestEntityTooLarge
			}
			jsonError(w, err.Error(), code)
			return
		}
		uploads = append(uploads, up)
	}
	text := r.FormValue("text")

	sessionID := r.FormValue("session_id")
	var sess *pipeline.Session
	if sessionID != "" {
		sess = s.orchestrator.Sessions().Get(sessionID)
	}
	if len(uploads) == 0 && strings.TrimSpace(text) == "" && (sess == nil || len(sess.Documents()) == 0) {
		jsonError(w, "at least one file or text is required", http.StatusBadRequest)
		return
	}
	if sess == nil {
		sess, _ = s.orchestrator.Sessions().GetOrCreate(sessionID)
	}

	job := pipeline.NewJob(uuid.NewString(), sess, uploads, text, opts)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	s.log.Info("job queued",
		zap.String("job_id", job.ID),
		zap.String("session_id", sess.ID),
		zap.Int("files", len(uploads)),
		zap.Bool("text", text != ""))

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":     job.ID,
		"session_id": sess.ID,
		"status":     pipeline.StatusQueued,
		"poll_url":   fmt.Sprintf("/api/summarize/%s/status", job.ID),
	})
}

var errTooLarge = errors.New("file too large")

func (s *Server) readUpload(fh *multipart.FileHeader) (pipeline.Upload, error) {
	filename := sanitizeFilename(fh.Filename)
	if !parser.IsSupportedExtension(filename) {
		return pipeline.Upload{}, fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
	}
	f, err := fh.Open()
	if err != nil {
		return pipeline.Upload{}, fmt.Errorf("open %s: %w", filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return pipeline.Upload{}, fmt.Errorf("read %s: %w", filename, err)
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return pipeline.Upload{}, fmt.Errorf("%w: %s exceeds %d bytes", errTooLarge, filename, s.cfg.MaxUploadBytes)
	}
	return pipeline.Upload{Name: filename, Data: data}, nil
}

// requestOptions starts from the configured defaults and applies any option
// fields present on the form.
func (s *Server) requestOptions(r *http.Request) (legal.Options, error) {
	opts := s.cfg.Options()
	if v := r.FormValue("length"); v != "" {
		opts.Length = legal.Length(v)
	}
	if v := r.FormValue("complexity"); v != "" {
		opts.Complexity = legal.Complexity(v)
	}
	if v := r.FormValue("tone"); v != "" {
		opts.Tone = legal.Tone(v)
	}
	if v := r.FormValue("style"); v != "" {
		opts.Style = legal.Style(v)
	}
	if v := r.FormValue("jurisdiction"); v != "" {
		opts.Jurisdiction = v
	}
	for field, dst := range map[string]*int{"token_ceiling": &opts.TokenCeiling, "concurrency": &opts.Concurrency} {
		v := r.FormValue(field)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return legal.Options{}, fmt.Errorf("%s must be a positive integer", field)
		}
		*dst = n
	}
	opts = opts.Normalize()
	if err := opts.Validate(); err != nil {
		return legal.Options{}, err
	}
	return opts, nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

// finishedJob writes an error response and returns nil unless the job has
// a result.
func (s *Server) finishedJob(w http.ResponseWriter, r *http.Request) (*legal.SummaryItem, []legal.Paragraph) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return nil, nil
	}
	snap := job.Snapshot()
	switch {
	case snap.Status == pipeline.StatusFailed:
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "job failed",
			"phase":  snap.Phase,
			"errors": snap.Progress.Errors,
		})
		return nil, nil
	case !snap.Status.Terminal():
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":  "job not finished",
			"status": snap.Status,
		})
		return nil, nil
	}
	return job.Result()
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	item, paras := s.finishedJob(w, r)
	if item == nil {
		return
	}
	writeJSON(w, http.StatusOK, export.NewBundle(*item, citation.NewResolver(paras)))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	item, paras := s.finishedJob(w, r)
	if item == nil {
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(item.Title, format)))
	if err := export.Render(w, format, *item, citation.NewResolver(paras)); err != nil {
		s.log.Error("export failed", zap.String("format", string(format)), zap.Error(err))
	}
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
