package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/finfinder/internal/filetype"
	"github.com/local/finfinder/internal/finder"
	"github.com/local/finfinder/internal/metrics"
	"github.com/local/finfinder/internal/pdftext"
	"github.com/local/finfinder/internal/statuscheck"
	"github.com/local/finfinder/internal/store"
)

// DocumentLocator is satisfied by *finder.Locator.
type DocumentLocator interface {
	LocateFile(ctx context.Context, path string) (*finder.DocumentResult, error)
}

type Dependencies struct {
	Locator   DocumentLocator
	Resolver  *pdftext.Resolver
	Results   store.Results
	Status    *statuscheck.Checker
	UploadDir string
	// TempMaxAge bounds how long downloaded and uploaded files may linger.
	TempMaxAge time.Duration
}

// Server exposes the statement locator over HTTP.
type Server struct {
	deps Dependencies
}

func New(deps Dependencies) *Server {
	if deps.Resolver == nil {
		deps.Resolver = &pdftext.Resolver{}
	}
	if deps.UploadDir == "" {
		deps.UploadDir = "uploads"
	}
	if deps.TempMaxAge <= 0 {
		deps.TempMaxAge = time.Hour
	}
	return &Server{deps: deps}
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/locate", s.handleLocate)
	mux.HandleFunc("/locate_upload", s.handleLocateUpload)
	mux.HandleFunc("/results/", s.handleResult)
}

type locateReq struct {
	FilePath string `json:"file_path"`
	FileURL  string `json:"file_url"`
	Company  string `json:"company"`
}

type locateResp struct {
	Status   string                 `json:"status"`
	JobID    string                 `json:"job_id"`
	Message  string                 `json:"message,omitempty"`
	Document *finder.DocumentResult `json:"document,omitempty"`
}

func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()
	var req locateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	ref := req.FilePath
	if ref == "" {
		ref = req.FileURL
	}
	if ref == "" {
		http.Error(w, "missing file_path/file_url", http.StatusBadRequest)
		return
	}

	jobID := uuid.NewString()
	log.Info().Str("job_id", jobID).Str("file", ref).Msg("job created")
	job := s.begin(r.Context(), jobID, ref)

	local, err := s.deps.Resolver.Resolve(r.Context(), ref)
	defer local.Cleanup()
	if err != nil {
		log.Warn().Err(err).Str("job_id", jobID).Str("file", ref).Msg("resolve failed")
		s.finish(r.Context(), job, nil, err)
		writeJSON(w, http.StatusBadGateway, locateResp{Status: "error", JobID: jobID, Message: err.Error()})
		return
	}

	res, err := s.deps.Locator.LocateFile(r.Context(), local.Path)
	if res != nil {
		if req.Company != "" {
			res.Company = req.Company
		}
		res.Path = ref
		if local.Path != ref {
			res.Document = finder.DocumentName(ref)
		}
	}
	s.respond(r.Context(), w, job, res, err)
}

// handleLocateUpload accepts a multipart PDF upload (field "file") and locates it synchronously.
func (s *Server) handleLocateUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	info, err := filetype.DetectReader(file)
	if err != nil || !info.Supported {
		http.Error(w, "upload is not a PDF", http.StatusUnsupportedMediaType)
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		http.Error(w, "cannot read upload", http.StatusInternalServerError)
		return
	}

	if err := os.MkdirAll(s.deps.UploadDir, 0o755); err != nil {
		http.Error(w, "cannot create upload dir", http.StatusInternalServerError)
		return
	}
	jobID := uuid.NewString()
	name := filepath.Base(hdr.Filename)
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "upload.pdf"
	}
	localPath := filepath.Join(s.deps.UploadDir, fmt.Sprintf("upload-%s_%s", jobID, name))
	out, err := os.Create(localPath)
	if err != nil {
		http.Error(w, "cannot save upload", http.StatusInternalServerError)
		return
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(localPath)
		http.Error(w, "write failed", http.StatusInternalServerError)
		return
	}
	_ = out.Close()
	defer os.Remove(localPath)

	job := s.begin(r.Context(), jobID, "upload:"+name)
	res, err := s.deps.Locator.LocateFile(r.Context(), localPath)
	if res != nil {
		res.Company = r.FormValue("company")
		res.Document = finder.DocumentName(name)
		res.Path = name
	}
	s.respond(r.Context(), w, job, res, err)
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/results/")
	if id == "" {
		http.Error(w, "missing job_id", http.StatusBadRequest)
		return
	}
	res, ok, err := s.deps.Results.Get(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("job_id", id).Msg("result lookup failed")
		http.Error(w, "error", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.deps.Status == nil {
		http.Error(w, "status checks not configured", http.StatusNotFound)
		return
	}
	sum := s.deps.Status.Summary(r.Context())
	code := http.StatusOK
	if !sum.OK() {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, sum)
}

func (s *Server) begin(ctx context.Context, jobID, source string) store.Result {
	job := store.Result{JobID: jobID, Status: store.StatusProcessing, Source: source, Created: time.Now().UTC()}
	if err := s.deps.Results.Set(ctx, job); err != nil {
		log.Warn().Err(err).Str("job_id", jobID).Msg("store job failed")
	}
	return job
}

func (s *Server) finish(ctx context.Context, job store.Result, res *finder.DocumentResult, err error) store.Result {
	end := time.Now().UTC()
	job.Finished = &end
	job.Document = res
	job.Status = store.StatusDone
	if err != nil {
		job.Status = store.StatusFailed
		job.Error = err.Error()
	}
	// detach so a disconnected client still gets its result recorded
	if serr := s.deps.Results.Set(context.WithoutCancel(ctx), job); serr != nil {
		log.Warn().Err(serr).Str("job_id", job.JobID).Msg("store result failed")
	}
	tmp := s.deps.Resolver.TempDir
	if tmp == "" {
		tmp = os.TempDir()
	}
	go pdftext.CleanupTemps(tmp, s.deps.TempMaxAge)
	go pdftext.CleanupTemps(s.deps.UploadDir, s.deps.TempMaxAge, "upload-")
	return job
}

func (s *Server) respond(ctx context.Context, w http.ResponseWriter, job store.Result, res *finder.DocumentResult, err error) {
	job = s.finish(ctx, job, res, err)
	if err != nil {
		code := http.StatusInternalServerError
		if finder.IsFileError(err) {
			code = http.StatusUnprocessableEntity
		}
		writeJSON(w, code, locateResp{Status: "error", JobID: job.JobID, Message: err.Error(), Document: res})
		return
	}
	writeJSON(w, http.StatusOK, locateResp{Status: "ok", JobID: job.JobID, Document: res})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
