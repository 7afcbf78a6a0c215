package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jsphweid/musan/constants"
	"github.com/jsphweid/musan/db"
	"github.com/jsphweid/musan/detect"
	"github.com/jsphweid/musan/logger"
	"github.com/jsphweid/musan/midi"
	"github.com/jsphweid/musan/model"
	"github.com/jsphweid/musan/pitch"
	"github.com/jsphweid/musan/scale"
	"github.com/jsphweid/musan/solfa"
	"github.com/jsphweid/musan/transcript"
	"github.com/jsphweid/musan/util"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the transcription server",
	Long:  `Runs the transcription server. See constants for the environment it reads.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

type Server struct {
	Store      db.Store
	Detector   detect.Detector
	UploadDir  string
	DefaultKey scale.Key
}

// NewServerFromEnv wires the server from the environment: DynamoDB when a
// table is configured, the external recognizer when a command is configured.
func NewServerFromEnv() (*Server, error) {
	k, err := scale.ParseKey(constants.GetDefaultKey())
	if err != nil {
		return nil, fmt.Errorf("DEFAULT_KEY: %w", err)
	}

	var store db.Store = db.NewMemoryStore()
	if table := constants.GetTranscriptTable(); table != "" {
		store, err = db.Connect(constants.GetAWSRegion(), constants.GetDynamoEndpoint(), table)
		if err != nil {
			return nil, err
		}
	}

	if err := util.EnsureDir(constants.GetUploadDir()); err != nil {
		return nil, err
	}

	d := detect.FromCommand(constants.GetRecognizerCommand(), constants.GetRecognizerTimeout())
	if _, ok := d.(detect.Simulated); ok {
		logger.Warn("OMR_COMMAND not set, scanned uploads get a simulated phrase", nil)
	}

	return &Server{
		Store:      store,
		Detector:   d,
		UploadDir:  constants.GetUploadDir(),
		DefaultKey: k,
	}, nil
}

func (s *Server) Router() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.Use(logRequests)
	router.HandleFunc("/", s.HandleIndex).Methods("GET")
	router.HandleFunc("/health", s.HandleHealth).Methods("GET")
	router.HandleFunc("/keys", s.HandleKeys).Methods("GET")
	router.HandleFunc("/scales/{key}", s.HandleScale).Methods("GET")
	router.HandleFunc("/transcribe", s.HandleTranscribe).Methods("POST")
	router.HandleFunc("/upload", s.HandleUpload).Methods("POST")
	router.HandleFunc("/transcriptions/{id}", s.HandleGetTranscription).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "Accept"},
	})
	return c.Handler(router)
}

func serve() error {
	if err := logger.Init(constants.GetSentryDSN(), constants.GetEnvironment()); err != nil {
		return fmt.Errorf("sentry: %w", err)
	}
	defer logger.Flush()

	s, err := NewServerFromEnv()
	if err != nil {
		return err
	}

	addr := ":" + constants.GetPort()
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}
	logger.Info("server starting", logger.Fields{"addr": addr, "key": s.DefaultKey.String()})
	return srv.ListenAndServe()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.LogRequest(r, time.Since(start), rec.status)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// a recognizer error may wrap a spelling error, so it is checked first
func statusFor(err error) int {
	var perr *detect.ProcessError
	switch {
	case errors.As(err, &perr):
		return http.StatusBadGateway
	case errors.Is(err, scale.ErrUnknownKey), errors.Is(err, pitch.ErrInvalidSpelling),
		errors.Is(err, midi.ErrMalformed):
		return http.StatusBadRequest
	case errors.Is(err, detect.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, detect.ErrNoNotes):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", err, logger.WithRequest(r))
	}
	writeJSON(w, status, model.ErrorResponse{Error: err.Error()})
}

func (s *Server) key(r *http.Request, name string) (scale.Key, error) {
	if strings.TrimSpace(name) == "" {
		return s.defaultKey(r), nil
	}
	return scale.ParseKey(name)
}

func (s *Server) defaultKey(r *http.Request) scale.Key {
	fields := logger.WithRequest(r)
	fields["key"] = s.DefaultKey.String()
	logger.Debug("no key given, using default", fields)
	return s.DefaultKey
}

const indexPage = `<!DOCTYPE html>
<html>
<head><title>musan</title></head>
<body>
<h1>musan</h1>
<form action="/upload" method="post" enctype="multipart/form-data">
<input type="file" name="notationFile" accept=".mid,.midi,.png,.jpg,.jpeg,.pdf" required>
<input type="text" name="key" placeholder="Key (default C)">
<select name="style"><option value="bracket">[F#]</option><option value="question">?</option></select>
<button type="submit">Transcribe</button>
</form>
</body>
</html>
`

func (s *Server) HandleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, indexPage)
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) HandleKeys(w http.ResponseWriter, r *http.Request) {
	res := make([]model.KeyResponse, 0)
	for _, k := range scale.Keys() {
		res = append(res, model.KeyResponse{Key: k, Signature: k.Signature()})
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) HandleScale(w http.ResponseWriter, r *http.Request) {
	sc, err := scale.BuildByName(mux.Vars(r)["key"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.NewScaleResponse(sc))
}

func (s *Server) HandleTranscribe(w http.ResponseWriter, r *http.Request) {
	var input model.TranscribeRequestBody
	if err := json.NewDecoder(io.LimitReader(r.Body, constants.MaxUploadSize)).Decode(&input); err != nil {
		if errors.Is(err, scale.ErrUnknownKey) {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "Could not parse request body: " + err.Error()})
		return
	}

	var k scale.Key
	if input.Key != nil {
		k = *input.Key
	} else {
		k = s.defaultKey(r)
	}
	style, err := solfa.ParseStyle(input.Style)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}

	notes := make([]pitch.NoteSpelling, 0, len(input.Notes))
	for _, text := range input.Notes {
		parsed, err := pitch.ParseAll(text)
		if err != nil {
			writeError(w, r, err)
			return
		}
		notes = append(notes, parsed...)
	}

	t, err := transcript.New("", notes, k, style)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.save(r, t)
	writeJSON(w, http.StatusOK, model.NewTranscriptResponse(t))
}

func (s *Server) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize)
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "Could not read upload: " + err.Error()})
		return
	}

	file, header, err := r.FormFile(constants.UploadField)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "Missing file field " + constants.UploadField})
		return
	}
	defer file.Close()

	k, err := s.key(r, r.FormValue("key"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	style, err := solfa.ParseStyle(r.FormValue("style"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}

	d, err := detect.ForPath(header.Filename, s.Detector)
	if err != nil {
		writeError(w, r, err)
		return
	}

	path := filepath.Join(s.UploadDir, uuid.New().String()+strings.ToLower(filepath.Ext(header.Filename)))
	defer util.RemoveQuietly(path)
	if err := saveUpload(path, file); err != nil {
		writeError(w, r, err)
		return
	}

	notes, err := d.Detect(r.Context(), path, k)
	if err != nil {
		writeError(w, r, err)
		return
	}

	t, err := transcript.New(filepath.Base(header.Filename), notes, k, style)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.save(r, t)

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		writeJSON(w, http.StatusOK, model.NewTranscriptResponse(t))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<pre>%s</pre><br><a href=\"/\">Back</a>", html.EscapeString(transcript.Report(t)))
}

func (s *Server) HandleGetTranscription(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	t, ok, err := s.Store.Get(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, model.ErrorResponse{Error: "No transcription with id " + id})
		return
	}
	writeJSON(w, http.StatusOK, model.NewTranscriptResponse(t))
}

// a transcript that could not be archived is still returned to the caller
func (s *Server) save(r *http.Request, t transcript.Transcript) {
	if err := s.Store.Save(t); err != nil {
		fields := logger.WithRequest(r)
		fields["id"] = t.ID
		logger.Error("could not save transcript", err, fields)
	}
}

func saveUpload(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not save upload: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("could not save upload: %w", err)
	}
	return nil
}
