package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/proviewer/internal/acquire"
	"github.com/sells-group/proviewer/internal/confidence"
	"github.com/sells-group/proviewer/internal/model"
	"github.com/sells-group/proviewer/internal/session"
	"github.com/sells-group/proviewer/internal/viewer"
)

type handlers struct {
	env *appEnv
}

// structureResponse is the JSON view of one flow.
type structureResponse struct {
	Flow     model.Flow              `json:"flow"`
	State    string                  `json:"state"`
	Format   model.Format            `json:"format,omitempty"`
	Source   string                  `json:"source,omitempty"`
	FileName string                  `json:"file_name,omitempty"`
	Key      string                  `json:"key,omitempty"`
	Score    *float64                `json:"score"`
	Atoms    int                     `json:"atoms,omitempty"`
	Bands    map[confidence.Band]int `json:"bands,omitempty"`
	Error    *viewer.Notice          `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		zap.L().Error("encode json response", zap.Error(err))
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// session returns the caller's session, starting a new one when the request
// carries no cookie or an expired one. The cookie is re-sent on every request
// so its lifetime slides with the store's idle timeout.
func (h *handlers) session(w http.ResponseWriter, r *http.Request) session.Session {
	name := h.env.Config.Session.CookieName
	var id string
	if c, err := r.Cookie(name); err == nil {
		id = c.Value
	}

	sess, created := h.env.Sessions.GetOrCreate(id)
	if created {
		zap.L().Debug("session started", zap.String("session", sess.ID))
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(h.env.Config.Session.TTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

func flowParam(r *http.Request) (model.Flow, bool) {
	return model.ParseFlow(chi.URLParam(r, "flow"))
}

func redirectToTab(w http.ResponseWriter, r *http.Request, flow model.Flow) {
	http.Redirect(w, r, "/?tab="+string(flow), http.StatusSeeOther)
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) page(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	tab, _ := model.ParseFlow(r.URL.Query().Get("tab"))

	page := viewer.BuildPage(sess, h.env.pageOptions(tab), acquire.Describe)

	var buf bytes.Buffer
	if err := viewer.Render(&buf, page); err != nil {
		zap.L().Error("render page", zap.String("session", sess.ID), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (h *handlers) predict(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	next := h.env.Service.Predict(r.Context(), sess, r.PostFormValue("sequence"))
	h.env.Sessions.Commit(model.FlowPredict, next)
	redirectToTab(w, r, model.FlowPredict)
}

func (h *handlers) fetch(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	next := h.env.Service.Fetch(r.Context(), sess, r.PostFormValue("accession"))
	h.env.Sessions.Commit(model.FlowFetch, next)
	redirectToTab(w, r, model.FlowFetch)
}

func (h *handlers) upload(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	maxBytes := h.env.Config.Server.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20)

	name, data, err := readUpload(r, maxBytes)
	var next session.Session
	switch {
	case errors.Is(err, http.ErrMissingFile):
		next = h.env.Service.Upload(sess, "", nil)
	case err != nil:
		if !isTooLarge(err) {
			http.Error(w, "invalid upload", http.StatusBadRequest)
			return
		}
		next = sess.Fail(model.FlowUpload, &acquire.ValidationError{
			Flow:    model.FlowUpload,
			Level:   acquire.LevelError,
			Message: fmt.Sprintf("File too large: max %d MB.", h.env.Config.Server.MaxUploadMB),
		})
	default:
		next = h.env.Service.Upload(sess, name, data)
	}

	h.env.Sessions.Commit(model.FlowUpload, next)
	redirectToTab(w, r, model.FlowUpload)
}

var errUploadTooLarge = errors.New("upload too large")

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) ||
		errors.Is(err, errUploadTooLarge) ||
		strings.Contains(err.Error(), "request body too large")
}

// readUpload reads the "file" part of a multipart upload, refusing files
// larger than maxBytes.
func readUpload(r *http.Request, maxBytes int64) (string, []byte, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return "", nil, http.ErrMissingFile
		}
		return "", nil, err
	}

	f, hdr, err := r.FormFile("file")
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return "", nil, err
	}
	if int64(len(data)) > maxBytes {
		return "", nil, errUploadTooLarge
	}
	return hdr.Filename, data, nil
}

func (h *handlers) clear(w http.ResponseWriter, r *http.Request) {
	flow, ok := flowParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	sess := h.session(w, r)

	h.env.Sessions.Commit(flow, h.env.Service.Clear(sess, flow))
	redirectToTab(w, r, flow)
}

func (h *handlers) download(w http.ResponseWriter, r *http.Request) {
	flow, ok := flowParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	sess := h.session(w, r)

	rec, ok := sess.Record(flow)
	if !ok {
		http.NotFound(w, r)
		return
	}

	dl := viewer.DownloadFor(flow, rec)
	w.Header().Set("Content-Type", dl.MediaType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dl.FileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(rec.Content)))
	io.WriteString(w, rec.Content)
}

func (h *handlers) structure(w http.ResponseWriter, r *http.Request) {
	flow, ok := flowParam(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown flow"})
		return
	}
	sess := h.session(w, r)
	st := sess.State(flow)

	resp := structureResponse{Flow: flow, State: st.Name()}
	if err := session.ErrorOf(st); err != nil {
		n := acquire.Describe(err)
		resp.Error = &n
	}
	if rec, ok := session.RecordOf(st); ok {
		resp.Format = rec.Format
		resp.Source = rec.SourceLabel
		resp.FileName = viewer.DownloadFor(flow, rec).FileName
		resp.Key = viewer.Key(string(flow), rec.Content, rec.Format)
		if sum, ok := confidence.Summarize(rec.Content, rec.Format); ok {
			score := sum.Mean
			resp.Score = &score
			resp.Atoms = sum.Atoms
			resp.Bands = sum.Bands
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
