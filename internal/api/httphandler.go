package api

import (
	"easyprofile/internal/persist"
	"easyprofile/internal/profile"
	"easyprofile/internal/types"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

const maxBody = 1 << 20

type Handler struct {
	Svc     *Service
	Metrics http.Handler
}

func NewHandler(svc *Service, metrics http.Handler) *Handler {
	return &Handler{Svc: svc, Metrics: metrics}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /profile", h.handleGetProfile)
	mux.HandleFunc("GET /profile/{category}/{entry}", h.handleGetEntry)
	mux.HandleFunc("PUT /profile/{category}/{entry}", h.handlePutEntry)
	mux.HandleFunc("DELETE /profile/{category}/{entry}", h.handleResetEntry)
	mux.HandleFunc("POST /flush", h.handleFlush)
	mux.HandleFunc("GET /query", h.handleQuery)
	mux.HandleFunc("GET /export", h.handleExport)
	mux.HandleFunc("POST /import", h.handleImport)
	if h.Metrics != nil {
		mux.Handle("GET /metrics", h.Metrics)
	}
	return mux
}

func (h *Handler) snapshot() types.Snapshot {
	var snap types.Snapshot
	_ = h.Svc.Do(func(p *profile.Profile) error {
		snap = persist.Capture(p, h.Svc.ProfileID(), false)
		return nil
	})
	return snap
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	writeJSONOrFail(w, http.StatusOK, h.snapshot())
}

// entry resolves the {category}/{entry} path values.
func entry(p *profile.Profile, r *http.Request) (profile.Descriptor, int, error) {
	d, ok := p.Category(r.PathValue("category"))
	if !ok {
		return nil, 0, profile.ErrUnknownCategory
	}
	i, ok := d.IndexOf(r.PathValue("entry"))
	if !ok {
		return nil, 0, profile.ErrIndexOutOfRange
	}
	return d, i, nil
}

func (h *Handler) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	var ch profile.Change
	err := h.Svc.Do(func(p *profile.Profile) error {
		d, i, err := entry(p, r)
		if err != nil {
			return err
		}
		v, err := p.Value(d, i)
		ch = profile.Change{Category: d.Name(), Index: i, Name: d.EntryName(i), Value: v}
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONOrFail(w, http.StatusOK, ch)
}

func (h *Handler) handlePutEntry(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		http.Error(w, "read error", http.StatusBadRequest)
		return
	}
	defer func() {
		_ = r.Body.Close()
	}()
	if len(body) == 0 {
		http.Error(w, "empty body", http.StatusBadRequest)
		return
	}
	var ch profile.Change
	err = h.Svc.Do(func(p *profile.Profile) error {
		d, i, err := entry(p, r)
		if err != nil {
			return err
		}
		v, err := d.DecodeValue(body, json.Unmarshal)
		if err != nil {
			return types.Err(types.ErrDecode, err, "")
		}
		if err := p.Assign(d, i, v, true); err != nil {
			return err
		}
		cur, _ := p.Value(d, i)
		ch = profile.Change{Category: d.Name(), Index: i, Name: d.EntryName(i), Value: cur}
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONOrFail(w, http.StatusOK, ch)
}

// handleResetEntry restores the default of one entry. Listeners are always notified.
func (h *Handler) handleResetEntry(w http.ResponseWriter, r *http.Request) {
	var ch profile.Change
	err := h.Svc.Do(func(p *profile.Profile) error {
		d, i, err := entry(p, r)
		if err != nil {
			return err
		}
		if err := p.ResetEntry(d, i); err != nil {
			return err
		}
		cur, _ := p.Value(d, i)
		ch = profile.Change{Category: d.Name(), Index: i, Name: d.EntryName(i), Value: cur}
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONOrFail(w, http.StatusOK, ch)
}

func (h *Handler) handleFlush(w http.ResponseWriter, r *http.Request) {
	names, err := h.Svc.Flush(r.Context())
	if err != nil {
		log.WithError(err).Error("flush failed")
		writeError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSONOrFail(w, http.StatusOK, map[string]any{"flushed": names})
}

func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	expr := r.URL.Query().Get("expr")
	if strings.TrimSpace(expr) == "" {
		http.Error(w, "missing expr", http.StatusBadRequest)
		return
	}
	v, err := persist.Query(expr, h.snapshot())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSONOrFail(w, http.StatusOK, map[string]any{"result": v})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	s, err := persist.Export(h.snapshot())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = io.WriteString(w, s)
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		http.Error(w, "read error", http.StatusBadRequest)
		return
	}
	defer func() {
		_ = r.Body.Close()
	}()
	snap, err := persist.Import(strings.TrimSpace(string(body)))
	if err != nil {
		writeError(w, err)
		return
	}
	var n int
	err = h.Svc.Do(func(p *profile.Profile) error {
		n, err = persist.Apply(p, snap)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONOrFail(w, http.StatusOK, map[string]any{"applied": n})
}

// writeError maps domain errors to status codes.
func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, profile.ErrUnknownCategory), errors.Is(err, profile.ErrIndexOutOfRange),
		errors.Is(err, types.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, profile.ErrTypeMismatch), errors.Is(err, types.ErrDecode):
		code = http.StatusBadRequest
	case errors.Is(err, types.ErrDataStoreAccess):
		code = http.StatusBadGateway
	}
	http.Error(w, err.Error(), code)
}

func writeJSONOrFail(w http.ResponseWriter, code int, v any) {
	if err := writeJSON(w, code, v); err != nil {
		http.Error(w, "failed to write response", http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}
