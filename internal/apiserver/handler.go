// Package apiserver exposes the generic CRUD engine over HTTP, bound to
// the products table. It performs no authentication of its own: the
// service trusts whoever can reach its port, and the web frontend is its
// only intended caller.
package apiserver

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/minishop/minishop/internal/datastore"
	"github.com/minishop/minishop/internal/metrics"
	"github.com/minishop/minishop/internal/middleware"
)

const productsTable = "products"

type handler struct {
	store *datastore.Store
	log   *logrus.Logger
}

// NewHandler returns the API service router.
func NewHandler(store *datastore.Store, log *logrus.Logger) http.Handler {
	h := &handler{store: store, log: log}

	r := mux.NewRouter()
	r.Use(middleware.Recover(log))
	r.Use(middleware.RequestLogging(log))
	r.Use(middleware.Metrics("apiserver"))

	r.HandleFunc("/select_all", h.selectAll).Methods(http.MethodGet)
	r.HandleFunc("/select", h.selectWhere).Methods(http.MethodGet)
	r.HandleFunc("/insert", h.insert).Methods(http.MethodPost)
	r.HandleFunc("/update", h.update).Methods(http.MethodPut)
	r.HandleFunc("/delete", h.delete).Methods(http.MethodDelete)

	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)

	notFound := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not Found")
	})
	r.NotFoundHandler = notFound
	r.MethodNotAllowedHandler = notFound

	return r
}

func (h *handler) selectAll(w http.ResponseWriter, r *http.Request) {
	rows := h.store.SelectAll(r.Context(), productsTable)
	writeJSON(w, http.StatusOK, map[string]any{"products": rows})
}

// selectWhere turns query-string pairs into the condition set. Only the
// first value of a repeated key is used.
func (h *handler) selectWhere(w http.ResponseWriter, r *http.Request) {
	conds := datastore.Conditions{}
	for key, vals := range r.URL.Query() {
		if len(vals) > 0 {
			conds[key] = vals[0]
		}
	}

	rows := h.store.Select(r.Context(), productsTable, conds)
	writeJSON(w, http.StatusOK, map[string]any{"products": rows})
}

func (h *handler) insert(w http.ResponseWriter, r *http.Request) {
	var rec datastore.Record
	if err := decodeJSON(r.Body, &rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if !h.store.Insert(r.Context(), productsTable, rec) {
		writeError(w, http.StatusInternalServerError, "商品の追加に失敗しました")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "商品を追加しました"})
}

// update expects a JSON object whose reserved "conditions" key holds the
// condition set; the remaining top-level keys form the update record.
func (h *handler) update(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	conds := datastore.Conditions{}
	if raw, ok := payload["conditions"]; ok {
		obj, ok := raw.(map[string]any)
		if !ok {
			writeError(w, http.StatusBadRequest, "conditions must be an object")
			return
		}
		conds = datastore.Conditions(obj)
		delete(payload, "conditions")
	}

	if !h.store.Update(r.Context(), productsTable, datastore.Record(payload), conds) {
		writeError(w, http.StatusInternalServerError, "商品の更新に失敗しました")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "商品を更新しました"})
}

func (h *handler) delete(w http.ResponseWriter, r *http.Request) {
	var conds datastore.Conditions
	if err := decodeJSON(r.Body, &conds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if !h.store.Delete(r.Context(), productsTable, conds) {
		writeError(w, http.StatusInternalServerError, "商品の削除に失敗しました")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "商品を削除しました"})
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeJSON(body io.ReadCloser, dst any) error {
	defer body.Close()
	return json.NewDecoder(body).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
