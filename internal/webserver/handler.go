// Package webserver is the browser-facing shop frontend. It
// authenticates requests via a session cookie and fetches product data
// from the API service over HTTP.
package webserver

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/minishop/minishop/internal/apiclient"
	"github.com/minishop/minishop/internal/metrics"
	"github.com/minishop/minishop/internal/middleware"
	"github.com/minishop/minishop/internal/session"
)

const sessionCookie = "session"

type handler struct {
	sessions session.Service
	api      apiclient.Client
	renderer Renderer
	creds    Credentials
	log      *logrus.Logger
}

// NewHandler returns the frontend router. All dependencies are injected:
// the session service, the API client, the renderer and the credential
// table.
func NewHandler(sessions session.Service, api apiclient.Client, renderer Renderer, creds Credentials, log *logrus.Logger) http.Handler {
	h := &handler{
		sessions: sessions,
		api:      api,
		renderer: renderer,
		creds:    creds,
		log:      log,
	}

	r := mux.NewRouter()
	r.Use(middleware.Recover(log))
	r.Use(middleware.RequestLogging(log))
	r.Use(middleware.Metrics("webserver"))

	r.HandleFunc("/", h.index).Methods(http.MethodGet)
	r.HandleFunc("/products", h.products).Methods(http.MethodGet)
	r.HandleFunc("/product/{id:[0-9]+}", h.productDetail).Methods(http.MethodGet)
	r.HandleFunc("/login", h.login).Methods(http.MethodPost)
	r.HandleFunc("/logout", h.logout).Methods(http.MethodGet)
	r.HandleFunc("/add_to_cart", h.addToCart).Methods(http.MethodPost)

	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(h.notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(h.notFound)

	return r
}

// authenticated reports whether the request carries a session cookie
// with a known token. A missing header, missing cookie and unknown token
// all look the same to callers.
func (h *handler) authenticated(r *http.Request) bool {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return false
	}
	_, ok := h.sessions.Lookup(cookie.Value)
	return ok
}

func (h *handler) index(w http.ResponseWriter, r *http.Request) {
	if h.authenticated(r) {
		http.Redirect(w, r, "/products", http.StatusFound)
		return
	}
	h.renderPage(w, http.StatusOK, "login.html", nil)
}

func (h *handler) products(w http.ResponseWriter, r *http.Request) {
	if !h.authenticated(r) {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	rows, err := h.api.SelectAll(r.Context())
	if err != nil {
		// Matches the original: an API failure renders an empty listing.
		h.log.WithError(err).Error("APIエラー")
		rows = nil
	}

	products := make([]productView, 0, len(rows))
	for _, row := range rows {
		if p, ok := productFromRow(row); ok {
			products = append(products, p)
		}
	}

	h.renderPage(w, http.StatusOK, "products.html", map[string]any{"Products": products})
}

func (h *handler) productDetail(w http.ResponseWriter, r *http.Request) {
	if !h.authenticated(r) {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	id := mux.Vars(r)["id"]
	rows, err := h.api.Select(r.Context(), map[string]string{"id": id})
	if err != nil {
		h.log.WithError(err).Error("APIエラー")
	}
	if err != nil || len(rows) == 0 {
		h.notFoundProduct(w)
		return
	}

	product, ok := productFromRow(rows[0])
	if !ok {
		h.notFoundProduct(w)
		return
	}
	h.renderPage(w, http.StatusOK, "product_detail.html", product)
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	if !h.creds.Verify(username, password) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("認証に失敗しました"))
		return
	}

	token := h.sessions.Create(username)
	http.SetCookie(w, &http.Cookie{
		Name:  sessionCookie,
		Value: token,
		Path:  "/",
	})
	http.Redirect(w, r, "/products", http.StatusFound)
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		h.sessions.Destroy(cookie.Value)
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// addToCart is a deliberate stub: no cart state exists, the handler only
// bounces back to the product's detail page.
func (h *handler) addToCart(w http.ResponseWriter, r *http.Request) {
	if !h.authenticated(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	productID := r.PostFormValue("product_id")
	http.Redirect(w, r, "/product/"+productID, http.StatusFound)
}

func (h *handler) notFound(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte("ページが見つかりません"))
}

func (h *handler) notFoundProduct(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte("商品が見つかりません"))
}

func (h *handler) renderPage(w http.ResponseWriter, status int, name string, data any) {
	markup, err := h.renderer.Render(name, data)
	if err != nil {
		h.log.WithError(err).WithField("template", name).Error("render failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(markup)
}
