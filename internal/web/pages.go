package web

import (
	"crypto/sha256"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/sessions"
	"golang.org/x/crypto/hkdf"

	"github.com/p-n-ai/f1-academy/internal/academy"
	"github.com/p-n-ai/f1-academy/internal/session"
)

const (
	cookieName = "academy"
	cookieSID  = "sid"
)

//go:embed templates/*.html
var templateFS embed.FS

type pages struct {
	reg     *session.Registry
	cookies *sessions.CookieStore
	tmpl    *template.Template
}

type pageData struct {
	View   academy.View
	Flash  string
	Reload bool
}

func newPages(reg *session.Registry, opts Options) (*pages, error) {
	hashKey, blockKey, err := cookieKeys(opts.CookieSecret)
	if err != nil {
		return nil, err
	}
	store := sessions.NewCookieStore(hashKey, blockKey)
	// MaxAge 0 makes a browser-session cookie: closing the browser drops it.
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   0,
		HttpOnly: true,
		Secure:   opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"letter": func(i int) string { return string(rune('A' + i)) },
		"pct":    func(f float64) string { return strconv.FormatFloat(f, 'f', 1, 64) },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	return &pages{reg: reg, cookies: store, tmpl: tmpl}, nil
}

// cookieKeys derives the HMAC and AES keys for the cookie store from one
// secret.
func cookieKeys(secret string) (hashKey, blockKey []byte, err error) {
	if secret == "" {
		return nil, nil, errors.New("cookie secret is empty")
	}
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte("f1-academy cookie keys"))
	hashKey = make([]byte, 64)
	blockKey = make([]byte, 32)
	if _, err := io.ReadFull(r, hashKey); err != nil {
		return nil, nil, fmt.Errorf("deriving cookie keys: %w", err)
	}
	if _, err := io.ReadFull(r, blockKey); err != nil {
		return nil, nil, fmt.Errorf("deriving cookie keys: %w", err)
	}
	return hashKey, blockKey, nil
}

// viewerSession returns the session bound to the request cookie, creating
// one when the cookie is missing or its session expired.
func (p *pages) viewerSession(w http.ResponseWriter, r *http.Request) (*session.Session, *sessions.Session, error) {
	cs, err := p.cookies.Get(r, cookieName)
	if err != nil {
		// Undecodable cookie (e.g. rotated secret): start over.
		slog.Debug("discarding page cookie", "error", err)
	}

	if sid, ok := cs.Values[cookieSID].(string); ok {
		if s, err := p.reg.Get(sid); err == nil {
			return s, cs, nil
		}
	}

	s := p.reg.Create()
	cs.Values[cookieSID] = s.ID
	if err := cs.Save(r, w); err != nil {
		return nil, nil, fmt.Errorf("saving page cookie: %w", err)
	}
	return s, cs, nil
}

// Index renders the viewer's current screen.
func (p *pages) Index(w http.ResponseWriter, r *http.Request) {
	s, cs, err := p.viewerSession(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := pageData{View: s.View()}
	if flashes := cs.Flashes(); len(flashes) > 0 {
		data.Flash, _ = flashes[0].(string)
		if err := cs.Save(r, w); err != nil {
			slog.Warn("clearing flash failed", "error", err)
		}
	}
	if m := data.View.Module; m != nil && m.Visualize != nil && !m.Visualize.Revealed {
		data.Reload = true
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := p.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.Error("rendering page", "session_id", s.ID, "error", err)
	}
}

// Action applies a form-submitted action and redirects back to Index.
func (p *pages) Action(w http.ResponseWriter, r *http.Request) {
	s, cs, err := p.viewerSession(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}

	a, err := formAction(r)
	if err == nil {
		_, err = s.Apply(a)
	}
	if err != nil {
		cs.AddFlash(err.Error())
		if err := cs.Save(r, w); err != nil {
			slog.Warn("saving flash failed", "error", err)
		}
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Reset discards the viewer's session, as closing the page would.
func (p *pages) Reset(w http.ResponseWriter, r *http.Request) {
	cs, _ := p.cookies.Get(r, cookieName)
	if sid, ok := cs.Values[cookieSID].(string); ok {
		_ = p.reg.Delete(sid)
	}
	cs.Options.MaxAge = -1
	if err := cs.Save(r, w); err != nil {
		slog.Warn("deleting page cookie failed", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func formAction(r *http.Request) (session.Action, error) {
	a := session.Action{
		Type: session.ActionType(r.PostFormValue("type")),
		Tab:  r.PostFormValue("tab"),
	}
	if v := r.PostFormValue("module"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return a, fmt.Errorf("module must be a number")
		}
		a.Module = n
	}
	if v := r.PostFormValue("option"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return a, fmt.Errorf("option must be a number")
		}
		a.Option = &n
	}
	return a, nil
}
