// Package oauth receives osu! OAuth tokens delivered by the web login flow.
// The flow ends with a redirect carrying a base64-encoded JSON token payload
// in the "data" query parameter; Handler decodes it and hands the token to
// the application.
package oauth

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Token is the payload delivered by the login flow's redirect.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Handler returns the callback route. onToken is called once per valid
// redirect with the decoded token.
func Handler(onToken func(Token)) http.Handler {
	r := chi.NewRouter()
	r.Get("/callback", callback(onToken))
	return r
}

func callback(onToken func(Token)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := r.URL.Query().Get("data")
		if data == "" {
			http.Error(w, "missing data parameter", http.StatusBadRequest)
			return
		}
		decoded, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			http.Error(w, "malformed data parameter", http.StatusBadRequest)
			return
		}
		var tok Token
		if err := json.Unmarshal(decoded, &tok); err != nil {
			http.Error(w, "malformed token payload", http.StatusBadRequest)
			return
		}
		if tok.AccessToken == "" {
			http.Error(w, "missing access token", http.StatusBadRequest)
			return
		}
		onToken(tok)

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Login complete. You can close this window."))
	}
}
