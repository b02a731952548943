package i18n

import "net/http"

// Middleware injects a localizer into every request context. The deployment
// default language is used unless the request asks for another via the
// ?lang= query parameter or the Accept-Language header.
func Middleware(defaultLang string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := defaultLang
			if q := r.URL.Query().Get("lang"); q != "" {
				lang = q
			} else if al := r.Header.Get("Accept-Language"); al != "" {
				lang = al
			}
			ctx := WithLocalizer(r.Context(), NewLocalizer(lang, defaultLang))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
