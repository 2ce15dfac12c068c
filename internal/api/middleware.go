package api

import (
	"fmt"
	"net/http"
)

func (s *RelayApp) errorHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				var panicError error
				switch e := err.(type) {
				case error:
					panicError = e
				default:
					panicError = fmt.Errorf("%v", e)
				}
				s.log.Printf("panic: %v", panicError)
				w.Header().Set("Connection", "close")
				s.writeJson(w, http.StatusInternalServerError, errorResponse("internal server error"))
				return
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// authMiddleware rejects trigger requests that do not carry a validly signed
// bearer credential. No relay state changes on rejection.
func (s *RelayApp) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := bearerToken(r)
		if err != nil {
			s.log.Println("authorization header:", err)
			s.writeJson(w, http.StatusUnauthorized, errorResponse("Unauthorized"))
			return
		}

		if err := s.verifyToken(tokenString); err != nil {
			s.log.Println("verify token:", err)
			s.writeJson(w, http.StatusUnauthorized, errorResponse("Unauthorized"))
			return
		}

		next(w, r)
	}
}
