package handlers

import (
	"log"
	"net/http"
)

// respondWithError logs err (if any) against the request and sends userMsg
func respondWithError(w http.ResponseWriter, r *http.Request, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s %s: %s: %v", r.Method, r.URL.Path, logMsg, err)
	}

	http.Error(w, userMsg, status)
}

// redirect sends a See Other redirect, the response to every successful POST
func redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}
