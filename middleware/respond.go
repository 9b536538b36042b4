package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"

	authgate "github.com/casterhq/authgate"
	"github.com/casterhq/authgate/ratelimit"
)

type errorBody struct {
	Error string `json:"error"`
}

// writeError renders err per the engine's taxonomy. Internal-class errors
// get a generic body; everything else keeps its caller-facing message.
func writeError(w http.ResponseWriter, err error) {
	status := authgate.HTTPStatus(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: msg})
}

func setRateLimitHeaders(w http.ResponseWriter, res ratelimit.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(res.Limit, 10))
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
}

func writeRateLimited(w http.ResponseWriter, res ratelimit.Result) {
	setRateLimitHeaders(w, res)

	retryAfter := int64(1)
	if secs := res.ResetAt.Unix() - nowUnix(); secs > retryAfter {
		retryAfter = secs
	}
	w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(errorBody{Error: "too many requests, try again later"})
}
