package middlewares

import "net/http"

// respRecorder guarda el primer status escrito y los bytes del body. Lo usan
// logging y metrics.
type respRecorder struct {
	http.ResponseWriter
	code  int
	size  int
	wrote bool
}

func newRecorder(w http.ResponseWriter) *respRecorder {
	return &respRecorder{ResponseWriter: w, code: http.StatusOK}
}

func (rr *respRecorder) WriteHeader(code int) {
	if !rr.wrote {
		rr.code, rr.wrote = code, true
		rr.ResponseWriter.WriteHeader(code)
	}
}

func (rr *respRecorder) Write(b []byte) (int, error) {
	rr.wrote = true
	n, err := rr.ResponseWriter.Write(b)
	rr.size += n
	return n, err
}

// Unwrap permite a http.ResponseController llegar al writer original.
func (rr *respRecorder) Unwrap() http.ResponseWriter { return rr.ResponseWriter }
