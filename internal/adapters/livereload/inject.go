package livereload

import (
	"bytes"
	"net/http"
	"strings"
)

// maxInjectSize bounds the buffered HTML body; larger responses pass through.
const maxInjectSize = 512 * 1024

// injectScript is a middleware that adds the livereload client to HTML pages.
func injectScript(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isHTMLPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		inj := &injector{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(inj, r)
		inj.finalize()
	})
}

func isHTMLPath(p string) bool {
	return p == "" || strings.HasSuffix(p, "/") || strings.HasSuffix(p, ".html")
}

// injector buffers an HTML response so the script tag can be placed before
// </body>. Non-HTML or oversized responses switch to passthrough.
type injector struct {
	http.ResponseWriter
	statusCode    int
	buffer        []byte
	headerWritten bool
	passthrough   bool
	started       bool
}

func (i *injector) WriteHeader(code int) {
	i.statusCode = code
	if i.passthrough {
		i.ResponseWriter.WriteHeader(code)
		i.headerWritten = true
	}
}

func (i *injector) Write(data []byte) (int, error) {
	if !i.started {
		i.started = true
		ct := i.Header().Get("Content-Type")
		if (ct != "" && !strings.Contains(ct, "text/html")) || i.statusCode != http.StatusOK {
			i.startPassthrough()
		}
	}

	if i.passthrough {
		return i.ResponseWriter.Write(data)
	}

	if len(i.buffer)+len(data) > maxInjectSize {
		i.startPassthrough()
		if len(i.buffer) > 0 {
			if _, err := i.ResponseWriter.Write(i.buffer); err != nil {
				return 0, err
			}
			i.buffer = nil
		}
		return i.ResponseWriter.Write(data)
	}

	i.buffer = append(i.buffer, data...)
	return len(data), nil
}

func (i *injector) startPassthrough() {
	i.passthrough = true
	if !i.headerWritten {
		i.Header().Del("Content-Length")
		i.ResponseWriter.WriteHeader(i.statusCode)
		i.headerWritten = true
	}
}

// finalize must be called after the wrapped handler returns.
func (i *injector) finalize() {
	if i.passthrough {
		return
	}
	if len(i.buffer) == 0 {
		if !i.headerWritten {
			i.ResponseWriter.WriteHeader(i.statusCode)
		}
		return
	}

	body := i.buffer
	if idx := bytes.LastIndex(body, []byte("</body>")); idx >= 0 {
		out := make([]byte, 0, len(body)+len(scriptTag))
		out = append(out, body[:idx]...)
		out = append(out, scriptTag...)
		out = append(out, body[idx:]...)
		body = out
	} else {
		body = append(body, scriptTag...)
	}

	i.Header().Del("Content-Length")
	i.ResponseWriter.WriteHeader(i.statusCode)
	_, _ = i.ResponseWriter.Write(body)
}
