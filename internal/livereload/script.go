package livereload

import (
	"bytes"
	"net/http"
)

// Script reconnects on error and reloads the page when a new hash arrives.
const Script = `(() => {
  if (window.__SITEFORGE_LR__) return;
  window.__SITEFORGE_LR__ = true;
  function connect() {
    const es = new EventSource('` + EventsPath + `');
    let current = null;
    es.onmessage = (e) => {
      try {
        const p = JSON.parse(e.data);
        if (current === null) { current = p.hash; return; }
        if (p.hash && p.hash !== current) { location.reload(); }
      } catch (_) {}
    };
    es.onerror = () => { es.close(); setTimeout(connect, 2000); };
  }
  connect();
})();
`

// Tag is the element injected into served HTML pages.
const Tag = `<script src="` + ScriptPath + `"></script>`

// ScriptHandler serves Script.
func ScriptHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write([]byte(Script))
	})
}

// Inject inserts Tag before the last </body>, or appends it when the page has
// no body close tag.
func Inject(page []byte) []byte {
	idx := bytes.LastIndex(page, []byte("</body>"))
	if idx < 0 {
		idx = bytes.LastIndex(page, []byte("</BODY>"))
	}
	out := make([]byte, 0, len(page)+len(Tag))
	if idx < 0 {
		out = append(out, page...)
		return append(out, Tag...)
	}
	out = append(out, page[:idx]...)
	out = append(out, Tag...)
	return append(out, page[idx:]...)
}
