package livereload

// ClientScript is served at /livereload.js and injected into every HTML page.
const ClientScript = `(() => {
  if (window.__KILN_LR__) return;
  window.__KILN_LR__ = true;
  function connect() {
    const es = new EventSource('/livereload');
    es.onmessage = (e) => {
      if (e.data === 'reload') {
        console.log('[kiln] change detected, reloading');
        location.reload();
      }
    };
    es.onerror = () => {
      es.close();
      setTimeout(connect, 2000);
    };
  }
  connect();
})();
`

// scriptTag is inserted before the closing body tag of HTML responses.
const scriptTag = `<script async src="/livereload.js"></script>`
