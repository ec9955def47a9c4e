package ui

import (
	"io"
	"net/http"
)

// Handler serves the status page at "/".
func Handler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, htmlPage)
}

// Go raw string (`...`) – no JS template literals (backticks) inside.
const htmlPage = `<!doctype html>
<html>
<head>
  <meta charset="utf-8">
  <title>Edge Status</title>
  <style>
    body { font-family: system-ui, sans-serif; margin: 0; padding: 24px; }
    footer { position: fixed; bottom: 0; left: 0; right: 0; padding: 8px 16px; border-top: 1px solid #ddd; font-size: 13px; color: #555; }
    #cfs { cursor: pointer; }
    #cfs.fallback { color: #f44; }
    #history { font-size: 12px; border-collapse: collapse; }
    #history td { padding: 2px 8px; border-bottom: 1px solid #eee; }
  </style>
</head>
<body>
  <h2>Recent refreshes</h2>
  <table id="history"><tbody></tbody></table>
  <footer>
    <span id="time"></span>
    <span id="cfs"></span>
  </footer>

<script>
const versions = { cfs: -1, time: -1 };

function setText(id, text) {
  document.getElementById(id).textContent = text;
}

function setStatus(t, fallback) {
  versions.cfs = t.version;
  setText('cfs', t.text);
  document.getElementById('cfs').classList.toggle('fallback', fallback);
}

async function loadTargets() {
  try {
    const res = await fetch('/api/targets');
    if (!res.ok) return;
    const t = await res.json();
    if (t.cfs.version !== versions.cfs) {
      setStatus(t.cfs, t.fallback);
    }
    if (t.time.version !== versions.time) {
      versions.time = t.time.version;
      setText('time', t.time.text);
    }
  } catch (err) {
    console.error('load targets: ', err);
  }
}

async function loadHistory() {
  const res = await fetch('/api/snapshots?limit=20');
  if (!res.ok) return;
  const snaps = await res.json();
  const tbody = document.querySelector('#history tbody');
  tbody.innerHTML = '';
  snaps.reverse().forEach(function(s) {
    const tr = document.createElement('tr');
    const cells = [new Date(s.startedAt).toLocaleTimeString(), s.durationMs + ' ms', s.status, s.errorKind || ''];
    cells.forEach(function(c) {
      const td = document.createElement('td');
      td.textContent = c;
      tr.appendChild(td);
    });
    tbody.appendChild(tr);
  });
}

document.getElementById('cfs').addEventListener('click', async function() {
  const res = await fetch('/api/click', { method: 'POST' });
  if (!res.ok) return;
  const t = await res.json();
  setStatus(t, t.fallback);
});

loadTargets();
loadHistory();
setInterval(loadTargets, 2000);
setInterval(loadHistory, 10000);
</script>
</body>
</html>`
