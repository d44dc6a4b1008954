package webapp

const indexHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Maternal Mortality Forecast</title>
  <script src="https://cdn.jsdelivr.net/npm/chart.js@4.4.1/dist/chart.umd.min.js"></script>
  <style>
    :root {
      --bg: radial-gradient(120% 120% at 15% 20%, rgba(99, 102, 241, 0.18), transparent 50%),
             radial-gradient(100% 100% at 80% 0%, rgba(236, 72, 153, 0.16), transparent 40%),
             #0f172a;
      --panel: rgba(255, 255, 255, 0.04);
      --panel-strong: rgba(255, 255, 255, 0.1);
      --text: #e2e8f0;
      --muted: #94a3b8;
      --accent: #6366f1;
      --accent-2: #ec4899;
      --low: #34d399;
      --medium: #fbbf24;
      --high: #f43f5e;
      --shadow: 0 25px 60px rgba(0,0,0,0.35);
      --radius: 18px;
      font-family: "Space Grotesk", "Segoe UI", "Helvetica Neue", sans-serif;
    }
    * { box-sizing: border-box; }
    body {
      margin: 0;
      min-height: 100vh;
      background: var(--bg);
      color: var(--text);
      display: flex;
      align-items: center;
      justify-content: center;
      padding: 32px 16px;
    }
    .shell {
      width: min(1100px, 100%);
      background: var(--panel);
      border: 1px solid rgba(255,255,255,0.06);
      border-radius: var(--radius);
      padding: 28px;
      box-shadow: var(--shadow);
      backdrop-filter: blur(10px);
    }
    header {
      display: flex;
      align-items: center;
      justify-content: space-between;
      gap: 16px;
      margin-bottom: 20px;
    }
    .title { font-size: 28px; font-weight: 700; letter-spacing: 0.3px; }
    .layout {
      display: grid;
      gap: 18px;
      grid-template-columns: minmax(260px, 1fr) 2fr;
    }
    .card {
      background: var(--panel-strong);
      border: 1px solid rgba(255,255,255,0.06);
      border-radius: var(--radius);
      padding: 20px;
      box-shadow: inset 0 1px 0 rgba(255,255,255,0.08);
    }
    label { display: block; color: var(--muted); font-size: 14px; margin: 12px 0 6px; }
    input[type=number] {
      width: 100%;
      padding: 10px 12px;
      border-radius: 10px;
      border: 1px solid rgba(255,255,255,0.08);
      background: rgba(255,255,255,0.03);
      color: var(--text);
    }
    input[type=range] { width: 100%; accent-color: var(--accent); }
    .cta {
      margin-top: 18px;
      width: 100%;
      background: linear-gradient(120deg, var(--accent), var(--accent-2));
      border: none;
      border-radius: 12px;
      color: #0b1221;
      font-weight: 700;
      padding: 12px 16px;
      cursor: pointer;
    }
    .cta:disabled { opacity: 0.5; cursor: wait; }
    .link { background: none; border: none; color: var(--muted); cursor: pointer; text-decoration: underline; }
    #loader { display: none; color: var(--muted); margin-top: 10px; }
    .chart-box { position: relative; height: 380px; }
    .result { margin-top: 18px; transition: opacity 240ms ease; }
    .hidden { display: none; opacity: 0; }
    .visible { opacity: 1; }
    .badge { padding: 6px 12px; border-radius: 999px; font-weight: 600; font-size: 14px; }
    .badge.low { background: rgba(52,211,153,0.15); color: var(--low); }
    .badge.medium { background: rgba(251,191,36,0.15); color: var(--medium); }
    .badge.high { background: rgba(244,63,94,0.15); color: var(--high); }
    .muted { color: var(--muted); }
    @media (max-width: 760px) {
      .layout { grid-template-columns: 1fr; }
      header { flex-direction: column; align-items: flex-start; }
    }
  </style>
</head>
<body data-session="{{.Session}}">
  <div class="shell">
    <header>
      <div class="title">Maternal Mortality Forecast</div>
      <button class="link" id="resetBtn">Start over</button>
    </header>
    <div class="layout">
      <form class="card" id="predictionForm">
        <label for="year">Year</label>
        <input type="number" id="year" value="2025" step="1" required>
        <label for="skilled_birth_attendance">Skilled birth attendance (%)</label>
        <input type="number" id="skilled_birth_attendance" min="0" max="100" step="0.1" value="75">
        <input type="range" id="sba_slider" min="0" max="100" step="0.1">
        <label for="antenatal_care_coverage">Antenatal care coverage (%)</label>
        <input type="number" id="antenatal_care_coverage" min="0" max="100" step="0.1" value="85">
        <input type="range" id="anc_slider" min="0" max="100" step="0.1">
        <label for="health_spending">Health spending per capita</label>
        <input type="number" id="health_spending" min="0" step="0.01" value="65">
        <button class="cta" id="predictBtn" type="submit">Predict</button>
        <div id="loader">Predicting…</div>
        <div class="result hidden" id="resultBox">
          <div class="muted">Prediction for <span id="resYear"></span></div>
          <div style="font-size: 30px; font-weight: 700; margin: 6px 0;"><span id="resMMR"></span> <span class="muted" style="font-size: 14px;">per 100k live births</span></div>
          <span class="badge" id="resRisk"></span>
        </div>
      </form>
      <div class="card">
        <div class="chart-box"><canvas id="trendsChart"></canvas></div>
      </div>
    </div>
  </div>
  <script>
    document.addEventListener('DOMContentLoaded', () => {
      const sbaInput = document.getElementById('skilled_birth_attendance');
      const ancInput = document.getElementById('antenatal_care_coverage');

      function sync(input, slider) {
        slider.value = input.value || 0;
        input.addEventListener('input', () => slider.value = input.value);
        slider.addEventListener('input', () => input.value = slider.value);
      }
      sync(sbaInput, document.getElementById('sba_slider'));
      sync(ancInput, document.getElementById('anc_slider'));

      // Each page load owns one server-side session; the server may hand out a
      // new id (after a reset or once an idle session expired).
      let sessionId = document.body.dataset.session;
      async function api(path, opts = {}) {
        opts.headers = Object.assign({}, opts.headers, { 'X-Session-ID': sessionId });
        const response = await fetch(path, opts);
        sessionId = response.headers.get('X-Session-ID') || sessionId;
        return response;
      }

      const ctx = document.getElementById('trendsChart').getContext('2d');
      let trendsChart = null;

      const options = {
        responsive: true,
        maintainAspectRatio: false,
        plugins: { legend: { labels: { color: '#94a3b8' } } },
        scales: {
          y: {
            grid: { color: 'rgba(255,255,255,0.05)' },
            ticks: { color: '#94a3b8' },
            title: { display: true, text: 'Maternal Mortality Ratio', color: '#94a3b8' }
          },
          x: { grid: { display: false }, ticks: { color: '#94a3b8' } }
        }
      };

      // The server owns the overlay; drawing replaces labels and data wholesale.
      function draw(config) {
        if (!trendsChart) {
          trendsChart = new Chart(ctx, { type: 'line', data: config, options: options });
          return;
        }
        trendsChart.data.labels = config.labels;
        config.datasets.forEach((ds, i) => { trendsChart.data.datasets[i].data = ds.data; });
        trendsChart.update();
      }

      async function loadChart() {
        try {
          const response = await api('/api/chart');
          const data = await response.json();
          if (!response.ok) {
            throw new Error(data.error);
          }
          draw(data);
        } catch (error) {
          console.error('Error loading history:', error);
        }
      }

      loadChart();

      const form = document.getElementById('predictionForm');
      const btn = document.getElementById('predictBtn');
      const loader = document.getElementById('loader');
      const resultBox = document.getElementById('resultBox');

      form.addEventListener('submit', async (e) => {
        e.preventDefault();
        btn.disabled = true;
        loader.style.display = 'block';
        resultBox.classList.add('hidden');
        resultBox.classList.remove('visible');

        const formData = {
          year: parseInt(document.getElementById('year').value),
          skilled_birth_attendance: parseFloat(sbaInput.value),
          antenatal_care_coverage: parseFloat(ancInput.value),
          health_spending: parseFloat(document.getElementById('health_spending').value)
        };

        try {
          const response = await api('/api/submit', {
            method: 'POST',
            headers: { 'Content-Type': 'application/json' },
            body: JSON.stringify(formData)
          });
          const result = await response.json();
          if (response.ok) {
            showResult(result.summary);
            if (result.chart) {
              draw(result.chart);
            }
          } else {
            alert('Error: ' + result.error);
          }
        } catch (error) {
          console.error('Prediction failed:', error);
          alert('Failed to connect to server.');
        } finally {
          btn.disabled = false;
          loader.style.display = 'none';
        }
      });

      function showResult(summary) {
        document.getElementById('resYear').textContent = summary.year;
        document.getElementById('resMMR').textContent = summary.mmrText;
        const badge = document.getElementById('resRisk');
        badge.textContent = summary.riskLevel;
        badge.className = 'badge ' + summary.badge;
        resultBox.classList.remove('hidden');
        setTimeout(() => resultBox.classList.add('visible'), 10);
      }

      document.getElementById('resetBtn').addEventListener('click', async () => {
        await api('/api/reset', { method: 'POST' });
        resultBox.classList.add('hidden');
        if (trendsChart) {
          trendsChart.destroy();
          trendsChart = null;
        }
        loadChart();
      });
    });
  </script>
</body>
</html>`
