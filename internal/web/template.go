package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"strings"
	"time"

	"github.com/sweeney/round-timer/internal/status"
	"github.com/sweeney/round-timer/internal/workout"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"phaseClass": func(p workout.Phase) string {
		if p == "" {
			return "idle"
		}
		return strings.ToLower(string(p))
	},
	"join": strings.Join,
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Round Timer</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
#clock { font-size: 4em; text-align: center; margin: 0.3em 0; }
#phase { text-align: center; font-weight: bold; }
.idle { color: #888; }
.countdown { color: orange; }
.round { color: green; }
.rest { color: steelblue; }
.done { color: purple; }
.connected { color: green; }
.disconnected { color: red; }
.controls { text-align: center; }
button { font-family: monospace; font-size: 1em; padding: 4px 10px; margin: 2px; }
</style>
</head>
<body>
<h1>Round Timer</h1>

<div id="phase" class="{{phaseClass .Workout.Phase}}">{{with .Workout.Phase}}{{.}}{{else}}IDLE{{end}}{{if .Workout.Paused}} (paused){{end}}</div>
<div id="clock">{{with .Countdown}}{{.}}{{else}}{{.Workout.DisplayTimeLeft}}{{end}}</div>
<div id="round" style="text-align:center">round {{.Workout.Round}} / {{.Workout.DisplayRounds}}</div>

<p class="controls">
<button data-intent="start">Start</button>
<button data-intent="toggle-pause">Pause</button>
<button data-intent="end">End</button>
<button data-intent="close">Close</button>
</p>

<h2>Workout</h2>
<table>
<tr><th>Round length</th><td><span id="round-length">{{.Workout.DisplayRoundLength}}</span>
 <button data-intent="round-length-down">-</button><button data-intent="round-length-up">+</button></td></tr>
<tr><th>Rest length</th><td><span id="rest-length">{{.Workout.DisplayRestLength}}</span>
 <button data-intent="rest-length-down">-</button><button data-intent="rest-length-up">+</button></td></tr>
<tr><th>Rounds</th><td><span id="rounds">{{.Workout.DisplayRounds}}</span>
 <button data-intent="rounds-down">-</button><button data-intent="rounds-up">+</button></td></tr>
<tr><th>Total</th><td id="total">{{.Workout.DisplayTotalTime}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Counts</h2>
<table>
<tr><th>Workouts started</th><td>{{.Counts.Started}}</td></tr>
<tr><th>Completed</th><td>{{.Counts.Completed}}</td></tr>
<tr><th>Ended early</th><td>{{.Counts.Ended}}</td></tr>
<tr><th>Button presses</th><td>start {{.Presses.Start}}, pause {{.Presses.Pause}}, end {{.Presses.End}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Buttons</th><td>{{if .Baselined}}ready{{else}}not ready{{end}}</td></tr>
<tr><th>Cues</th><td>{{if .Config.Players}}{{join .Config.Players ", "}}{{else}}none{{end}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
<script>
(function() {
  function text(id, v) { document.getElementById(id).textContent = v; }

  function render(s) {
    var w = s.workout, cfg = s.settings;
    var phase = document.getElementById("phase");
    phase.textContent = w.phase + (w.paused ? " (paused)" : "");
    phase.className = w.phase.toLowerCase();
    text("clock", w.countdown !== undefined ? w.countdown : w.time_left_display);
    text("round", "round " + w.round + " / " + w.rounds);
    text("rounds", cfg.rounds);
    text("total", cfg.total_display);
    text("round-length", fmt(cfg.round_length));
    text("rest-length", fmt(cfg.rest_length));
  }

  function fmt(n) {
    var m = Math.floor(n / 60), s = n % 60;
    return (m < 10 ? "0" : "") + m + ":" + (s < 10 ? "0" : "") + s;
  }

  function poll() {
    fetch("/index.json").then(function(r) { return r.json(); })
      .then(function(j) { render(j.status); })
      .catch(function() {});
  }

  document.querySelectorAll("button[data-intent]").forEach(function(b) {
    b.addEventListener("click", function() {
      fetch("/api/intents/" + b.dataset.intent, { method: "POST" }).then(poll);
    });
  });

  setInterval(poll, 500);
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime    time.Duration
		Countdown *int
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	if n, ok := snap.Workout.CountdownValue(); ok {
		data.Countdown = &n
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("http: render index: %v", err)
	}
}
