package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/hollis/tms-stand/internal/status"
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
	"us": func(d time.Duration) int64 {
		return d.Microseconds()
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>TMS Stand</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.armed { color: red; font-weight: bold; }
.open { color: green; }
.idle { color: #888; }
.active { color: #c60; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
.problem { color: red; }
</style>
</head>
<body>
<h1>TMS Stand</h1>

<h2>State</h2>
<table>
<tr><th>Session</th><td class="{{if eq (printf "%s" .State) "IDLE"}}idle{{else}}active{{end}}">{{.State}}</td></tr>
<tr><th>Relay</th><td class="{{if .RelayEnergized}}armed{{else}}open{{end}}">{{if .RelayEnergized}}ENERGIZED{{else}}OPEN{{end}}</td></tr>
<tr><th>Ready</th><td>{{if .Health.SessionsAllowed}}yes{{else}}<span class="problem">no</span>{{end}}</td></tr>
{{range .Health.Problems}}<tr><th></th><td class="problem">{{.}}</td></tr>
{{end}}</table>

<h2>Sessions</h2>
<table>
<tr><th>Completed</th><td>{{.SessionsDone}}</td></tr>
<tr><th>Trigger attempts</th><td>{{.Debounce.Attempts}} ({{.Debounce.Confirmed}} confirmed, {{.Debounce.Rejected}} rejected)</td></tr>
{{if .LastSession}}<tr><th>Last file</th><td>{{.LastSession.File}}</td></tr>
<tr><th>Last duration</th><td>{{us .LastSession.Duration}}µs</td></tr>
<tr><th>Last samples</th><td>{{.LastSession.Samples}} ({{.LastSession.Overruns}} overruns, {{.LastSession.WriteErrors}} write errors)</td></tr>
<tr><th>Last failsafe</th><td>{{if .LastSession.FailsafeTripped}}<span class="problem">tripped</span>{{else}}clean{{end}}</td></tr>
<tr><th>Last reason</th><td>{{.LastSession.Reason}}</td></tr>{{end}}
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Data dir</th><td>{{.Config.DataDir}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickIntervalUS}}µs</td></tr>
<tr><th>Window</th><td>{{.Config.DurationMS}}ms</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> · <a href="/sessions.json">Sessions</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
