package cli

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"drowse/internal/api"
	pkgstrings "drowse/pkg/strings"
)

const maxErrorWidth = 60

// stateColors maps lifecycle states to terminal colors.
var stateColors = map[api.ServiceState]text.Colors{
	api.StateRunning:  {text.FgGreen},
	api.StateSleeping: {text.FgBlue},
	api.StateStarting: {text.FgYellow},
	api.StateWaking:   {text.FgYellow},
	api.StateStopping: {text.FgYellow},
	api.StateStopped:  {text.FgHiBlack},
	api.StateError:    {text.FgRed, text.Bold},
}

// ColorState renders a state with its terminal color.
func ColorState(s api.ServiceState) string {
	if c, ok := stateColors[s]; ok {
		return c.Sprint(string(s))
	}
	return string(s)
}

// FormatAge renders a timestamp as a compact age such as "3m".
func FormatAge(t *time.Time, now time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return FormatDuration(now.Sub(*t))
}

// FormatDuration renders a duration the way kubectl renders ages.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

func percent(ratio float64) string {
	return strconv.FormatFloat(ratio*100, 'f', 1, 64) + "%"
}

func millis(ms float64) string {
	return strconv.FormatFloat(ms, 'f', 1, 64) + "ms"
}

func (p *Printer) newDetailTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatUpper
	return t
}

// PrintServices renders a service list.
func (p *Printer) PrintServices(services []api.ServiceStatus, now time.Time) error {
	if p.Structured() {
		return p.encode(services)
	}
	if len(services) == 0 {
		fmt.Fprintln(p.out, "No services configured.")
		return nil
	}

	w := NewPlainTableWriter(p.out)
	w.SetNoHeaders(p.options.NoHeaders)
	if p.Wide() {
		w.SetHeaders("name", "state", "priority", "wakes", "last-accessed", "sleeping-for", "container", "port", "cpu", "memory", "error")
	} else {
		w.SetHeaders("name", "state", "priority", "wakes", "last-accessed")
	}

	for _, st := range services {
		cells := []string{
			st.Name,
			ColorState(st.State),
			st.Priority.String(),
			strconv.FormatInt(st.WakeCount, 10),
			FormatAge(st.LastAccessed, now),
		}
		if p.Wide() {
			port := "-"
			if st.Port > 0 {
				port = strconv.Itoa(st.Port)
			}
			cells = append(cells,
				FormatAge(st.SleepStartTime, now),
				pkgstrings.OrDash(shortID(st.ContainerID)),
				port,
				strconv.FormatFloat(st.CPUUsage, 'f', 1, 64)+"%",
				strconv.FormatFloat(st.MemoryUsage, 'f', 1, 64)+"MB",
				pkgstrings.OrDash(pkgstrings.TruncateMessage(st.ErrorMessage, maxErrorWidth)),
			)
		}
		w.AppendRow(cells...)
	}
	w.Render()
	return nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// PrintService renders a single service in detail.
func (p *Printer) PrintService(st api.ServiceStatus, now time.Time) error {
	if p.Structured() {
		return p.encode(st)
	}

	t := p.newDetailTable()
	t.AppendHeader(table.Row{"field", "value"})
	t.AppendRows([]table.Row{
		{"Name", st.Name},
		{"State", ColorState(st.State)},
		{"Priority", st.Priority.String()},
		{"Sleep policy", enabled(st.SleepPolicyEnabled)},
		{"Container", pkgstrings.OrDash(st.ContainerID)},
		{"Last accessed", FormatAge(st.LastAccessed, now)},
		{"Sleeping for", FormatAge(st.SleepStartTime, now)},
		{"Wakes", st.WakeCount},
		{"Total sleep", FormatDuration(time.Duration(st.TotalSleepTime * float64(time.Second)))},
		{"Last wake", millis(st.WakeTimeMs)},
		{"Sleep efficiency", strconv.FormatFloat(st.SleepEfficiency, 'f', 1, 64) + "%"},
		{"Transitions", st.StateTransitions},
	})
	if st.ErrorMessage != "" {
		t.AppendRow(table.Row{"Error", text.FgRed.Sprint(st.ErrorMessage)})
	}
	t.Render()
	return nil
}

func enabled(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

// PrintTransition renders the result of a lifecycle command.
func (p *Printer) PrintTransition(verb string, st api.ServiceStatus) error {
	if p.Structured() {
		return p.encode(st)
	}
	fmt.Fprintf(p.out, "%s %s: %s\n", text.FgGreen.Sprint("✓"), st.Name, ColorState(st.State))
	if st.State == api.StateError && st.ErrorMessage != "" {
		fmt.Fprintf(p.out, "  %s %s\n", text.FgRed.Sprint(verb+" failed:"), st.ErrorMessage)
	}
	return nil
}

// PrintWakeRequest renders an accepted wake request.
func (p *Printer) PrintWakeRequest(accepted api.WakeRequestAccepted) error {
	if p.Structured() {
		return p.encode(accepted)
	}
	fmt.Fprintf(p.out, "%s wake of %s %s (request %s, priority %s)\n",
		text.FgGreen.Sprint("✓"), accepted.Service, accepted.Status, accepted.ID, accepted.Priority)
	return nil
}

// PrintSystemMetrics renders the aggregate lifecycle metrics.
func (p *Printer) PrintSystemMetrics(m api.SystemMetrics) error {
	if p.Structured() {
		return p.encode(m)
	}

	t := p.newDetailTable()
	t.AppendHeader(table.Row{"metric", "value"})
	t.AppendRow(table.Row{"Services", m.TotalServices})
	for _, s := range api.AllStates {
		if n := m.StateCounts[s]; n > 0 {
			t.AppendRow(table.Row{"  " + string(s), n})
		}
	}
	t.AppendRows([]table.Row{
		{"Sleep ratio", percent(m.SleepRatio)},
		{"Running ratio", percent(m.RunningRatio)},
		{"Pending wakes", m.PendingWakes},
		{"Container CPU", strconv.FormatFloat(m.TotalCPUPercent, 'f', 1, 64) + "%"},
		{"Container memory", strconv.FormatFloat(m.TotalMemoryMB, 'f', 1, 64) + "MB"},
		{"Memory pressure", string(m.Pressure)},
	})
	if m.System != nil {
		t.AppendRows([]table.Row{
			{"Host CPU", strconv.FormatFloat(m.System.CPUPercent, 'f', 1, 64) + "%"},
			{"Host memory", fmt.Sprintf("%.1f%% (%.1f/%.1f GB)", m.System.MemoryPercent, m.System.MemoryUsedGB, m.System.MemoryTotalGB)},
		})
	}
	t.Render()
	return nil
}

// PrintPerformance renders performance summaries sorted by service name.
func (p *Printer) PrintPerformance(summaries map[string]api.PerformanceSummary) error {
	if p.Structured() {
		return p.encode(summaries)
	}
	if len(summaries) == 0 {
		fmt.Fprintln(p.out, "No services configured.")
		return nil
	}

	names := make([]string, 0, len(summaries))
	for name := range summaries {
		names = append(names, name)
	}
	sort.Strings(names)

	w := NewPlainTableWriter(p.out)
	w.SetNoHeaders(p.options.NoHeaders)
	if p.Wide() {
		w.SetHeaders("name", "wakes", "wake-avg", "wake-p95", "wake-max", "sleep-avg", "requests", "errors", "efficiency", "last-error")
	} else {
		w.SetHeaders("name", "wakes", "wake-avg", "wake-p95", "requests", "errors", "efficiency")
	}
	for _, name := range names {
		s := summaries[name]
		cells := []string{
			name,
			strconv.Itoa(s.WakeTimes.Count),
			millis(s.WakeTimes.Avg),
			millis(s.WakeTimes.P95),
		}
		if p.Wide() {
			cells = append(cells, millis(s.WakeTimes.Max), millis(s.SleepTimes.Avg))
		}
		cells = append(cells,
			strconv.FormatInt(s.TotalRequests, 10),
			strconv.FormatInt(s.ErrorCount, 10),
			strconv.FormatFloat(s.SleepEfficiency, 'f', 1, 64)+"%",
		)
		if p.Wide() {
			cells = append(cells, pkgstrings.OrDash(pkgstrings.TruncateMessage(s.LastError, maxErrorWidth)))
		}
		w.AppendRow(cells...)
	}
	w.Render()
	return nil
}

// PrintHealth renders the daemon health report.
func (p *Printer) PrintHealth(report api.HealthReport) error {
	if p.Structured() {
		return p.encode(report)
	}
	status := string(report.Status)
	switch report.Status {
	case api.HealthHealthy:
		status = text.FgGreen.Sprint(status)
	case api.HealthUnhealthy:
		status = text.FgRed.Sprint(status)
	default:
		status = text.FgYellow.Sprint(status)
	}
	fmt.Fprintf(p.out, "%s (%d/%d services running)\n", status, report.ServicesRunning, report.ServicesTotal)
	if report.Error != "" {
		fmt.Fprintf(p.out, "  %s\n", report.Error)
	}
	return nil
}

// PrintPerformanceSummary renders the summary of one service.
func (p *Printer) PrintPerformanceSummary(s api.PerformanceSummary) error {
	if p.Structured() {
		return p.encode(s)
	}
	return p.PrintPerformance(map[string]api.PerformanceSummary{s.Service: s})
}

// PrintPrediction renders a wake prediction.
func (p *Printer) PrintPrediction(pred api.WakePrediction) error {
	if p.Structured() {
		return p.encode(pred)
	}
	fmt.Fprintf(p.out, "%s: %s chance of being needed soon\n", pred.Service, percent(pred.Probability))
	return nil
}
