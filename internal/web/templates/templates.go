// Package templates renders the decoder's HTML pages and HTMX fragments.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/setdecoder/internal/core"
	"github.com/JonMunkholm/setdecoder/internal/history"
	"github.com/JonMunkholm/setdecoder/internal/workspace"
	"github.com/a-h/templ"
)

// HTMXScript is the only external script the pages load.
const HTMXScript = "https://unpkg.com/htmx.org@2.0.4"

// DashboardData feeds the dashboard page.
type DashboardData struct {
	Status         workspace.Status
	Presets        []string
	HistoryEnabled bool
}

// printer writes formatted HTML and keeps the first error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) render(ctx context.Context, c templ.Component) {
	if p.err != nil {
		return
	}
	p.err = c.Render(ctx, p.w)
}

func esc(s string) string {
	return templ.EscapeString(s)
}

// Layout wraps body in the page shell.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.printf(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		p.printf(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		p.printf(`<title>%s</title><script src="%s"></script></head>`, esc(title), HTMXScript)
		p.printf(`<body><main class="container"><h1>%s</h1>`, esc(title))
		p.render(ctx, body)
		p.printf(`</main></body></html>`)
		return p.err
	})
}

// Dashboard is the single page driving a decoding session.
func Dashboard(d DashboardData) templ.Component {
	return Layout("Set Decoder", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.printf(`<div id="alerts"></div><section id="status">`)
		p.render(ctx, StatusPanel(d.Status))
		p.printf(`</section>`)

		p.printf(`<section><h2>1. Master file</h2>`)
		p.printf(`<form hx-post="/api/master" hx-encoding="multipart/form-data" hx-target="#status" hx-target-error="#alerts">`)
		p.printf(`<input type="file" name="file" accept=".xlsx"><button type="submit">Load master</button></form>`)
		p.printf(`<a href="/api/template/master">Download template</a></section>`)

		p.printf(`<section><h2>2. Orders</h2>`)
		p.printf(`<form hx-post="/api/orders" hx-encoding="multipart/form-data" hx-target="#status" hx-target-error="#alerts">`)
		p.printf(`<input type="file" name="files" accept=".csv" multiple><select name="preset">`)
		for _, name := range d.Presets {
			selected := ""
			if strings.EqualFold(name, d.Status.ColumnPreset) {
				selected = " selected"
			}
			p.printf(`<option value="%s"%s>%s</option>`, esc(name), selected, esc(name))
		}
		p.printf(`</select><button type="submit">Load orders</button></form></section>`)

		p.printf(`<section><h2>3. Missing SKUs</h2>`)
		p.printf(`<button hx-post="/api/identifiers/preview" hx-target="#identifiers">Preview generated SKUs</button>`)
		p.printf(`<div id="identifiers"></div></section>`)

		p.printf(`<section><h2>4. Add a line</h2>`)
		p.printf(`<form hx-post="/api/lines" hx-target="#status" hx-target-error="#alerts">`)
		p.printf(`<input name="orderId" placeholder="#1001"><input name="sku" placeholder="SKU">`)
		p.printf(`<input name="quantity" type="number" min="1" value="1"><button type="submit">Add</button></form></section>`)

		p.printf(`<section><h2>5. Review and export</h2>`)
		p.printf(`<button hx-get="/api/review" hx-target="#review">Review</button>`)
		p.printf(`<a href="/api/export">Download processed_orders.csv</a><div id="review"></div></section>`)

		if d.HistoryEnabled {
			p.printf(`<section><h2>History</h2><div hx-get="/api/history" hx-trigger="load" hx-target="this"></div></section>`)
		}
		return p.err
	}))
}

// StatusPanel summarizes the workspace.
func StatusPanel(s workspace.Status) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.printf(`<dl class="status">`)
		if s.MasterLoaded {
			p.printf(`<dt>Master</dt><dd>%s: %d products, %d sets, %d rules</dd>`,
				esc(s.MasterName), s.Products, s.Bundles, s.Rules)
		} else {
			p.printf(`<dt>Master</dt><dd>not loaded</dd>`)
		}
		if s.OrdersLoaded {
			p.printf(`<dt>Orders</dt><dd>%s: %d lines</dd>`, esc(strings.Join(s.OrderFiles, ", ")), s.Lines)
		} else {
			p.printf(`<dt>Orders</dt><dd>not loaded</dd>`)
		}
		if s.PendingIdentifiers > 0 {
			p.printf(`<dt>Pending SKUs</dt><dd>%d</dd>`, s.PendingIdentifiers)
		}
		p.printf(`<dt>Generated SKUs</dt><dd>%d</dd><dt>Added lines</dt><dd>%d</dd>`, s.GeneratedSKUs, s.AddedLines)
		p.printf(`<dt>Empty sets</dt><dd>%s</dd>`, esc(s.EmptyBundlePolicy))
		p.printf(`</dl>`)
		return p.err
	})
}

// IdentifierPreview lists generated SKUs with confirm and cancel buttons.
func IdentifierPreview(changes []core.IdentifierChange) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		if len(changes) == 0 {
			p.printf(`<p>Every line already has a SKU.</p>`)
			return p.err
		}
		p.printf(`<table><thead><tr><th>Name</th><th>Old</th><th>New</th></tr></thead><tbody>`)
		for _, c := range changes {
			p.printf(`<tr><td>%s</td><td>%s</td><td>%s</td></tr>`, esc(c.Name), esc(c.OldSKU), esc(c.NewSKU))
		}
		p.printf(`</tbody></table>`)
		p.printf(`<button hx-post="/api/identifiers/confirm" hx-target="#status">Confirm</button>`)
		p.printf(`<button hx-post="/api/identifiers/cancel" hx-target="#status">Cancel</button>`)
		return p.err
	})
}

// ReviewPanel shows review findings grouped by severity.
func ReviewPanel(r core.ReviewReport) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		if r.Clean() {
			p.printf(`<p class="ok">No issues found.</p>`)
			return p.err
		}
		p.printf(`<ul class="findings">`)
		for _, f := range r.Findings() {
			p.printf(`<li class="%s"><strong>%s</strong> %s`, esc(string(f.Severity)), esc(f.Code), esc(f.Message))
			if len(f.SKUs) > 0 {
				p.printf(` <code>%s</code>`, esc(strings.Join(f.SKUs, ", ")))
			}
			p.printf(`</li>`)
		}
		p.printf(`</ul>`)
		return p.err
	})
}

// HistoryTable lists recorded runs, newest first.
func HistoryTable(runs []history.Run) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		if len(runs) == 0 {
			p.printf(`<p>No runs recorded yet.</p>`)
			return p.err
		}
		p.printf(`<table><thead><tr><th>When</th><th>Origin</th><th>Master</th><th>In</th><th>Out</th><th>Sets</th></tr></thead><tbody>`)
		for _, run := range runs {
			p.printf(`<tr><td>%s</td><td>%s</td><td>%s</td><td>%d</td><td>%d</td><td>%d</td></tr>`,
				run.CreatedAt.Format("2006-01-02 15:04"), esc(run.Origin), esc(run.MasterFile),
				run.InputLines, run.OutputLines, run.BundlesExpanded)
		}
		p.printf(`</tbody></table>`)
		return p.err
	})
}

// ErrorAlert renders a user-facing error with its support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.printf(`<div class="alert alert-error" role="alert"><p>%s</p>`, esc(message))
		if action != "" {
			p.printf(`<p>%s</p>`, esc(action))
		}
		p.printf(`<small>Error code: %s</small></div>`, esc(code))
		return p.err
	})
}

// Notice renders a short success message.
func Notice(message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<div class="alert alert-ok" role="status">%s</div>`, esc(message))
		return err
	})
}
