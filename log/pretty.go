package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

type prettyLayout int

const (
	prettyText prettyLayout = iota // key=value on one line
	prettyJSON                     // one indented field per line
)

var (
	styleKey    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleString = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	styleNumber = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	styleTrue   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleFalse  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	styleTime   = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	styleSpan   = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	styleMsg    = lipgloss.NewStyle().Bold(true)

	styleLevel = map[slog.Level]lipgloss.Style{
		slog.Level(LevelTrace): lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		slog.LevelDebug:        lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		slog.LevelInfo:         lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		slog.LevelWarn:         lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		slog.LevelError:        lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}
)

// prettyHandler renders colorized records for interactive terminals.
// Attributes added with WithAttrs and WithGroup are retained and qualified
// with their group path.
type prettyHandler struct {
	opts   slog.HandlerOptions
	layout prettyLayout
	mu     *sync.Mutex
	w      io.Writer
	attrs  []slog.Attr
	groups []string
}

func newPrettyHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
	layout prettyLayout,
) *prettyHandler {
	return &prettyHandler{
		opts:   *opts,
		layout: layout,
		mu:     &sync.Mutex{},
		w:      w,
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]slog.Attr, 0, r.NumAttrs()+len(h.attrs)+4)

	if !r.Time.IsZero() {
		fields = append(fields, h.replace(slog.Time(slog.TimeKey, r.Time)))
	}

	fields = append(fields, slog.Any(slog.LevelKey, r.Level))

	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			fields = append(fields, slog.String(
				slog.SourceKey, src.File+":"+strconv.Itoa(src.Line),
			))
		}
	}

	fields = append(fields, slog.String(slog.MessageKey, r.Message))
	fields = append(fields, h.attrs...)

	prefix := strings.Join(h.groups, ".")

	r.Attrs(func(a slog.Attr) bool {
		if prefix != "" {
			a.Key = prefix + "." + a.Key
		}

		fields = append(fields, a)

		return true
	})

	buf := new(bytes.Buffer)

	switch h.layout {
	case prettyJSON:
		buf.WriteString("{\n")

		first := true

		for _, a := range fields {
			if a.Key == "" {
				continue
			}

			if !first {
				buf.WriteString(",\n")
			}

			first = false

			buf.WriteString("  " + styleKey.Render(a.Key) + ": ")
			buf.WriteString(renderValue(a))
		}

		buf.WriteString("\n}\n")

	default:
		for _, a := range fields {
			if a.Key == "" {
				continue
			}

			if buf.Len() > 0 {
				buf.WriteByte(' ')
			}

			if a.Key == slog.MessageKey {
				buf.WriteString(styleMsg.Render(a.Value.String()))

				continue
			}

			buf.WriteString(styleKey.Render(a.Key) + "=" + renderValue(a))
		}

		buf.WriteByte('\n')
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

// replace applies the configured ReplaceAttr hook to built-in fields.
func (h *prettyHandler) replace(a slog.Attr) slog.Attr {
	if h.opts.ReplaceAttr == nil {
		return a
	}

	return h.opts.ReplaceAttr(nil, a)
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	dup := *h
	prefix := strings.Join(h.groups, ".")

	dup.attrs = make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(dup.attrs, h.attrs)

	for _, a := range attrs {
		if prefix != "" {
			a.Key = prefix + "." + a.Key
		}

		dup.attrs = append(dup.attrs, a)
	}

	return &dup
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	dup := *h
	dup.groups = append(h.groups[:len(h.groups):len(h.groups)], name)

	return &dup
}

func renderValue(a slog.Attr) string {
	v := a.Value.Resolve()

	switch v.Kind() {
	case slog.KindString:
		return styleString.Render(v.String())

	case slog.KindInt64, slog.KindUint64, slog.KindFloat64:
		return styleNumber.Render(v.String())

	case slog.KindBool:
		if v.Bool() {
			return styleTrue.Render("true")
		}

		return styleFalse.Render("false")

	case slog.KindDuration:
		return styleSpan.Render(v.Duration().String())

	case slog.KindTime:
		return styleTime.Render(v.Time().Format("15:04:05.000"))

	case slog.KindGroup:
		parts := make([]string, 0, len(v.Group()))
		for _, g := range v.Group() {
			parts = append(parts, styleKey.Render(g.Key)+"="+renderValue(g))
		}

		return "{" + strings.Join(parts, " ") + "}"

	case slog.KindAny:
		if level, ok := v.Any().(slog.Level); ok {
			style, ok := styleLevel[level]
			if !ok {
				style = styleLevel[slog.LevelInfo]
			}

			return style.Render(strings.ToUpper(Level(level).String()))
		}

		return styleString.Render(fmt.Sprint(v.Any()))

	default:
		return styleString.Render(v.String())
	}
}
