package repl

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/modelhike/modelhike-sub001/log"
	"github.com/modelhike/modelhike-sub001/soup"
)

const (
	evalPrompt = "➜ "
	ctrlPrompt = " :"
)

func helpMessage() string {
	return `
: Commands (press Esc to toggle mode):

  help         Print this cruft
  vars         List visible variables
  mods         List modifiers with their signatures
  funcs        List declared functions
  load FILE    Run a script (.ss) or render a template
  clear        Clear screen
  quit         Exit REPL

Usage:
  Type an expression to evaluate it, e.g. name | uppercase
  Start a line with ':' to run a statement, e.g. :set x = 1
  Completions appear automatically as you type
  Press Tab / Shift-Tab to cycle through candidates
  Press Esc to toggle between eval and command modes
  Use Up/Down arrows for history navigation
  Press Ctrl+C on empty line or Ctrl+D to exit
`
}

// inputMode is the current input mode.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

func formatCommand(mode inputMode, input string) string {
	if mode == modeCtrl {
		return ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input)
	}

	return promptStyle.Render(evalPrompt) + inputStyle.Render(input)
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc    func() context.Context
	input      textinput.Model
	sb         *soup.Sandbox
	comp       completer
	logger     log.Logger
	history    *History
	historyIdx int
	matches    fuzzy.Matches
	wordStart  int
	wordEnd    int
	suggIdx    int
	tabActive  bool
	preTabText string
	preTabPos  int
	width      int
	quitting   bool
	mode       inputMode
	saved      [2]string // input of the inactive mode
}

// Run starts the REPL on sb. History is kept in cacheDir.
func Run(
	ctx context.Context,
	sb *soup.Sandbox,
	cacheDir string,
	logger log.Logger,
) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	logger.TraceContext(ctx, "repl start", slog.String("cache_dir", cacheDir))

	history := NewHistory(filepath.Join(cacheDir, baseHistory))
	if err := history.Load(); err != nil {
		logger.WarnContext(ctx, "could not load history", slog.Any("error", err))
	}

	p := tea.NewProgram(newModel(ctx, sb, history, logger), tea.WithContext(ctx))
	_, err = p.Run()

	return err
}

const defaultWidth = 80

func newModel(
	ctx context.Context,
	sb *soup.Sandbox,
	history *History,
	logger log.Logger,
) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		sb:         sb,
		comp:       completer{ctx: ctx, sb: sb},
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		suggIdx:    -1,
		width:      defaultWidth,
		mode:       modeEval,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(evalPrompt) - 2

		return m, nil
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")

	input := m.input.Value()

	switch {
	case m.historyIdx < m.history.Len():
		hint := fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len())
		b.WriteString(hintStyle.Render(hint))

	case strings.TrimSpace(input) == "":
		hint := "Type an expression or press Esc for commands"
		if m.mode == modeCtrl {
			hint = "Type: " + strings.Join(ctrlCommands, ", ") + " (press Esc to return)"
		}

		b.WriteString(hintStyle.Render(hint))

	case len(m.matches) > 0:
		b.WriteString(m.comp.renderCandidateBar(m.matches, m.suggIdx, m.tabActive, m.width))

	case m.mode == modeEval:
		if sig := m.comp.modifierHint(input, m.input.Position()); sig != "" {
			b.WriteString(hintStyle.Render(sig))
		}
	}

	b.WriteString("\n")

	return b.String()
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.historyIdx = m.history.Len()
		m.refreshMatches(false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if !m.tabActive || len(m.matches) == 0 {
			return m.executeInput()
		}

		m.tabActive = false
		m.refreshMatches(true)

		return m, nil

	case tea.KeyTab:
		return m.cycle(1), nil

	case tea.KeyShiftTab:
		return m.cycle(-1), nil

	case tea.KeyUp:
		return m.historyMove(-1), nil

	case tea.KeyDown:
		return m.historyMove(1), nil

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabPos)
			m.refreshMatches(false)

			return m, nil
		}

		return m.switchToMode(1 - m.mode), nil

	case tea.KeyRunes:
		if m.tabActive && msg.String() == " " {
			m.tabActive = false
		}

		var cmd tea.Cmd

		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		m.refreshMatches(true)

		return m, cmd
	}

	var cmd tea.Cmd

	m.tabActive = false
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	m.refreshMatches(false)

	return m, cmd
}

// cycle moves the tab selection by dir, completing a sole candidate
// immediately.
func (m model) cycle(dir int) model {
	n := len(m.matches)

	switch {
	case n == 0:
		return m

	case n == 1:
		m.replaceCurrentWord(m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m

	case m.tabActive:
		m.suggIdx = (m.suggIdx + dir + n) % n

	default:
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabPos = m.input.Position()
		m.suggIdx = 0

		if dir < 0 {
			m.suggIdx = n - 1
		}
	}

	m.replaceCurrentWord(m.matches[m.suggIdx].Str)

	return m
}

func (m *model) replaceCurrentWord(replacement string) {
	input := m.input.Value()
	cursor := m.wordStart + len(replacement)

	m.input.SetValue(input[:m.wordStart] + replacement + input[m.wordEnd:])
	m.input.SetCursor(cursor)

	m.wordEnd = cursor
}

// refreshMatches recomputes completions. With autoConfirm a sole
// candidate equal to the typed word is accepted.
func (m *model) refreshMatches(autoConfirm bool) {
	m.matches, m.wordStart, m.wordEnd = m.comp.complete(m.mode, m.input.Value(), m.input.Position())

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	if m.input.Value()[m.wordStart:m.wordEnd] == m.matches[0].Str {
		m.matches = nil
	}
}

func (m model) executeInput() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	m.saved = [2]string{}
	m.input.SetValue("")
	m.matches = nil

	if err := m.history.Add(input, m.mode); err != nil {
		m.logger.WarnContext(m.ctxFunc(), "could not save history", slog.Any("error", err))
	}

	m.historyIdx = m.history.Len()

	echo := tea.Println(formatCommand(m.mode, input))

	if m.mode == modeCtrl {
		switch strings.Fields(input)[0] {
		case "q", "quit", "exit":
			m.quitting = true

			return m, tea.Sequence(echo, tea.Quit)
		case "c", "clear":
			return m, tea.ClearScreen
		}
	}

	m.logger.TraceContext(m.ctxFunc(), "repl input",
		slog.String("input", input),
		slog.Int("mode", int(m.mode)),
	)

	var (
		out string
		err error
	)

	if m.mode == modeCtrl {
		out, err = command(m.ctxFunc(), m.sb, input)
	} else {
		out, err = evaluate(m.ctxFunc(), m.sb, input)
	}

	if err != nil {
		return m, tea.Sequence(echo, tea.Println(errorStyle.Render("error: "+err.Error())))
	}

	if out == "" {
		return m, echo
	}

	return m, tea.Sequence(echo, tea.Println(resultStyle.Render(out)))
}

// historyMove steps through the history, switching to the mode of each
// entry.
func (m model) historyMove(dir int) model {
	idx := m.historyIdx + dir

	if idx < 0 {
		return m
	}

	if idx >= m.history.Len() {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		m.refreshMatches(false)

		return m
	}

	entry, err := m.history.Entry(idx)
	if err != nil {
		return m
	}

	if entry.Mode != m.mode {
		m = m.switchToMode(entry.Mode)
	}

	m.historyIdx = idx
	m.input.SetValue(entry.Line)
	m.input.SetCursor(len(entry.Line))
	m.refreshMatches(false)

	return m
}

// switchToMode changes the input mode, keeping the input of each mode.
func (m model) switchToMode(mode inputMode) model {
	m.saved[m.mode] = m.input.Value()
	m.mode = mode

	if mode == modeEval {
		m.input.Prompt = promptStyle.Render(evalPrompt)
	} else {
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
	}

	m.input.SetValue(m.saved[mode])
	m.input.SetCursor(len(m.saved[mode]))
	m.refreshMatches(false)

	return m
}
