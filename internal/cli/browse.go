package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	apperrors "github.com/matzehuels/wikiviewer/pkg/errors"
	"github.com/matzehuels/wikiviewer/pkg/integrations/wikipedia"
	"github.com/matzehuels/wikiviewer/pkg/session"
)

// browseCommand creates the interactive browse command.
func (c *CLI) browseCommand() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "browse [keyword...]",
		Short: "Browse Wikipedia interactively",
		Long: `Browse Wikipedia in an interactive terminal view.

Keys:
  enter    search for the typed keyword (or open the selected article)
  ctrl+r   show a random article
  tab      switch between the search box and the result list
  ↑/↓ j/k  move through results
  o        open the selected article in a browser
  esc      dismiss an error, or quit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, backend, err := c.newClient(ctx, strict)
			if err != nil {
				return err
			}
			defer backend.Close()

			m := newBrowseModel(ctx, session.New(client, loggerFromContext(ctx)))
			var init tea.Cmd
			if len(args) > 0 {
				keyword := strings.Join(args, " ")
				m.input.SetValue(keyword)
				init = m.search(keyword)
			}
			m.initial = init

			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "fail searches with unresolved hits")

	return cmd
}

// =============================================================================
// Browse Model
// =============================================================================

var (
	browseHeaderStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan).MarginBottom(1)
	browseSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	browseNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	browseErrorStyle    = lipgloss.NewStyle().Foreground(colorRed)
	browseHelpStyle     = lipgloss.NewStyle().Foreground(colorDim).MarginTop(1)
)

type browseFocus int

const (
	focusInput browseFocus = iota
	focusList
)

// resultsMsg carries the outcome of a session action.
type resultsMsg struct {
	err error
}

// openedMsg reports a failure to launch the browser.
type openedMsg struct {
	err error
}

// browseModel is the bubbletea model of the browse command. Result state
// lives in the session; the model only mirrors it for rendering.
type browseModel struct {
	ctx     context.Context
	session *session.Session

	input   textinput.Model
	spinner spinner.Model
	focus   browseFocus
	initial tea.Cmd

	articles []wikipedia.Article
	cursor   int
	offset   int
	loading  bool
	err      error

	width  int
	height int
}

func newBrowseModel(ctx context.Context, s *session.Session) *browseModel {
	ti := textinput.New()
	ti.Placeholder = "Search Wikipedia..."
	ti.Prompt = StyleDim.Render("/ ")
	ti.CharLimit = apperrors.MaxKeywordLength
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = styleIconSpinner

	return &browseModel{
		ctx:     ctx,
		session: s,
		input:   ti,
		spinner: sp,
		height:  24,
	}
}

func (m *browseModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.initial)
}

// search starts a keyword search in the session.
func (m *browseModel) search(keyword string) tea.Cmd {
	if err := apperrors.ValidateKeyword(keyword); err != nil {
		m.err = err
		return nil
	}
	m.loading = true
	m.err = nil
	s, ctx := m.session, m.ctx
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		_, err := s.Search(ctx, keyword)
		return resultsMsg{err: err}
	})
}

// random starts a random article lookup in the session.
func (m *browseModel) random() tea.Cmd {
	m.loading = true
	m.err = nil
	s, ctx := m.session, m.ctx
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		_, err := s.Random(ctx)
		return resultsMsg{err: err}
	})
}

func openCmd(url string) tea.Cmd {
	return func() tea.Msg {
		return openedMsg{err: openBrowser(url)}
	}
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-4, 10)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case resultsMsg:
		if errors.Is(msg.err, session.ErrSuperseded) {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.err = m.session.LastError()
			return m, nil
		}
		m.articles = m.session.Articles()
		m.cursor, m.offset = 0, 0
		if len(m.articles) > 0 {
			m.setFocus(focusList)
		}
		return m, nil

	case openedMsg:
		if msg.err != nil {
			m.err = msg.err
		}
		return m, nil

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	return m, nil
}

func (m *browseModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.session.Cancel()
		return m, tea.Quit
	case "esc":
		if m.err != nil {
			m.err = nil
			m.session.DismissError()
			return m, nil
		}
		m.session.Cancel()
		return m, tea.Quit
	case "ctrl+r":
		return m, m.random()
	case "tab", "shift+tab":
		if m.focus == focusInput && len(m.articles) > 0 {
			m.setFocus(focusList)
		} else {
			m.setFocus(focusInput)
		}
		return m, nil
	}

	if m.focus == focusInput {
		if msg.String() == "enter" {
			return m, m.search(strings.TrimSpace(m.input.Value()))
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.articles)-1 {
			m.cursor++
		}
	case "o", "enter":
		if a, ok := m.selected(); ok && a.URL != "" {
			return m, openCmd(a.URL)
		}
	case "/":
		m.setFocus(focusInput)
	case "q":
		m.session.Cancel()
		return m, tea.Quit
	}
	m.scroll()
	return m, nil
}

func (m *browseModel) setFocus(f browseFocus) {
	m.focus = f
	if f == focusInput {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func (m *browseModel) selected() (wikipedia.Article, bool) {
	if m.cursor < 0 || m.cursor >= len(m.articles) {
		return wikipedia.Article{}, false
	}
	return m.articles[m.cursor], true
}

// visible returns how many articles fit on screen; each takes three lines.
func (m *browseModel) visible() int {
	return max((m.height-8)/3, 1)
}

func (m *browseModel) scroll() {
	n := m.visible()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+n {
		m.offset = m.cursor - n + 1
	}
}

func (m *browseModel) View() string {
	var b strings.Builder

	b.WriteString(browseHeaderStyle.Render("Wikipedia"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(m.spinner.View() + " " + StyleDim.Render("Loading..."))
	case m.err != nil:
		b.WriteString(browseErrorStyle.Render(iconError + " " + errorNotice(m.err)))
	case m.articles != nil && len(m.articles) == 0:
		b.WriteString(StyleDim.Render("No articles found."))
	default:
		b.WriteString(StyleDim.Render(fmt.Sprintf("%d articles", len(m.articles))))
	}
	b.WriteString("\n\n")

	end := min(m.offset+m.visible(), len(m.articles))
	for i := m.offset; i < end; i++ {
		a := m.articles[i]
		cursor, style := "  ", browseNormalStyle
		if i == m.cursor && m.focus == focusList {
			cursor, style = "> ", browseSelectedStyle
		}
		b.WriteString(cursor + style.Render(a.Title) + "\n")
		b.WriteString("  " + truncate(wikipedia.PlainText(a.Snippet), max(m.width-4, 40)) + "\n")
		if i == m.cursor && a.URL != "" {
			b.WriteString("  " + StyleLink.Render(a.URL))
		}
		b.WriteString("\n")
	}

	b.WriteString(browseHelpStyle.Render("enter search · ctrl+r random · tab switch · o open · esc quit"))
	return b.String()
}

// errorNotice is the generic text shown for a failed action.
func errorNotice(err error) string {
	if errors.Is(err, wikipedia.ErrQuery) {
		return "Wikipedia could not be reached. Try again."
	}
	return apperrors.UserMessage(err)
}

func truncate(s string, n int) string {
	s = collapseSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
