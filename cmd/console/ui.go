package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/muesli/reflow/wordwrap"

	"github.com/kmills-dev/storyloom/pkg/playback"
	"github.com/kmills-dev/storyloom/pkg/story"
)

// stage is the wizard position: pick a project, chapter and start screen,
// seed starting currencies, then walk.
type stage int

const (
	stageProjects stage = iota
	stageChapters
	stageScreens
	stageSeed
	stageWalk
)

// ConsoleUI is the BubbleTea model that runs the playtest walkthrough.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config *ConsoleConfig
	client *http.Client

	stage   stage
	width   int
	height  int
	ready   bool
	err     error
	loading bool

	// Selection state for the pick stages.
	projects        []story.Project
	chapters        []story.Chapter
	screens         []story.Screen
	selectedProject int
	selectedChapter int
	selectedScreen  int

	// Seeding form state.
	currencies   []story.Currency
	seeds        map[string]float64
	selectedSeed int
	editing      bool
	seedInput    textinput.Model

	// Walk state.
	session       *PlaytestView
	selectedReply int
	stepNote      string

	storyViewport viewport.Model
	metaViewport  viewport.Model

	showQuitModal bool
	copied        bool
}

type projectsLoadedMsg struct {
	projects []story.Project
	err      error
}

type chaptersLoadedMsg struct {
	chapters []story.Chapter
	err      error
}

type screensLoadedMsg struct {
	screens    []story.Screen
	currencies []story.Currency
	err        error
}

type sessionMsg struct {
	session *PlaytestView
	note    string
	err     error
}

var (
	storyPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	screenTextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	replyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	selectedReplyStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client) ConsoleUI {
	ti := textinput.New()
	ti.Placeholder = "value"
	ti.CharLimit = 12
	ti.Width = 12

	storyVp := viewport.New(60, 20)
	storyVp.MouseWheelEnabled = true
	metaVp := viewport.New(24, 20)

	return ConsoleUI{
		config:        cfg,
		client:        client,
		stage:         stageProjects,
		loading:       true,
		seeds:         make(map[string]float64),
		seedInput:     ti,
		storyViewport: storyVp,
		metaViewport:  metaVp,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return m.loadProjects()
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		storyWidth := int(float64(m.width)*0.72) - 4
		metaWidth := m.width - storyWidth - 6
		m.storyViewport.Width = storyWidth - 2
		m.storyViewport.Height = m.height - 7
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.ready = true
		if m.stage == stageWalk {
			m.writeWalkContent()
		}
		return m, nil

	case projectsLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.projects = msg.projects
		return m, nil

	case chaptersLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.chapters = msg.chapters
		return m, nil

	case screensLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.screens = msg.screens
		m.currencies = msg.currencies
		m.seeds = make(map[string]float64, len(msg.currencies))
		for _, c := range msg.currencies {
			m.seeds[c.KeyWord] = c.StartingValue
		}
		return m, nil

	case sessionMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			// A halted step (broken link) keeps the session; surface the
			// detail inline on the walk view.
			if m.stage == stageWalk {
				m.stepNote = msg.note
				m.writeWalkContent()
			}
		} else {
			m.err = nil
			m.session = msg.session
			m.stepNote = msg.note
			m.selectedReply = 0
			m.stage = stageWalk
			m.writeWalkContent()
		}
		return m, nil

	case tea.MouseMsg:
		var vpCmd tea.Cmd
		m.storyViewport, vpCmd = m.storyViewport.Update(msg)
		return m, vpCmd

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}

	return m, nil
}

func (m ConsoleUI) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
		if m.editing {
			m.editing = false
			m.seedInput.Blur()
			return m, nil
		}
		m.showQuitModal = true
		return m, nil
	}
	if m.loading {
		return m, nil
	}

	switch m.stage {
	case stageProjects:
		return m.updatePickList(msg, len(m.projects), &m.selectedProject, func() tea.Cmd {
			return m.loadChapters(m.projects[m.selectedProject].ID)
		}, stageChapters)
	case stageChapters:
		return m.updatePickList(msg, len(m.chapters), &m.selectedChapter, func() tea.Cmd {
			return m.loadScreens(m.projects[m.selectedProject].ID, m.chapters[m.selectedChapter].ID)
		}, stageScreens)
	case stageScreens:
		return m.updatePickList(msg, len(m.screens), &m.selectedScreen, func() tea.Cmd {
			return nil
		}, stageSeed)
	case stageSeed:
		return m.updateSeedForm(msg)
	case stageWalk:
		return m.updateWalk(msg)
	}
	return m, nil
}

func (m ConsoleUI) updatePickList(msg tea.KeyMsg, count int, selected *int, onEnter func() tea.Cmd, next stage) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyUp:
		if *selected > 0 {
			*selected--
		}
	case tea.KeyDown:
		if *selected < count-1 {
			*selected++
		}
	case tea.KeyEnter:
		if count == 0 {
			return m, nil
		}
		cmd := onEnter()
		m.stage = next
		if cmd != nil {
			m.loading = true
		}
		return m, cmd
	}
	return m, nil
}

func (m ConsoleUI) updateSeedForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editing {
		switch msg.Type {
		case tea.KeyEnter:
			if v, err := strconv.ParseFloat(strings.TrimSpace(m.seedInput.Value()), 64); err == nil {
				m.seeds[m.currencies[m.selectedSeed].KeyWord] = v
			}
			m.editing = false
			m.seedInput.Blur()
			return m, nil
		default:
			var cmd tea.Cmd
			m.seedInput, cmd = m.seedInput.Update(msg)
			return m, cmd
		}
	}

	switch msg.Type {
	case tea.KeyUp:
		if m.selectedSeed > 0 {
			m.selectedSeed--
		}
	case tea.KeyDown:
		if m.selectedSeed < len(m.currencies)-1 {
			m.selectedSeed++
		}
	case tea.KeyEnter:
		if len(m.currencies) == 0 {
			return m.startWalk()
		}
		kw := m.currencies[m.selectedSeed].KeyWord
		m.seedInput.SetValue(strconv.FormatFloat(m.seeds[kw], 'f', -1, 64))
		m.seedInput.Focus()
		m.editing = true
		return m, textinput.Blink
	default:
		if msg.String() == "s" || msg.String() == "S" {
			return m.startWalk()
		}
	}
	return m, nil
}

func (m ConsoleUI) startWalk() (tea.Model, tea.Cmd) {
	m.loading = true
	project := m.projects[m.selectedProject]
	screen := m.screens[m.selectedScreen]

	seeds := make(map[string]float64, len(m.seeds))
	for kw, v := range m.seeds {
		seeds[kw] = v
	}

	return m, func() tea.Msg {
		session, err := createPlaytest(m.client, m.config.APIBaseURL, CreatePlaytestRequest{
			ProjectID:     project.ID,
			StartScreenID: screen.ID.String(),
			Currencies:    seeds,
		})
		return sessionMsg{session: session, err: err}
	}
}

func (m ConsoleUI) updateWalk(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyUp:
		if m.selectedReply > 0 {
			m.selectedReply--
			m.writeWalkContent()
		}
	case tea.KeyDown:
		if m.session != nil && m.selectedReply < len(m.session.Replies)-1 {
			m.selectedReply++
			m.writeWalkContent()
		}
	case tea.KeyEnter:
		if m.session == nil || m.session.Phase == playback.PhaseEnded || len(m.session.Replies) == 0 {
			return m, nil
		}
		m.loading = true
		sessionID := m.session.SessionID
		replyID := m.session.Replies[m.selectedReply].ID
		return m, func() tea.Msg {
			session, err := chooseReply(m.client, m.config.APIBaseURL, sessionID, replyID)
			if err != nil {
				// Effects may have applied even though the step halted;
				// re-fetch so the readout is current.
				if refreshed, rerr := getPlaytest(m.client, m.config.APIBaseURL, sessionID); rerr == nil {
					return sessionMsg{session: refreshed, note: err.Error()}
				}
				return sessionMsg{note: err.Error(), err: err}
			}
			return sessionMsg{session: session}
		}
	default:
		switch msg.String() {
		case "c", "C":
			if m.session != nil {
				if err := clipboard.WriteAll(m.session.SessionID.String()); err == nil {
					m.copied = true
					m.writeMetaContent()
				}
			}
		}
	}
	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEnter:
			return m, m.quit()
		default:
			switch msg.String() {
			case "y", "Y":
				return m, m.quit()
			case "n", "N":
				m.showQuitModal = false
				return m, nil
			}
		}
	}
	return m, nil
}

func (m ConsoleUI) quit() tea.Cmd {
	if m.session != nil {
		_ = endPlaytest(m.client, m.config.APIBaseURL, m.session.SessionID)
	}
	return tea.Quit
}

// Commands

func (m ConsoleUI) loadProjects() tea.Cmd {
	return func() tea.Msg {
		projects, err := listProjects(m.client, m.config.APIBaseURL, m.config.UserID)
		return projectsLoadedMsg{projects, err}
	}
}

func (m ConsoleUI) loadChapters(projectID uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		chapters, err := listChapters(m.client, m.config.APIBaseURL, projectID)
		return chaptersLoadedMsg{chapters, err}
	}
}

func (m ConsoleUI) loadScreens(projectID, chapterID uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		screens, err := listScreens(m.client, m.config.APIBaseURL, chapterID)
		if err != nil {
			return screensLoadedMsg{err: err}
		}
		currencies, err := listCurrencies(m.client, m.config.APIBaseURL, projectID)
		return screensLoadedMsg{screens: screens, currencies: currencies, err: err}
	}
}

// Rendering

func (m *ConsoleUI) writeWalkContent() {
	if m.session == nil {
		return
	}
	width := m.storyViewport.Width - 6
	if width < 20 {
		width = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("STORYLOOM PLAYTEST") + "\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")

	if m.session.Screen != nil {
		text := story.StripTags(m.session.Screen.Text)
		content.WriteString(screenTextStyle.Render(wordwrap.String(text, width)) + "\n\n")
	}

	if m.stepNote != "" {
		content.WriteString(noteStyle.Render(wordwrap.String(m.stepNote, width)) + "\n\n")
	}

	if m.session.Phase == playback.PhaseEnded {
		content.WriteString(titleStyle.Render("THE END") + "\n\n")
		content.WriteString(promptStyle.Render("No more choices here. Press Ctrl+C to exit.") + "\n")
	} else {
		for i, r := range m.session.Replies {
			label := fmt.Sprintf("%d. %s", i+1, story.StripTags(r.Text))
			if i == m.selectedReply {
				content.WriteString(selectedReplyStyle.Render("▶ "+label) + "\n")
			} else {
				content.WriteString(replyStyle.Render("  "+label) + "\n")
			}
		}
		content.WriteString("\n" + promptStyle.Render("↑/↓ select, Enter choose, C copy session ID, Ctrl+C quit") + "\n")
	}

	m.storyViewport.SetContent(content.String())
	m.storyViewport.GotoTop()
	m.writeMetaContent()
}

func (m *ConsoleUI) writeMetaContent() {
	if m.session == nil {
		return
	}
	var content strings.Builder
	content.WriteString(titleStyle.Render("SESSION") + "\n\n")
	content.WriteString("ID:\n" + m.session.SessionID.String()[:8] + "...\n")
	if m.copied {
		content.WriteString(noteStyle.Render("(copied)") + "\n")
	}
	content.WriteString("\nPhase:\n" + string(m.session.Phase) + "\n\n")

	content.WriteString("Currencies:\n")
	if len(m.session.Readout) == 0 {
		content.WriteString("None defined\n")
	}
	for _, uc := range m.session.Readout {
		content.WriteString(fmt.Sprintf("• %s: %g\n", uc.Currency.DisplayName, uc.UserValue))
	}

	if len(m.session.Items) > 0 {
		content.WriteString("\nItems:\n")
		for kw, possessed := range m.session.Items {
			if possessed {
				content.WriteString("• " + kw + "\n")
			}
		}
	}

	m.metaViewport.SetContent(content.String())
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if !m.ready {
		return "\n  Initializing..."
	}

	switch m.stage {
	case stageProjects:
		return m.renderPickModal("Select a Project", m.projectLabels(), m.selectedProject)
	case stageChapters:
		return m.renderPickModal("Select a Chapter", m.chapterLabels(), m.selectedChapter)
	case stageScreens:
		return m.renderPickModal("Select a Starting Screen", m.screenLabels(), m.selectedScreen)
	case stageSeed:
		return m.renderSeedModal()
	}

	storyWidth := int(float64(m.width)*0.72) - 4
	metaWidth := m.width - storyWidth - 6

	storyPanel := storyPanelStyle.Width(storyWidth).Height(m.height - 3).Render(m.storyViewport.View())
	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(m.metaViewport.View())

	return lipgloss.JoinHorizontal(lipgloss.Top, storyPanel, metaPanel)
}

func (m ConsoleUI) projectLabels() []string {
	labels := make([]string, len(m.projects))
	for i, p := range m.projects {
		labels[i] = fmt.Sprintf("%s (%d chapters)", p.Title, p.ChapterCount)
	}
	return labels
}

func (m ConsoleUI) chapterLabels() []string {
	labels := make([]string, len(m.chapters))
	for i, c := range m.chapters {
		labels[i] = fmt.Sprintf("%d. %s", c.Order, c.Title)
	}
	return labels
}

func (m ConsoleUI) screenLabels() []string {
	labels := make([]string, len(m.screens))
	for i, s := range m.screens {
		preview := story.StripTags(s.Text)
		if len(preview) > 40 {
			preview = preview[:40] + "..."
		}
		labels[i] = fmt.Sprintf("%d. %s", s.Order, preview)
	}
	return labels
}

func (m ConsoleUI) renderPickModal(title string, items []string, selected int) string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render(title))
	content.WriteString("\n\n")

	switch {
	case m.loading:
		content.WriteString(noteStyle.Render("Loading..."))
	case m.err != nil:
		content.WriteString(errorStyle.Render(m.err.Error()))
		content.WriteString("\n\n" + promptStyle.Render("Press Ctrl+C to exit"))
	case len(items) == 0:
		content.WriteString("Nothing here yet.")
		content.WriteString("\n\n" + promptStyle.Render("Press Ctrl+C to exit"))
	default:
		for i, item := range items {
			if i == selected {
				content.WriteString(selectedReplyStyle.Render("▶ "+item) + "\n")
			} else {
				content.WriteString(replyStyle.Render("  "+item) + "\n")
			}
		}
		content.WriteString("\n" + promptStyle.Render("↑/↓ navigate, Enter select, Ctrl+C exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderSeedModal() string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Starting Currencies"))
	content.WriteString("\n\n")

	if m.loading {
		content.WriteString(noteStyle.Render("Starting..."))
	} else if len(m.currencies) == 0 {
		content.WriteString("No currencies defined.")
		content.WriteString("\n\n" + promptStyle.Render("Press Enter or S to start"))
	} else {
		for i, c := range m.currencies {
			label := fmt.Sprintf("%s: %g", c.DisplayName, m.seeds[c.KeyWord])
			if i == m.selectedSeed && m.editing {
				label = c.DisplayName + ": " + m.seedInput.View()
			}
			if i == m.selectedSeed {
				content.WriteString(selectedReplyStyle.Render("▶ "+label) + "\n")
			} else {
				content.WriteString(replyStyle.Render("  "+label) + "\n")
			}
		}
		content.WriteString("\n" + promptStyle.Render("↑/↓ select, Enter edit, S start walk, Ctrl+C exit"))
	}
	if m.err != nil {
		content.WriteString("\n\n" + errorStyle.Render(m.err.Error()))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Playtest?"))
	content.WriteString("\n\n")
	content.WriteString("The session is in-memory only and will be discarded.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}
