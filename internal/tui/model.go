package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"scoresim/internal/domain"
	"scoresim/internal/ranking"
	"scoresim/internal/scoring"
	"scoresim/internal/simulation"
	"scoresim/internal/textutil"
)

// SimulationPort is the TUI-facing subset of the simulation engine.
type SimulationPort interface {
	Run(req simulation.Request) (string, error)
	Reset()
	Snapshot() simulation.Snapshot
	Subscribe() (<-chan simulation.Snapshot, func())
}

type snapshotMsg simulation.Snapshot

type closedMsg struct{}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	engine      SimulationPort
	updates     <-chan simulation.Snapshot
	unsubscribe func()
	input       textinput.Model
	viewport    viewport.Model
	snap        simulation.Snapshot
	presets     []string
	preset      int
	weights     domain.ScoringWeights
	status      string
	cursor      int
	ready       bool
}

// New creates a new TUI model instance starting from the named preset.
func New(engine SimulationPort, preset string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type query and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)

	m := Model{
		engine:   engine,
		input:    ti,
		viewport: vp,
		snap:     engine.Snapshot(),
		presets:  scoring.PresetNames(),
		status:   "enter run · ctrl+r reset · tab preset · ↑/↓ select",
	}
	for i, name := range m.presets {
		if name == preset {
			m.preset = i
		}
	}
	m.weights, _ = scoring.Preset(m.presets[m.preset])
	m.updates, m.unsubscribe = engine.Subscribe()
	return m
}

// Init starts the cursor blink and the snapshot listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForSnapshot(m.updates))
}

func waitForSnapshot(ch <-chan simulation.Snapshot) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return snapshotMsg(s)
	}
}

// Update handles key, window and snapshot events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := m.tableHeight() + 4 + qh + 1
		vh := msg.Height - reserved
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderDetail())
		return m, nil
	case snapshotMsg:
		m.snap = simulation.Snapshot(msg)
		if m.snap.Stage == simulation.StageFailed && m.snap.Err != nil {
			m.status = "Error: " + m.snap.Err.Error()
		}
		if m.cursor >= len(m.selectable()) {
			m.cursor = 0
		}
		m.viewport.SetContent(m.renderDetail())
		return m, waitForSnapshot(m.updates)
	case closedMsg:
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			m.unsubscribe()
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" {
				return m, nil
			}
			w := m.weights
			if _, err := m.engine.Run(simulation.Request{Query: q, Weights: &w}); err != nil {
				m.status = "Error: " + err.Error()
			} else {
				m.status = fmt.Sprintf("Simulating %q with %s weights", q, m.presets[m.preset])
				m.cursor = 0
			}
			return m, nil
		case "ctrl+r":
			m.engine.Reset()
			m.status = "Reset."
			m.cursor = 0
			return m, nil
		case "tab":
			m.preset = (m.preset + 1) % len(m.presets)
			m.weights, _ = scoring.Preset(m.presets[m.preset])
			m.status = "Preset: " + m.presets[m.preset]
			return m, nil
		case "down":
			if n := len(m.selectable()); n > 0 {
				m.cursor = (m.cursor + 1) % n
				m.viewport.SetContent(m.renderDetail())
				return m, nil
			}
		case "up":
			if n := len(m.selectable()); n > 0 {
				m.cursor = (m.cursor - 1 + n) % n
				m.viewport.SetContent(m.renderDetail())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the stage bar, candidate table, detail pane and input.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Holistic Scoring Simulation")
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	detail := resultBoxStyle.Render(m.viewport.View())
	return strings.Join([]string{
		header,
		renderStages(m.snap.Stage),
		renderWeights(m.presets[m.preset], m.weights),
		renderTable(m.snap),
		detail,
		input,
		status,
	}, "\n")
}

// selectable is the ranked list once there is one, otherwise every
// candidate of the run.
func (m Model) selectable() []domain.ScoredCandidate {
	if len(m.snap.Ranked) > 0 {
		return m.snap.Ranked
	}
	return m.snap.Candidates
}

func (m Model) tableHeight() int {
	return len(m.snap.Candidates) + 1
}

func (m Model) renderDetail() string {
	list := m.selectable()
	if len(list) == 0 {
		return "No candidates."
	}
	c := list[m.cursor]
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n%s\n", c.Name, dimStyle.Render(c.Path), c.Description)
	if len(c.ScoredChunks) == 0 {
		b.WriteString("\nNot scored yet.")
		return b.String()
	}
	fmt.Fprintf(&b, "\nmax=%.3f  topk=%.3f  centroid=%.3f  bm25=%.3f  final=%.3f\n",
		c.Components.Max, c.Components.TopKMean, c.Components.Centroid, c.Components.BM25, c.FinalScore)
	for _, ch := range ranking.TopChunks(c, 3) {
		fmt.Fprintf(&b, "\n[%d-%d] %.3f  %s", ch.LineStart, ch.LineEnd, ch.Similarity, highlightBestSentence(ch.Text, m.snap.Query))
	}
	return b.String()
}

func renderStages(current simulation.Stage) string {
	order := []simulation.Stage{
		simulation.StageEmbeddingQuery,
		simulation.StageFiltering,
		simulation.StageScoring,
		simulation.StageRanking,
		simulation.StageHighlighting,
		simulation.StageComplete,
	}
	parts := make([]string, 0, len(order)+1)
	for _, s := range order {
		label := s.String()
		switch {
		case s == current:
			parts = append(parts, activeStageStyle.Render(label))
		case (current.Active() || current == simulation.StageComplete) && s < current:
			parts = append(parts, doneStageStyle.Render(label))
		default:
			parts = append(parts, dimStyle.Render(label))
		}
	}
	if current == simulation.StageFailed {
		parts = append(parts, errorStyle.Render("failed"))
	}
	return strings.Join(parts, " → ")
}

func renderWeights(preset string, w domain.ScoringWeights) string {
	line := fmt.Sprintf("weights[%s] max=%.2f topk=%.2f centroid=%.2f bm25=%.2f", preset, w.Max, w.TopKMean, w.Centroid, w.BM25)
	if adv := scoring.CheckWeights(w); !adv.Valid {
		line += errorStyle.Render(fmt.Sprintf("  sum=%.3f ≠ 1", adv.Sum))
	}
	return dimStyle.Render(line)
}

func renderTable(s simulation.Snapshot) string {
	stageOne := make(map[string]bool, len(s.StageOne))
	for _, id := range s.StageOne {
		stageOne[id] = true
	}
	rows := []string{dimStyle.Render(fmt.Sprintf("  %-28s %6s %6s %6s %6s %6s %6s %4s", "file", "filter", "max", "topk", "cent", "bm25", "final", "rank"))}
	for _, c := range s.Candidates {
		marker := " "
		switch {
		case c.Calculating:
			marker = "…"
		case stageOne[c.ID]:
			marker = "●"
		}
		rank := "-"
		if c.Rank > 0 {
			rank = fmt.Sprintf("#%d", c.Rank)
		}
		row := fmt.Sprintf("%s %-28s %6.3f %6.3f %6.3f %6.3f %6.3f %6.3f %4s",
			marker, c.Name, c.CentroidSimilarity,
			c.Components.Max, c.Components.TopKMean, c.Components.Centroid, c.Components.BM25,
			c.FinalScore, rank)
		switch {
		case c.Highlighted:
			row = highlightStyle.Render(row)
		case s.Stage > simulation.StageFiltering && s.Stage != simulation.StageFailed && !stageOne[c.ID]:
			row = dimStyle.Render(row)
		}
		rows = append(rows, row)
	}
	return strings.Join(rows, "\n")
}

var (
	resultBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	activeStageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	doneStageStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func highlightBestSentence(text, query string) string {
	sentences := textutil.Sentences(text)
	if len(sentences) == 0 {
		return text
	}
	qTokens := textutil.TokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx := 0
	bestScore := -1
	for i, s := range sentences {
		score := tokenOverlapScore(qTokens, s)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	sentences[bestIdx] = highlightStyle.Render(sentences[bestIdx])
	return strings.Join(sentences, " ")
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	for t := range textutil.TokenSet(sentence) {
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
