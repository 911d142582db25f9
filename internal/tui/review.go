package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"studyline/internal/engine"
	"studyline/internal/ui"
)

type phase int

const (
	phaseLoading phase = iota
	phaseAsking
	phaseRevealed
	phaseSubmitting
	phaseSummary
)

type reviewModel struct {
	ctx    context.Context
	svc    *engine.Service
	cat    engine.Catalog
	userID string
	limit  int

	width  int
	height int

	items   map[int64]engine.Item
	current int64
	shownAt time.Time
	phase   phase

	streakDays int
	level      engine.LevelInfo
	combo      int

	answered    int
	sessionXP   int
	sessionGold int
	milestones  []engine.Milestone

	lastLog string
	err     error
}

type sessionMsg struct {
	info  *engine.SessionInfo
	items []engine.Item
	level engine.LevelInfo
	err   error
}

type submittedMsg struct {
	outcome *engine.ReviewOutcome
	err     error
}

func newReviewModel(ctx context.Context, svc *engine.Service, cat engine.Catalog, userID string, limit int) reviewModel {
	return reviewModel{
		ctx:     ctx,
		svc:     svc,
		cat:     cat,
		userID:  userID,
		limit:   limit,
		items:   map[int64]engine.Item{},
		phase:   phaseLoading,
		lastLog: "Loading…",
	}
}

func (m reviewModel) Init() tea.Cmd {
	return m.startCmd()
}

func (m reviewModel) startCmd() tea.Cmd {
	return func() tea.Msg {
		info, err := m.svc.StartSession(m.ctx, m.userID)
		if err != nil {
			return sessionMsg{err: err}
		}
		items, err := m.cat.ListItems(m.ctx)
		if err != nil {
			return sessionMsg{err: err}
		}
		_, level, err := m.svc.Progression(m.ctx, m.userID)
		if err != nil {
			return sessionMsg{err: err}
		}
		return sessionMsg{info: info, items: items, level: level}
	}
}

func (m reviewModel) submitCmd(itemID int64, q engine.Quality, elapsed int) tea.Cmd {
	return func() tea.Msg {
		outcome, err := m.svc.SubmitAnswer(m.ctx, m.userID, engine.ReviewEvent{
			ItemID:         itemID,
			Quality:        q,
			ElapsedSeconds: elapsed,
		})
		return submittedMsg{outcome: outcome, err: err}
	}
}

func (m reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case sessionMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		for _, it := range msg.items {
			m.items[it.ID] = it
		}
		m.streakDays = msg.info.StreakDays
		m.level = msg.level
		m.current = msg.info.NextItemID
		m.shownAt = time.Now()
		m.phase = phaseAsking
		m.lastLog = fmt.Sprintf("%d due, %d new. Streak: %d day(s).", msg.info.DueCount, msg.info.NewCount, msg.info.StreakDays)
		return m, nil

	case submittedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		o := msg.outcome
		m.answered++
		m.sessionXP += o.XP
		m.sessionGold += o.Gold
		m.milestones = append(m.milestones, o.Milestones...)
		m.level = o.Level
		m.combo = o.ComboCount
		m.lastLog = outcomeLine(o)
		if m.answered >= m.limit {
			m.phase = phaseSummary
			return m, nil
		}
		m.current = o.NextItemID
		m.shownAt = time.Now()
		m.phase = phaseAsking
		return m, nil

	case tea.KeyMsg:
		switch m.phase {
		case phaseSummary:
			return m, tea.Quit
		case phaseAsking:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case " ", "enter":
				m.phase = phaseRevealed
				return m, nil
			}
		case phaseRevealed:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "0", "1", "2", "3", "4":
				q := engine.Quality(int(msg.String()[0] - '0'))
				elapsed := int(time.Since(m.shownAt).Seconds())
				m.phase = phaseSubmitting
				m.lastLog = "Scoring…"
				return m, m.submitCmd(m.current, q, elapsed)
			}
		default:
			if msg.String() == "ctrl+c" || msg.String() == "q" {
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

func (m reviewModel) View() string {
	if m.err != nil {
		return ui.Bad.Render("Error: "+m.err.Error()) + "\n\nPress q to quit.\n"
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch m.phase {
	case phaseLoading:
		b.WriteString("Loading…\n")
	case phaseSummary:
		b.WriteString(m.renderSummary())
	default:
		b.WriteString(m.renderCard())
	}

	b.WriteString("\n")
	b.WriteString(ui.Dim.Render(m.lastLog))
	b.WriteString("\n")
	return b.String()
}

func (m reviewModel) renderHeader() string {
	bar := ui.ProgressBar(m.level.CurrentXP, m.level.NextLevelXP, 24)
	parts := []string{
		fmt.Sprintf("Studyline | Level %d %s", m.level.Level, bar),
		fmt.Sprintf("%s %d", ui.IconFlame, m.streakDays),
	}
	if m.combo >= engine.ComboMinCount {
		parts = append(parts, fmt.Sprintf("%s combo ×%d", ui.IconBolt, m.combo))
	}
	parts = append(parts, fmt.Sprintf("card %d/%d", m.answered+1, m.limit))
	return strings.Join(parts, "  ")
}

func (m reviewModel) renderCard() string {
	it, ok := m.items[m.current]
	if !ok {
		return "(item missing from catalog)\n"
	}

	var b strings.Builder
	b.WriteString(ui.Panel.Render(ui.Prompt.Render(it.Prompt)))
	b.WriteString("\n\n")
	switch m.phase {
	case phaseAsking:
		b.WriteString(ui.Muted.Render("space/enter: reveal answer  ·  q: quit"))
	case phaseRevealed:
		b.WriteString(ui.Panel.Render(ui.Answer.Render(it.Answer)))
		b.WriteString("\n\n")
		b.WriteString(ui.Muted.Render("grade: 0 blackout · 1 wrong · 2 hard · 3 good · 4 easy"))
	case phaseSubmitting:
		b.WriteString(ui.Muted.Render("…"))
	}
	b.WriteString("\n")
	return b.String()
}

func (m reviewModel) renderSummary() string {
	var b strings.Builder
	b.WriteString(ui.Heading(ui.IconDone, "Session complete"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s\n", ui.LabelValue("Cards", m.answered)))
	b.WriteString(fmt.Sprintf("%s\n", ui.LabelValue("XP earned", m.sessionXP)))
	b.WriteString(fmt.Sprintf("%s\n", ui.LabelValue("Gold earned", m.sessionGold)))
	for _, ms := range m.milestones {
		b.WriteString(fmt.Sprintf("%s %s %s\n", ui.IconTrophy, ms.Icon, ui.Gold.Render(ms.Name)))
	}
	b.WriteString("\n")
	b.WriteString(ui.Muted.Render("press any key to exit"))
	return b.String()
}

func outcomeLine(o *engine.ReviewOutcome) string {
	parts := []string{fmt.Sprintf("+%d XP", o.XP)}
	if o.Gold > 0 {
		parts = append(parts, fmt.Sprintf("+%d %s", o.Gold, ui.IconGold))
	}
	for _, tag := range o.Bonuses {
		parts = append(parts, string(tag))
	}
	if o.Mastered {
		parts = append(parts, "mastered "+ui.IconSparkle)
	}
	if o.LevelUp {
		parts = append(parts, ui.BadgeLevelUp)
	}
	for _, ms := range o.Milestones {
		parts = append(parts, fmt.Sprintf("%s %s", ms.Icon, ms.Name))
	}
	return strings.Join(parts, "  ")
}
