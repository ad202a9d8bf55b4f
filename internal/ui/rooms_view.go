package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/BioHazard786/screenrelay/internal/signaling"
)

// DefaultRefreshInterval is how often the watch view polls the relay.
const DefaultRefreshInterval = 2 * time.Second

// RoomsFetcher loads the current room listing.
type RoomsFetcher func(ctx context.Context) ([]signaling.RoomInfo, error)

type roomsLoadedMsg struct {
	rooms []signaling.RoomInfo
	err   error
	at    time.Time
}

type refreshMsg struct{}

// RoomsWatchModel is the Bubble Tea model behind `rooms --watch`.
type RoomsWatchModel struct {
	fetch    RoomsFetcher
	interval time.Duration
	source   string

	spinner spinner.Model
	loading bool

	rooms   []signaling.RoomInfo
	err     error
	updated time.Time
}

// NewRoomsWatchModel creates a watch model polling fetch every interval.
func NewRoomsWatchModel(source string, fetch RoomsFetcher, interval time.Duration) *RoomsWatchModel {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return &RoomsWatchModel{
		fetch:    fetch,
		interval: interval,
		source:   source,
		spinner:  s,
		loading:  true,
	}
}

func (m *RoomsWatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

func (m *RoomsWatchModel) load() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.interval)
		defer cancel()
		rooms, err := m.fetch(ctx)
		return roomsLoadedMsg{rooms: rooms, err: err, at: time.Now()}
	}
}

func (m *RoomsWatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			if !m.loading {
				m.loading = true
				return m, m.load()
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case roomsLoadedMsg:
		m.loading = false
		m.updated = msg.at
		m.err = msg.err
		if msg.err == nil {
			m.rooms = msg.rooms
		}
		return m, tea.Tick(m.interval, func(time.Time) tea.Msg { return refreshMsg{} })

	case refreshMsg:
		if !m.loading {
			m.loading = true
			return m, m.load()
		}
	}

	return m, nil
}

func (m *RoomsWatchModel) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(fmt.Sprintf("%s Live rooms on %s", IconRoom, m.source)))
	b.WriteString("\n")

	if m.updated.IsZero() {
		b.WriteString(m.spinner.View() + " Loading rooms...\n")
		return b.String()
	}

	b.WriteString(RoomsView(m.rooms, OutputStyled, m.updated))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(ErrorStyle.Render(IconError+" "+m.err.Error()) + "\n")
	}

	status := fmt.Sprintf("%d room(s), updated %s", len(m.rooms), m.updated.Format(time.TimeOnly))
	if m.loading {
		status = m.spinner.View() + " " + status
	}
	b.WriteString(MutedStyle.Render(status) + "\n")
	b.WriteString(MutedStyle.Render("r refresh • q quit") + "\n")
	return b.String()
}

// Rooms returns the most recent successful listing.
func (m *RoomsWatchModel) Rooms() []signaling.RoomInfo {
	return m.rooms
}

// RunRoomsWatch runs the watch view until the user quits.
func RunRoomsWatch(source string, fetch RoomsFetcher, interval time.Duration) error {
	_, err := tea.NewProgram(NewRoomsWatchModel(source, fetch, interval)).Run()
	return err
}
