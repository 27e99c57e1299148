package tui

import "wakatime/internal/agent"

// stepMsg carries one bootstrap event into the program.
type stepMsg struct {
	event agent.Event
}

// finishedMsg ends the program. err is nil when bootstrap succeeded.
type finishedMsg struct {
	err error
}
