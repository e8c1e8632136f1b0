package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sweeney/round-timer/internal/workout"
)

// Notifier is the engine's OnUpdate observer for a running Program.
//
// The engine notifies synchronously, and key presses dispatch from inside
// Model.Update, where a blocking Program.Send would never be received. Each
// update is sent from its own goroutine as a refresh; the model re-reads the
// controller on arrival, so late or reordered refreshes are harmless.
type Notifier struct {
	mu sync.Mutex
	p  *tea.Program
}

// Attach sets the program to notify. Updates before Attach are dropped.
func (n *Notifier) Attach(p *tea.Program) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.p = p
}

// Update never blocks.
func (n *Notifier) Update(workout.Snapshot) {
	n.mu.Lock()
	p := n.p
	n.mu.Unlock()
	if p == nil {
		return
	}
	go p.Send(refreshMsg{})
}

// refreshMsg asks the model to re-read its controller.
type refreshMsg struct{}
