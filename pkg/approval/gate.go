package approval

import (
	"fmt"
	"strings"
	"sync"
)

// Decision is the outcome of an approval request.
type Decision struct {
	RequiresApproval bool   `json:"requires_approval"`
	AutoApproved     bool   `json:"auto_approved"`
	PolicyID         string `json:"policy_id"`
	Reason           string `json:"reason,omitempty"`
}

// Approved reports whether the caller may proceed without a human.
func (d Decision) Approved() bool {
	return !d.RequiresApproval || d.AutoApproved
}

// Request describes the operation a caller wants to run.
type Request struct {
	Name      string
	Operation string
	Args      map[string]string
	TaskType  string
}

// Policy matches requests by task type and operation. Empty lists match anything.
type Policy struct {
	ID              string
	TaskTypes       []string
	Operations      []string
	RequireApproval bool
	AutoApprove     bool
	Reason          string
}

func (p Policy) matches(req Request) bool {
	return matchAny(p.TaskTypes, req.TaskType) && matchAny(p.Operations, req.Operation)
}

func matchAny(values []string, v string) bool {
	if len(values) == 0 {
		return true
	}
	for _, candidate := range values {
		if strings.EqualFold(candidate, v) {
			return true
		}
	}
	return false
}

const (
	PolicyCritical = "critical_requires_approval"
	PolicyDefault  = "default_auto_approve"
)

// Gate evaluates requests against policies in registration order.
type Gate struct {
	mu       sync.RWMutex
	order    []string
	policies map[string]Policy
}

// NewGate returns a gate with the default policies: critical analyses need
// approval, everything else is approved automatically.
func NewGate() *Gate {
	g := &Gate{policies: make(map[string]Policy)}

	g.Register(Policy{
		ID:              PolicyCritical,
		TaskTypes:       []string{"critical"},
		RequireApproval: true,
		Reason:          "critical analyses may drive production changes",
	})
	g.Register(Policy{
		ID:          PolicyDefault,
		AutoApprove: true,
	})

	return g
}

// Register adds or replaces a policy. New policies are evaluated before the
// default catch-all.
func (g *Gate) Register(p Policy) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.policies[p.ID]; !exists {
		g.order = append(g.order, p.ID)
		if idx := g.indexOf(PolicyDefault); idx >= 0 && p.ID != PolicyDefault {
			copy(g.order[idx+1:], g.order[idx:len(g.order)-1])
			g.order[idx] = p.ID
		}
	}
	g.policies[p.ID] = p
}

func (g *Gate) indexOf(id string) int {
	for i, existing := range g.order {
		if existing == id {
			return i
		}
	}
	return -1
}

// Get returns a registered policy.
func (g *Gate) Get(id string) (Policy, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	p, ok := g.policies[id]
	if !ok {
		return Policy{}, fmt.Errorf("policy not found: %s", id)
	}
	return p, nil
}

// RequestApproval decides whether req may run. Without a matching policy the
// request requires approval.
func (g *Gate) RequestApproval(req Request) Decision {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, id := range g.order {
		p := g.policies[id]
		if !p.matches(req) {
			continue
		}
		return Decision{
			RequiresApproval: p.RequireApproval,
			AutoApproved:     p.AutoApprove,
			PolicyID:         p.ID,
			Reason:           p.Reason,
		}
	}
	return Decision{RequiresApproval: true, Reason: "no policy matched"}
}
