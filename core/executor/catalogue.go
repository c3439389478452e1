package executor

import (
	"fmt"
	"sync"
)

// TaskInfo names a task and the label shown for it in menus and reports.
type TaskInfo struct {
	Name  string
	Label string
}

// KnownTasks is the default task list, in menu order.
var KnownTasks = []TaskInfo{
	{Name: "accountLogin", Label: "Account Login"},
	{Name: "accountCheckIn", Label: "Account Check-in"},
	{Name: "accountCheck", Label: "Account Check"},
	{Name: "accountClaimFaucet", Label: "Claim Faucet PHRS"},
	{Name: "claimFaucetUSDC", Label: "Claim Faucet USDC"},
	{Name: "performSwapUSDC", Label: "Swap PHRS to USDC"},
	{Name: "performSwapUSDT", Label: "Swap PHRS to USDT"},
	{Name: "addLpUSDC", Label: "Add Liquidity PHRS-USDC"},
	{Name: "addLpUSDT", Label: "Add Liquidity PHRS-USDT"},
	{Name: "randomTransfer", Label: "Random Transfer"},
	{Name: "socialTask", Label: "Social Task"},
}

// KnownTaskNames returns the names of KnownTasks in order.
func KnownTaskNames() []string {
	names := make([]string, len(KnownTasks))
	for i, t := range KnownTasks {
		names[i] = t.Name
	}
	return names
}

// Catalogue maps task names to executors. Safe for concurrent use.
type Catalogue struct {
	mu        sync.RWMutex
	executors map[string]Executor
	labels    map[string]string
	order     []string
}

func NewCatalogue() *Catalogue {
	return &Catalogue{
		executors: map[string]Executor{},
		labels:    map[string]string{},
	}
}

// Register adds an executor under name. An empty label falls back to the
// known label of name, then to name itself.
func (c *Catalogue) Register(name, label string, e Executor) error {
	if name == "" || e == nil {
		return fmt.Errorf("task name and executor are required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.executors[name]; ok {
		return fmt.Errorf("task %s already registered", name)
	}
	if label == "" {
		label = knownLabel(name)
	}
	c.executors[name] = e
	c.labels[name] = label
	c.order = append(c.order, name)
	return nil
}

// Lookup returns the executor for name or an error wrapping ErrUnknownTask.
func (c *Catalogue) Lookup(name string) (Executor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.executors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	return e, nil
}

// Names returns registered task names in registration order.
func (c *Catalogue) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string{}, c.order...)
}

func (c *Catalogue) Label(name string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if label, ok := c.labels[name]; ok {
		return label
	}
	return knownLabel(name)
}

func (c *Catalogue) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

func knownLabel(name string) string {
	for _, t := range KnownTasks {
		if t.Name == name {
			return t.Label
		}
	}
	return name
}
