// Package ai implements the scripted opponents that drive one side of an
// episode: a uniform random policy, a stdin-driven human policy and a
// Hierarchical Task Network (HTN) planner.
//
// HTN planning decomposes abstract tasks into primitive operators via ordered
// methods. Method preconditions are evaluated as Lua hooks; operators map to
// action intents.
package ai

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Operator actions understood by the planner.
const (
	ActionShoot   = "shoot"
	ActionCharge  = "charge"
	ActionFight   = "fight"
	ActionAdvance = "advance"
	ActionRetreat = "retreat"
	ActionWait    = "wait"
)

var knownActions = map[string]bool{
	ActionShoot: true, ActionCharge: true, ActionFight: true,
	ActionAdvance: true, ActionRetreat: true, ActionWait: true,
}

// Task is an abstract goal that can be decomposed by methods.
//
// Precondition: ID must be non-empty.
type Task struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
}

// Method decomposes a task into an ordered list of subtasks or operator IDs.
//
// Precondition: TaskID, ID, and Subtasks must be non-empty.
type Method struct {
	TaskID       string   `yaml:"task"`
	ID           string   `yaml:"id"`
	Precondition string   `yaml:"precondition"` // Lua function name; empty = always applicable
	Subtasks     []string `yaml:"subtasks"`
}

// Operator is a primitive step that maps onto one action intent.
//
// Precondition: ID must be non-empty; Action must be one of the Action* constants.
type Operator struct {
	ID     string `yaml:"id"`
	Action string `yaml:"action"`
}

// Domain holds the full HTN domain loaded from a YAML file.
//
// Invariant: all Task, Method, and Operator IDs are unique within their slice.
type Domain struct {
	ID          string      `yaml:"id"`
	Description string      `yaml:"description"`
	Root        string      `yaml:"root"` // root task; defaults to "behave"
	Tasks       []*Task     `yaml:"tasks"`
	Methods     []*Method   `yaml:"methods"`
	Operators   []*Operator `yaml:"operators"`
}

// DefaultRoot is the task planning starts from when Domain.Root is empty.
const DefaultRoot = "behave"

// RootTask returns the task planning starts from.
func (d *Domain) RootTask() string {
	if d.Root == "" {
		return DefaultRoot
	}
	return d.Root
}

// Validate checks all required fields and cross-field constraints.
//
// Postcondition: nil return guarantees a non-empty ID, a declared root task,
// non-empty method subtasks that all reference a task or operator, operators
// with known actions, and no duplicate IDs within any slice.
func (d *Domain) Validate() error {
	if d.ID == "" {
		return errors.New("ai.Domain: ID must not be empty")
	}
	if len(d.Tasks) == 0 {
		return fmt.Errorf("ai.Domain %q: must have at least one task", d.ID)
	}

	taskIDs := make(map[string]struct{}, len(d.Tasks))
	for _, t := range d.Tasks {
		if t.ID == "" {
			return fmt.Errorf("ai.Domain %q: task has empty ID", d.ID)
		}
		if _, dup := taskIDs[t.ID]; dup {
			return fmt.Errorf("ai.Domain %q: duplicate task ID %q", d.ID, t.ID)
		}
		taskIDs[t.ID] = struct{}{}
	}
	if _, ok := taskIDs[d.RootTask()]; !ok {
		return fmt.Errorf("ai.Domain %q: root task %q is not declared", d.ID, d.RootTask())
	}

	operatorIDs := make(map[string]struct{}, len(d.Operators))
	for _, op := range d.Operators {
		if op.ID == "" {
			return fmt.Errorf("ai.Domain %q: operator missing ID", d.ID)
		}
		if !knownActions[op.Action] {
			return fmt.Errorf("ai.Domain %q operator %q: unknown action %q", d.ID, op.ID, op.Action)
		}
		if _, dup := operatorIDs[op.ID]; dup {
			return fmt.Errorf("ai.Domain %q: duplicate operator ID %q", d.ID, op.ID)
		}
		if _, clash := taskIDs[op.ID]; clash {
			return fmt.Errorf("ai.Domain %q: operator ID %q collides with a task", d.ID, op.ID)
		}
		operatorIDs[op.ID] = struct{}{}
	}

	methodIDs := make(map[string]struct{}, len(d.Methods))
	for _, m := range d.Methods {
		if m.TaskID == "" || m.ID == "" {
			return fmt.Errorf("ai.Domain %q: method missing TaskID or ID", d.ID)
		}
		if _, dup := methodIDs[m.ID]; dup {
			return fmt.Errorf("ai.Domain %q: duplicate method ID %q", d.ID, m.ID)
		}
		methodIDs[m.ID] = struct{}{}
		if _, ok := taskIDs[m.TaskID]; !ok {
			return fmt.Errorf("ai.Domain %q method %q: TaskID %q references unknown task", d.ID, m.ID, m.TaskID)
		}
		if len(m.Subtasks) == 0 {
			return fmt.Errorf("ai.Domain %q method %q: subtasks must not be empty", d.ID, m.ID)
		}
		for _, sub := range m.Subtasks {
			_, isTask := taskIDs[sub]
			_, isOp := operatorIDs[sub]
			if !isTask && !isOp {
				return fmt.Errorf("ai.Domain %q method %q: subtask %q is neither a task nor an operator", d.ID, m.ID, sub)
			}
		}
	}
	return nil
}

// OperatorByID returns the operator with the given ID, or false if not found.
func (d *Domain) OperatorByID(id string) (*Operator, bool) {
	for _, op := range d.Operators {
		if op.ID == id {
			return op, true
		}
	}
	return nil, false
}

// MethodsForTask returns all methods that decompose taskID, in declaration order.
func (d *Domain) MethodsForTask(taskID string) []*Method {
	var out []*Method
	for _, m := range d.Methods {
		if m.TaskID == taskID {
			out = append(out, m)
		}
	}
	return out
}

// yamlDomainFile wraps the YAML top-level key.
type yamlDomainFile struct {
	Domain *Domain `yaml:"domain"`
}

// ParseDomain decodes and validates a domain document.
func ParseDomain(data []byte) (*Domain, error) {
	var f yamlDomainFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("ai.ParseDomain: %w", err)
	}
	if f.Domain == nil {
		return nil, errors.New("ai.ParseDomain: missing top-level 'domain' key")
	}
	if err := f.Domain.Validate(); err != nil {
		return nil, err
	}
	return f.Domain, nil
}

// LoadDomain reads and validates the domain file at path.
//
// Precondition: path must name a readable YAML file.
func LoadDomain(path string) (*Domain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ai.LoadDomain: reading %q: %w", path, err)
	}
	d, err := ParseDomain(data)
	if err != nil {
		return nil, fmt.Errorf("ai.LoadDomain %q: %w", path, err)
	}
	return d, nil
}
