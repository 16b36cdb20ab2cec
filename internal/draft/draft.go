package draft

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"cep-admin/internal/api"
	"cep-admin/internal/filter"
	"cep-admin/internal/schema"
)

// Draft is one rule-creation session. It owns the chosen event type and
// target, the payload schema, and the filter tree, and keeps them
// consistent: removing a payload field prunes every filter expression
// referencing it, and nothing is editable while a submit is in flight.
type Draft struct {
	mu sync.Mutex

	name                      string
	ruleType                  string
	eventType                 *api.EventType
	target                    *api.Target
	skipOnConsecutivesMatches bool

	payload    schema.Payload
	filter     *filter.Tree
	submitting bool
}

// New starts an empty realtime rule draft with a pass-through filter
func New() *Draft {
	return &Draft{
		ruleType: api.RuleTypeRealtime,
		filter:   filter.NewTree(),
	}
}

// SetName sets the rule name
func (d *Draft) SetName(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.submitting {
		return errSubmitting()
	}
	d.name = name
	return nil
}

// SetType sets the rule type
func (d *Draft) SetType(ruleType string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.submitting {
		return errSubmitting()
	}
	switch ruleType {
	case api.RuleTypeRealtime, api.RuleTypeSliding, api.RuleTypeHopping, api.RuleTypeTumbling:
	default:
		return fmt.Errorf("unknown rule type %q", ruleType)
	}
	d.ruleType = ruleType
	return nil
}

// SetEventType selects the event type the rule listens on
func (d *Draft) SetEventType(et *api.EventType) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.submitting {
		return errSubmitting()
	}
	d.eventType = et
	return nil
}

// SetTarget selects the target the rule notifies
func (d *Draft) SetTarget(target *api.Target) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.submitting {
		return errSubmitting()
	}
	d.target = target
	return nil
}

// SetSkipOnConsecutivesMatches toggles consecutive-match suppression
func (d *Draft) SetSkipOnConsecutivesMatches(skip bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.submitting {
		return errSubmitting()
	}
	d.skipOnConsecutivesMatches = skip
	return nil
}

// SetPayloadFromSample derives the payload schema from a sampled event
// log payload, replacing any existing schema and resetting the filter
func (d *Draft) SetPayloadFromSample(sample json.RawMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.submitting {
		return errSubmitting()
	}

	payload := schema.FieldsFromSample(sample)
	if payload == nil {
		return fmt.Errorf("sampled payload has no usable fields")
	}
	d.payload = payload
	d.filter = filter.NewTree()
	return nil
}

// AddField adds or retypes one payload field by hand
func (d *Draft) AddField(name string, ft schema.FieldType) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.submitting {
		return errSubmitting()
	}
	if name == "" {
		return fmt.Errorf("field name cannot be empty")
	}

	// Retyping an existing field invalidates its expressions
	if existing, ok := d.payload.Find(name); ok && existing.Type != ft {
		d.filter.RemoveField(name)
	}
	d.payload = d.payload.Add(name, ft)
	return nil
}

// RemoveField removes the payload field at index and prunes every filter
// expression referencing it
func (d *Draft) RemoveField(index int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.submitting {
		return errSubmitting()
	}
	if index < 0 || index >= len(d.payload) {
		return fmt.Errorf("field index out of range: %d", index)
	}

	name := d.payload[index].Name
	d.payload = d.payload.Remove(index)
	d.filter.RemoveField(name)
	return nil
}

// AddExpression appends a comparison to the container at parent. The
// referenced field must exist in the payload and the operator must fit
// its type: scalar comparisons for number and string fields, near
// queries for location fields.
func (d *Draft) AddExpression(parent filter.Path, expr filter.Expression) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.editable(); err != nil {
		return err
	}

	field, ok := d.payload.Find(expr.Field)
	if !ok {
		return fmt.Errorf("payload has no field %q", expr.Field)
	}
	if field.Type == schema.FieldLocation && expr.Operator != filter.OperatorNear {
		return fmt.Errorf("location field %q only supports near queries", expr.Field)
	}
	if field.Type != schema.FieldLocation && expr.Operator == filter.OperatorNear {
		return fmt.Errorf("field %q is not a location", expr.Field)
	}

	return d.filter.AddExpression(parent, expr)
}

// AddContainer appends an empty AND or OR group to the container at parent
func (d *Draft) AddContainer(parent filter.Path, ct filter.ContainerType) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.editable(); err != nil {
		return err
	}
	return d.filter.AddContainer(parent, ct)
}

// RemoveNode deletes the filter node at path, collapsing emptied groups
func (d *Draft) RemoveNode(path filter.Path) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.editable(); err != nil {
		return err
	}
	return d.filter.Remove(path)
}

// editable reports why filter editing is currently refused, if it is
func (d *Draft) editable() error {
	if d.submitting {
		return errSubmitting()
	}
	if d.payload == nil {
		return fmt.Errorf("no payload schema: filter editing is disabled")
	}
	return nil
}

// CanEditFilter reports whether filter editing is currently possible
func (d *Draft) CanEditFilter() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.editable() == nil
}

// Payload returns the current payload schema
func (d *Draft) Payload() schema.Payload {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append(schema.Payload(nil), d.payload...)
}

// Filter returns the current filter tree. Treat it as read-only; all
// mutation goes through the draft.
func (d *Draft) Filter() *filter.Tree {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.filter
}

// IsSubmitting reports whether a submit is in flight
func (d *Draft) IsSubmitting() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.submitting
}

// Body builds the rule creation request. A pass-through filter
// serializes as an empty object.
func (d *Draft) Body() (*api.RuleCreate, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.body()
}

func (d *Draft) body() (*api.RuleCreate, error) {
	if d.name == "" {
		return nil, fmt.Errorf("rule name is required")
	}
	if d.eventType == nil {
		return nil, fmt.Errorf("event type is required")
	}
	if d.target == nil {
		return nil, fmt.Errorf("target is required")
	}

	filters, err := filter.Marshal(d.filter)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize filter: %w", err)
	}

	return &api.RuleCreate{
		Name:                      d.name,
		Type:                      d.ruleType,
		EventTypeID:               d.eventType.ID,
		TargetID:                  d.target.ID,
		SkipOnConsecutivesMatches: d.skipOnConsecutivesMatches,
		Filters:                   filters,
	}, nil
}

// Submit posts the rule. Editing stays disabled for the duration; a
// second submit while one is in flight is refused.
func (d *Draft) Submit(ctx context.Context, client *api.Client) (*api.Rule, error) {
	d.mu.Lock()
	if d.submitting {
		d.mu.Unlock()
		return nil, errSubmitting()
	}
	body, err := d.body()
	if err != nil {
		d.mu.Unlock()
		return nil, err
	}
	d.submitting = true
	d.mu.Unlock()

	rule, apiErr := api.Create[api.Rule](ctx, client, api.RulesPath, body)

	d.mu.Lock()
	d.submitting = false
	d.mu.Unlock()

	if apiErr != nil {
		return nil, apiErr
	}
	return rule, nil
}

func errSubmitting() error {
	return fmt.Errorf("rule submit in progress")
}
