package streaming

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/shapeflow/catalog"
	"github.com/BaSui01/shapeflow/flagged"
	"github.com/BaSui01/shapeflow/types"
	"github.com/BaSui01/shapeflow/unify"
)

// Result is a validated tree annotated with per-node completion.
type Result = types.Node[types.Completion]

// Validator decides, node by node, whether a partially streamed value may be
// surfaced. It keeps no state between calls and is safe for concurrent use.
type Validator struct {
	unifier  *unify.Unifier
	logger   *zap.Logger
	maxDepth int
	observer Observer
}

// Option configures a Validator.
type Option func(*Validator)

// WithMaxDepth rejects values nested deeper than n. Zero means unlimited.
func WithMaxDepth(n int) Option {
	return func(v *Validator) {
		v.maxDepth = n
	}
}

// WithObserver reports every validation to o.
func WithObserver(o Observer) Option {
	return func(v *Validator) {
		v.observer = o
	}
}

// NewValidator creates a validator over the unifier's catalog.
func NewValidator(u *unify.Unifier, logger *zap.Logger, opts ...Option) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := &Validator{
		unifier: u,
		logger:  logger.With(zap.String("component", "streaming_validator")),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks value against t. While allowPartials is true the stream is
// still open: values that must be complete before they are shown fail with
// ErrIncompleteDoneValue, and needed class fields are enforced. Once the
// stream has ended pass allowPartials=false.
func (v *Validator) Validate(value *flagged.Value, t *types.FieldType, allowPartials bool) (*Result, error) {
	start := time.Now()
	p := &pass{v: v}

	res, err := p.run(value, t, allowPartials)
	if err != nil {
		v.logger.Warn("streaming validation failed",
			zap.Bool("allow_partials", allowPartials),
			zap.String("type", t.String()),
			zap.Error(err))
	}

	if v.observer != nil {
		report := Report{
			AllowPartials: allowPartials,
			Duration:      time.Since(start),
			Err:           err,
			Stats:         p.stats,
		}
		if res != nil {
			report.Summary = Summarize(res)
		}
		v.observer.ObserveValidation(report)
	}
	return res, err
}

// annotated is the per-node payload between distribution and processing.
type annotated struct {
	state types.CompletionState
	typ   *types.FieldType
}

// pass holds the counters of one Validate call.
type pass struct {
	v     *Validator
	stats Stats
}

func (p *pass) run(value *flagged.Value, t *types.FieldType, allowPartials bool) (*Result, error) {
	typed, err := unify.DistributeTypeWithMeta(p.v.unifier, value, t)
	if err != nil {
		return nil, newError(ErrDistributeTypeFailure, "").WithCause(err)
	}
	tree := types.MapMeta(typed, func(m unify.Typed[*flagged.Conditions]) annotated {
		return annotated{state: m.Meta.CompletionState(), typ: m.Type}
	})
	return p.process(tree, allowPartials, "", 0)
}

func (p *pass) process(n *types.Node[annotated], allowPartials bool, path string, depth int) (*Result, error) {
	if p.v.maxDepth > 0 && depth > p.v.maxDepth {
		return nil, newError(ErrMaxDepthExceeded, path)
	}

	u := p.v.unifier
	mustBeDone := u.RequiredDone(n.Meta.typ)
	meta := types.Completion{
		State:        n.Meta.state,
		Display:      u.StreamingBehavior(n.Meta.typ).State,
		RequiredDone: mustBeDone,
	}
	if mustBeDone && allowPartials && n.Meta.state != types.Complete {
		return nil, newError(ErrIncompleteDoneValue, path)
	}
	// Once a node must be done, everything below it is treated as final.
	childPartials := allowPartials && !mustBeDone

	switch n.Kind {
	case types.ValueList:
		items := make([]*Result, 0, len(n.Items))
		for i, item := range n.Items {
			out, err := p.process(item, childPartials, path+"["+strconv.Itoa(i)+"]", depth+1)
			if err != nil {
				if fatal(err) {
					return nil, err
				}
				p.drop(path, err)
				continue
			}
			items = append(items, out)
		}
		return types.Rebuild(n, meta, items, nil), nil

	case types.ValueMap:
		fields := types.NewFieldMap[types.Completion]()
		for key, child := range n.Entries() {
			out, err := p.process(child, childPartials, path+"."+key, depth+1)
			if err != nil {
				if fatal(err) {
					return nil, err
				}
				p.drop(path, err)
				continue
			}
			fields.Set(key, out)
		}
		return types.Rebuild(n, meta, nil, fields), nil

	case types.ValueClass:
		return p.class(n, meta, childPartials, path, depth)
	}
	return types.Rebuild[annotated, types.Completion](n, meta, nil, nil), nil
}

func (p *pass) class(n *types.Node[annotated], meta types.Completion, childPartials bool, path string, depth int) (*Result, error) {
	u := p.v.unifier
	decl, err := p.resolveClass(n)
	if err != nil {
		return nil, newError(ErrExpectedClass, path).WithCause(err)
	}

	fields := types.NewFieldMap[types.Completion]()
	failed := make(map[string]error)
	for key, child := range n.Entries() {
		out, err := p.process(child, childPartials, path+"."+key, depth+1)
		if err != nil {
			if fatal(err) {
				return nil, err
			}
			failed[key] = err
			p.stats.Placeholders++
			p.v.logger.Debug("field replaced by null placeholder",
				zap.String("path", rootPath(path+"."+key)),
				zap.Error(err))
			out = types.NewNull(types.Completion{
				State:   child.Meta.state,
				Display: u.StreamingBehavior(child.Meta.typ).State,
			})
		}
		fields.Set(key, out)
	}

	if decl == nil {
		// Classes built at runtime declare nothing to fill or enforce.
		return types.Rebuild(n, meta, nil, fields), nil
	}

	var missing []string
	if childPartials {
		for _, name := range decl.NeededFields() {
			// A needed field that is only waiting on more data keeps the
			// whole class waiting rather than failing it.
			if err := failed[name]; errors.Is(err, ErrIncompleteDoneValue) {
				return nil, newError(ErrIncompleteDoneValue, path).WithCause(err)
			}
			if out, ok := fields.Get(name); !ok || out.Kind == types.ValueNull {
				missing = append(missing, name)
			}
		}
	}

	for _, f := range decl.Fields {
		if _, ok := fields.Get(f.Name); ok {
			continue
		}
		p.stats.Fillers++
		fields.Set(f.Name, types.NewNull(types.Completion{
			State:   types.Pending,
			Display: u.StreamingBehavior(f.Type).State,
		}))
	}

	if len(missing) > 0 {
		e := newError(ErrMissingNeededFields, path)
		e.Message = fmt.Sprintf("%s: %s", e.Message, strings.Join(missing, ", "))
		return nil, e
	}
	return types.Rebuild(n, meta, nil, declaredOrder(fields, decl)), nil
}

// resolveClass finds the declaration for a class node. A nil class with a
// nil error means the class is not in the catalog.
func (p *pass) resolveClass(n *types.Node[annotated]) (*catalog.Class, error) {
	u := p.v.unifier
	base, _ := u.DistributeMetadata(n.Meta.typ)
	name := n.Name
	if base.Kind == types.KindClass {
		name = base.Name
	} else if !u.IsSubtype(types.ClassRef(n.Name), n.Meta.typ) {
		if _, known := u.Catalog().FindClass(n.Name); !known {
			return nil, nil
		}
		return nil, fmt.Errorf("class %s does not satisfy %s", n.Name, n.Meta.typ)
	}
	decl, ok := u.Catalog().FindClass(name)
	if !ok {
		return nil, nil
	}
	return decl, nil
}

// declaredOrder puts declared fields first, in declaration order, followed
// by any extra fields in the order they arrived.
func declaredOrder(fields *types.FieldMap[types.Completion], decl *catalog.Class) *types.FieldMap[types.Completion] {
	out := types.NewFieldMap[types.Completion]()
	for _, name := range decl.FieldNames() {
		if v, ok := fields.Get(name); ok {
			out.Set(name, v)
		}
	}
	for pair := fields.Oldest(); pair != nil; pair = pair.Next() {
		if _, ok := out.Get(pair.Key); !ok {
			out.Set(pair.Key, pair.Value)
		}
	}
	return out
}

func (p *pass) drop(path string, err error) {
	p.stats.Dropped++
	p.v.logger.Debug("dropped element",
		zap.String("container", rootPath(path)),
		zap.Error(err))
}

func fatal(err error) bool {
	return errors.Is(err, ErrMaxDepthExceeded)
}
