// Package collect implements the data-collection machinery of spec §4.5:
// column-oriented agent-level (adata) and model-level (mdata) frames, the
// column-naming contract, mixed-variant null-column handling, and an
// offline incremental writer. Frames are a thin column-oriented table, not
// a general dataframe library, matching the teacher's preference for a
// small purpose-built type (fastview.FastView) over pulling in a generic
// container abstraction for a narrow need.
package collect

import (
	"fmt"

	"abm/abmerr"
	"abm/agent"
)

// Frame is a column-oriented table: every column has the same length,
// indexed by row.
type Frame struct {
	Columns []string
	data    map[string][]interface{}
}

// NewFrame constructs an empty frame with the given column order.
func NewFrame(columns []string) *Frame {
	data := make(map[string][]interface{}, len(columns))
	for _, c := range columns {
		data[c] = nil
	}
	return &Frame{Columns: append([]string(nil), columns...), data: data}
}

// NumRows reports the frame's row count.
func (f *Frame) NumRows() int {
	if len(f.Columns) == 0 {
		return 0
	}
	return len(f.data[f.Columns[0]])
}

// Column returns the values in the named column, or nil if absent.
func (f *Frame) Column(name string) []interface{} { return f.data[name] }

// AppendRow appends one row; row must supply every column in f.Columns.
func (f *Frame) AppendRow(row map[string]interface{}) {
	for _, c := range f.Columns {
		f.data[c] = append(f.data[c], row[c])
	}
}

// Accessor reads one field or function value off an agent, reporting via ok
// whether that field applies to this agent's concrete variant (false
// produces a null cell in the mixed-variant case, spec §4.5).
type Accessor struct {
	Name string
	Get  func(a agent.Agent) (val interface{}, ok bool)
}

// Aggregator reduces a column of per-agent values collected at one tick
// into a single scalar. Receiving any null value (ok=false upstream) is the
// caller's responsibility to reject before invoking Apply — aggregators
// never see nulls (spec: "Aggregators fail if any participating row is
// null; filter predicates are the escape hatch").
type Aggregator struct {
	Name  string
	Apply func(values []interface{}) (interface{}, error)
}

// Mean, Sum, Max, Min are the aggregators used throughout the example
// scenarios and tests; all expect float64-convertible values.
var (
	Sum = Aggregator{Name: "sum", Apply: reduceFloat(func(acc, v float64) float64 { return acc + v })}
	Max = Aggregator{Name: "maximum", Apply: reduceFloat(func(acc, v float64) float64 {
		if v > acc {
			return v
		}
		return acc
	})}
	Min = Aggregator{Name: "minimum", Apply: reduceFloat(func(acc, v float64) float64 {
		if v < acc {
			return v
		}
		return acc
	})}
	Mean = Aggregator{Name: "mean", Apply: func(values []interface{}) (interface{}, error) {
		if len(values) == 0 {
			return nil, fmt.Errorf("%w: mean over zero rows", abmerr.ErrAggregation)
		}
		sum, err := reduceFloat(func(acc, v float64) float64 { return acc + v })(values)
		if err != nil {
			return nil, err
		}
		return sum.(float64) / float64(len(values)), nil
	}}
)

func reduceFloat(combine func(acc, v float64) float64) func([]interface{}) (interface{}, error) {
	return func(values []interface{}) (interface{}, error) {
		if len(values) == 0 {
			return nil, fmt.Errorf("%w: aggregation over zero rows", abmerr.ErrAggregation)
		}
		acc, err := toFloat(values[0])
		if err != nil {
			return nil, err
		}
		for _, v := range values[1:] {
			f, err := toFloat(v)
			if err != nil {
				return nil, err
			}
			acc = combine(acc, f)
		}
		return acc, nil
	}
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%w: value %v is not numeric", abmerr.ErrAggregation, v)
	}
}

// AdataSpec describes one requested agent-data column per spec §4.5:
//   - bare Accessor (Aggregator nil) -> one row per agent per tick, column
//     named Accessor.Name;
//   - Accessor+Aggregator -> one aggregate row per tick, column named
//     "<aggregator>_<accessor>";
//   - Accessor+Aggregator+Filter -> as above, restricted to agents passing
//     Filter, column named "<aggregator>_<accessor>_<filterName>".
type AdataSpec struct {
	Accessor   Accessor
	Aggregator *Aggregator
	Filter     func(a agent.Agent) bool
	FilterName string
}

// ColumnName implements the column-naming contract.
func (s AdataSpec) ColumnName() string {
	if s.Aggregator == nil {
		return s.Accessor.Name
	}
	name := s.Aggregator.Name + "_" + s.Accessor.Name
	if s.Filter != nil {
		name += "_" + s.FilterName
	}
	return name
}

// AgentCollector samples a set of AdataSpecs once per collection tick. All
// specs must share the same aggregation mode (all bare, or all aggregated)
// since the two modes produce frames of different row-granularity; mixing
// them is a ConfigError caught at construction.
type AgentCollector struct {
	specs     []AdataSpec
	aggregate bool
}

// NewAgentCollector validates specs and builds a collector.
func NewAgentCollector(specs []AdataSpec) (*AgentCollector, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: at least one adata spec required", abmerr.ErrConfig)
	}
	aggregate := specs[0].Aggregator != nil
	for _, s := range specs {
		if (s.Aggregator != nil) != aggregate {
			return nil, fmt.Errorf("%w: adata specs must be all-aggregated or all-per-agent", abmerr.ErrConfig)
		}
	}
	return &AgentCollector{specs: specs, aggregate: aggregate}, nil
}

// Columns reports the frame column order this collector produces,
// including the ambient "time" and (in per-agent mode) "id"/"agent_type"
// columns.
func (c *AgentCollector) Columns(mixedVariant bool) []string {
	cols := []string{"time"}
	if !c.aggregate {
		cols = append(cols, "id")
		if mixedVariant {
			cols = append(cols, "agent_type")
		}
	}
	for _, s := range c.specs {
		cols = append(cols, s.ColumnName())
	}
	return cols
}

// Collect samples agents at the given tick into frame f (appending rows).
// mixedVariant controls whether an agent_type column is populated;
// registry resolves each agent's variant name.
func (c *AgentCollector) Collect(f *Frame, tick int, agents []agent.Agent, registry *agent.Registry, mixedVariant bool) error {
	if c.aggregate {
		return c.collectAggregate(f, tick, agents)
	}
	return c.collectPerAgent(f, tick, agents, registry, mixedVariant)
}

func (c *AgentCollector) collectPerAgent(f *Frame, tick int, agents []agent.Agent, registry *agent.Registry, mixedVariant bool) error {
	for _, a := range agents {
		row := map[string]interface{}{"time": tick, "id": uint64(a.AgentID())}
		if mixedVariant {
			_, name, _ := registry.VariantOf(a)
			row["agent_type"] = name
		}
		for _, s := range c.specs {
			val, ok := s.Accessor.Get(a)
			if !ok {
				row[s.ColumnName()] = nil
				continue
			}
			row[s.ColumnName()] = val
		}
		f.AppendRow(row)
	}
	return nil
}

func (c *AgentCollector) collectAggregate(f *Frame, tick int, agents []agent.Agent) error {
	row := map[string]interface{}{"time": tick}
	for _, s := range c.specs {
		subset := agents
		if s.Filter != nil {
			subset = make([]agent.Agent, 0, len(agents))
			for _, a := range agents {
				if s.Filter(a) {
					subset = append(subset, a)
				}
			}
		}
		values := make([]interface{}, 0, len(subset))
		for _, a := range subset {
			val, ok := s.Accessor.Get(a)
			if !ok {
				return fmt.Errorf("%w: column %q has a null for agent %d with no filter excluding it",
					abmerr.ErrAggregation, s.ColumnName(), a.AgentID())
			}
			values = append(values, val)
		}
		agg, err := s.Aggregator.Apply(values)
		if err != nil {
			return err
		}
		row[s.ColumnName()] = agg
	}
	f.AppendRow(row)
	return nil
}

// MdataSpec describes one requested model-data column: a named nullary
// function of the model.
type MdataSpec struct {
	Name string
	Get  func() interface{}
}

// ModelCollector samples MdataSpecs once per collection tick.
type ModelCollector struct {
	specs []MdataSpec
}

// NewModelCollector builds a collector from the given specs.
func NewModelCollector(specs []MdataSpec) *ModelCollector { return &ModelCollector{specs: specs} }

// Columns reports the frame column order this collector produces.
func (c *ModelCollector) Columns() []string {
	cols := []string{"time"}
	for _, s := range c.specs {
		cols = append(cols, s.Name)
	}
	return cols
}

// Collect samples the model at the given tick into frame f.
func (c *ModelCollector) Collect(f *Frame, tick int) {
	row := map[string]interface{}{"time": tick}
	for _, s := range c.specs {
		row[s.Name] = s.Get()
	}
	f.AppendRow(row)
}
