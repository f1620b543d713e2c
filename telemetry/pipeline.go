package telemetry

import (
	channerics "github.com/niceyeti/channerics/channels"
)

// Sink consumes a stream of converted view values until its done channel
// fires or it decides to stop on its own, reporting completion via its own
// Done channel. Generalizes the teacher's fastview.ViewComponent (a
// self-managing UI view fed from a broadcast channel) to any telemetry
// consumer — a Hub publisher, a CSV row writer, a running-total folder —
// none of which render anything, matching the spec's exclusion of a
// visualization layer while keeping the teacher's fan-out shape.
type Sink interface {
	Done() <-chan struct{}
}

// SinkBuilder constructs one Sink from a done channel and its dedicated
// update stream, mirroring fastview.ViewBuilderFunc.
type SinkBuilder[View any] func(done <-chan struct{}, updates <-chan View) Sink

// Pipeline fans one raw data stream out to any number of independently
// consuming Sinks, first converting each item from Data to the sinks'
// shared View type. Adapted from the teacher's fastview.ViewBuilder, which
// did the same for a state-grid data model and UI view-models; here Data is
// typically a collect.Frame row or a model snapshot and View is an Event,
// but the pipeline itself stays agnostic.
type Pipeline[Data any, View any] struct {
	source   <-chan Data
	convert  func(Data) View
	builders []SinkBuilder[View]
	done     <-chan struct{}
}

// NewPipeline returns an empty Pipeline; configure it with WithSource,
// WithDone, and one or more AddSink calls before Build.
func NewPipeline[Data any, View any]() *Pipeline[Data, View] {
	return &Pipeline[Data, View]{}
}

// WithSource sets the raw data stream and the function converting each item
// into the shared view type every sink receives.
func (p *Pipeline[Data, View]) WithSource(source <-chan Data, convert func(Data) View) *Pipeline[Data, View] {
	p.source = source
	p.convert = convert
	return p
}

// WithDone ties the pipeline's lifetime to done: closing it stops
// conversion and every broadcast branch.
func (p *Pipeline[Data, View]) WithDone(done <-chan struct{}) *Pipeline[Data, View] {
	p.done = done
	return p
}

// AddSink registers one more sink builder; Build calls the builders in the
// order added, and each sink then consumes its own branch concurrently.
func (p *Pipeline[Data, View]) AddSink(b SinkBuilder[View]) *Pipeline[Data, View] {
	p.builders = append(p.builders, b)
	return p
}

// ErrNoSinks is returned when Build is called before any sink was added.
var ErrNoSinks = errNoSinks{}

type errNoSinks struct{}

func (errNoSinks) Error() string { return "telemetry: pipeline has no sinks: AddSink must be called" }

// Build wires the source through convert and a channerics.Broadcast split,
// one branch per registered sink, and starts every sink.
func (p *Pipeline[Data, View]) Build() ([]Sink, error) {
	if len(p.builders) == 0 {
		return nil, ErrNoSinks
	}
	viewChan := channerics.Convert(p.done, p.source, p.convert)
	branches := channerics.Broadcast(p.done, viewChan, len(p.builders))

	sinks := make([]Sink, len(p.builders))
	for i, build := range p.builders {
		sinks[i] = build(p.done, branches[i])
	}
	return sinks, nil
}

// hubSink republishes every view it receives to a Hub until its upstream
// branch closes.
type hubSink struct {
	done chan struct{}
}

// HubSinkBuilder returns a SinkBuilder that forwards every received Event to
// hub.Publish, the pipeline-facing counterpart to Hub's own client fan-out.
func HubSinkBuilder(hub *Hub) SinkBuilder[Event] {
	return func(done <-chan struct{}, updates <-chan Event) Sink {
		s := &hubSink{done: make(chan struct{})}
		go func() {
			defer close(s.done)
			for {
				select {
				case <-done:
					return
				case event, ok := <-updates:
					if !ok {
						return
					}
					hub.Publish(event)
				}
			}
		}()
		return s
	}
}

func (s *hubSink) Done() <-chan struct{} { return s.done }
