package agent

import (
	"context"
)

// streamFragmentSize is how many characters each token event carries.
const streamFragmentSize = 20

type EventType string

const (
	EventSources  EventType = "sources"
	EventToken    EventType = "token"
	EventMetadata EventType = "metadata"
	EventError    EventType = "error"
)

// Event is one element of a streaming invocation. The sequence is: one
// sources event (only when retrieval found something), token events whose
// concatenation equals the blocking answer, and a terminal metadata event.
// A pipeline failure instead terminates the stream with an error event.
type Event struct {
	Type    EventType
	Content string      // token fragment
	Sources []SourceRef // sources event payload
	Model   string      // metadata event payload
	Err     error       // error event payload
}

// RunStreaming runs the same state machine as RunBlocking but emits events
// as stages complete. The channel is unbuffered so the consumer paces the
// producer; abandoning the consumer side after cancelling ctx releases the
// producer promptly. The channel closes after the terminal event.
func (e *Executor) RunStreaming(ctx context.Context, req Request) (<-chan Event, error) {
	events := make(chan Event)

	go func() {
		defer close(events)

		state := e.newState(req)
		state = e.route(ctx, state)

		state, err := e.retrieve(ctx, state)
		if err != nil {
			e.emit(ctx, events, Event{Type: EventError, Err: err})
			return
		}
		if len(state.Sources) > 0 {
			if !e.emit(ctx, events, Event{Type: EventSources, Sources: state.Sources}) {
				return
			}
		}

		state, err = e.generate(ctx, state)
		if err != nil {
			e.emit(ctx, events, Event{Type: EventError, Err: err})
			return
		}

		answer := []rune(state.Answer)
		for start := 0; start < len(answer); start += streamFragmentSize {
			end := start + streamFragmentSize
			if end > len(answer) {
				end = len(answer)
			}
			if !e.emit(ctx, events, Event{Type: EventToken, Content: string(answer[start:end])}) {
				return
			}
		}

		model, _ := state.Metadata["model"].(string)
		e.emit(ctx, events, Event{Type: EventMetadata, Model: model})
	}()

	return events, nil
}

// emit sends one event unless the consumer is gone.
func (e *Executor) emit(ctx context.Context, events chan<- Event, event Event) bool {
	select {
	case events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}
