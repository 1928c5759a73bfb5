package tool

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/hansobored/hanagent/agent/contract"
)

// Dispatcher invokes registry entries and normalizes every outcome into
// the ToolResult envelope. A tool fault never aborts the orchestration
// loop; the model sees the failure and adapts.
type Dispatcher struct {
	registry contractx.ToolRegistry
}

func NewDispatcher(registry contractx.ToolRegistry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Dispatch executes one call request. Unknown names and panics are
// reported inside the envelope, with success=false.
func (d *Dispatcher) Dispatch(ctx context.Context, call contractx.FunctionCall) (result contractx.ToolResult) {
	log.Info().Str("tool", call.Name).Interface("args", call.Args).Msg("tool call")

	defer func() {
		if r := recover(); r != nil {
			result = contractx.ToolResult{
				Success: false,
				Data:    fmt.Sprintf("tool %s panicked: %v", call.Name, r),
			}
			log.Error().Str("tool", call.Name).Interface("panic", r).Msg("tool panicked")
		}
		log.Debug().Str("tool", call.Name).Bool("success", result.Success).Interface("data", result.Data).Msg("tool result")
	}()

	fn, ok := d.registry.Lookup(call.Name)
	if !ok {
		return contractx.ToolResult{
			Success: false,
			Data:    fmt.Sprintf("unknown tool %s", call.Name),
		}
	}

	return fn(ctx, call.Args)
}
