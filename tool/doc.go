// Package tool provides the registry at the center of the runtime: the
// single checkpoint every tool call passes through before a handler runs.
//
// A registered tool pairs a [relay.Tool] descriptor with a [Handler]. The
// registry owns the handler; only descriptors ever leave the package.
// Execute applies the full pipeline in order: lookup, caller access check,
// JSON Schema argument validation, then handler invocation under a timeout
// with panic containment. Every call produces a finalized [relay.Record],
// whatever the outcome.
//
// # Registering tools
//
// Define tool arguments as a struct with json and desc tags, then use Func:
//
//	type WeatherArgs struct {
//	    Location string `json:"location" desc:"City name"`
//	    Unit     string `json:"unit,omitempty" desc:"Temperature unit"`
//	}
//
//	registry := tool.NewRegistry().Add(
//	    tool.Func("get_weather", "Get current weather",
//	        func(ctx context.Context, args WeatherArgs) (string, error) {
//	            return fetchWeather(args.Location, args.Unit)
//	        },
//	        tool.ForCallers("concierge"),
//	        tool.InCategory("weather"),
//	    ),
//	)
//
// Schemas are compiled at registration time, so a tool that registers
// successfully can always validate arguments. Registration with a name that
// is already taken fails with [ErrDuplicateTool] and leaves the original
// tool untouched.
//
// # Access control
//
// Visibility and executability are the same check: a caller can execute
// exactly the tools Visible returns for it. Callers, categories, and the
// allowed-caller sets can be changed at runtime with Assign and Unassign.
package tool
