package device

// Route is the transport a command for a datapoint should travel over.
type Route int

// Command routes.
const (
	// RouteUnknown means no datapoint id could be resolved for the code.
	RouteUnknown Route = iota
	// RouteSharing sends the command through the sharing (local) API.
	RouteSharing
	// RouteOpenAPI sends a regular OpenAPI command.
	RouteOpenAPI
	// RouteOpenAPIProperty sends an OpenAPI property update.
	RouteOpenAPIProperty
)

func (r Route) String() string {
	switch r {
	case RouteSharing:
		return "sharing"
	case RouteOpenAPI:
		return "openapi"
	case RouteOpenAPIProperty:
		return "openapi-property"
	default:
		return "unknown"
	}
}

// Route decides how a command for code is sent, from the datapoint's strategy.
func (d *Device) Route(code string) Route {
	id, ok := d.DPIDForCode(code)
	if !ok {
		return RouteUnknown
	}
	s, _ := d.LocalStrategy.Get(id)
	switch {
	case !s.UseOpenAPI():
		return RouteSharing
	case s.PropertyUpdate():
		return RouteOpenAPIProperty
	default:
		return RouteOpenAPI
	}
}

// Command is a single datapoint command.
type Command struct {
	Code  string `json:"code" yaml:"code"`
	Value any    `json:"value" yaml:"value"`
}

// Plan is a batch of commands split per transport.
type Plan struct {
	Sharing  []Command `json:"sharing,omitempty" yaml:"sharing,omitempty"`
	OpenAPI  []Command `json:"openapi,omitempty" yaml:"openapi,omitempty"`
	Property []Command `json:"property,omitempty" yaml:"property,omitempty"`
}

// PlanCommands splits commands by route. Commands whose code cannot be
// resolved to a datapoint stay on the sharing API.
func (d *Device) PlanCommands(commands []Command) Plan {
	var plan Plan
	for _, cmd := range commands {
		switch d.Route(cmd.Code) {
		case RouteOpenAPI:
			plan.OpenAPI = append(plan.OpenAPI, cmd)
		case RouteOpenAPIProperty:
			plan.Property = append(plan.Property, cmd)
		default:
			plan.Sharing = append(plan.Sharing, cmd)
		}
	}
	return plan
}
