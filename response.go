package coldchain_logger

// FunctionCall is the body of a remote function invocation.
type FunctionCall struct {
	Arg string `json:"arg" example:"35.5"`
}

// FunctionResult answers a remote function invocation. ReturnValue is 1 when
// the call was accepted and 0 when it was rejected.
type FunctionResult struct {
	Name        string `json:"name"`
	ReturnValue int    `json:"return_value"`
	Error       string `json:"error,omitempty"`
}

// VariablesResponse lists every telemetry variable of the device.
type VariablesResponse struct {
	DeviceID  string         `json:"device_id"`
	Variables map[string]any `json:"variables"`
}

// VariableResponse carries a single telemetry variable.
type VariableResponse struct {
	Name   string `json:"name"`
	Result any    `json:"result"`
}

// LinkRequest raises or drops the simulated cloud link.
type LinkRequest struct {
	Connected *bool `json:"connected" binding:"required"`
}
