package syssched

// Starter is responsible for starting an execution.
type Starter interface {
	// Start starts an execution.
	Start() error
}

// Stopper implementation should free all allocated resources.
type Stopper interface {
	// Stop stops the resource.
	Stop() error
}

// FuncStopper is a function type that implements the Stopper interface.
type FuncStopper func() error

// Stop calls the function itself to fulfill the Stopper interface.
func (s FuncStopper) Stop() error {
	return s()
}
