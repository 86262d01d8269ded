package wsched

import "fmt"

// ContractError is the panic value used for phase-ordering violations:
// calling AllocateMessage before MakePlan, calling AddChannel after
// MakePlan without an intervening NewStep, and the like. These are
// internal invariant failures, not user-facing protocol errors, so they
// abort rather than return through a normal error value.
type ContractError struct {
	Msg string
}

func (e ContractError) Error() string {
	return fmt.Sprintf("wsched: contract violation: %s", e.Msg)
}

func panicContract(format string, args ...any) {
	panic(ContractError{Msg: fmt.Sprintf(format, args...)})
}
