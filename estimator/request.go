package estimator

import "context"

// Request carries the raw contents of the two PQP input files for one
// estimation run. Subsystems may be empty when every configuration pins its
// own qubit subsets.
type Request struct {
	Tid          string `json:"tid"`
	Measurements string `json:"measurements"`
	Subsystems   string `json:"subsystems"`
}

// Response is the terminal value of a pipeline run: the marshaled result
// document, or the error that aborted the computation.
type Response struct {
	Data string
	Err  error
}

// Pipeline runs one estimation request to completion. Cancelling the context
// aborts the trace reductions and surfaces the context error as Response.Err.
type Pipeline func(ctx context.Context, request Request) <-chan Response
