// internal/blockchain/solbc/rpc/errors.go
package rpc

import (
	"fmt"
)

// Error is an RPC failure with the node and method that produced it.
type Error struct {
	Err     error
	NodeURL string
	Method  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("RPC error [%s] at %s: %v", e.Method, e.NodeURL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(err error, nodeURL, method string) error {
	return &Error{
		Err:     err,
		NodeURL: nodeURL,
		Method:  method,
	}
}
