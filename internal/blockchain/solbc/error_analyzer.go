package solbc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/sol-splitter/internal/types"
)

// ErrorAnalyzer maps RPC failures onto the error taxonomy.
type ErrorAnalyzer struct {
	logger *zap.Logger
}

func NewErrorAnalyzer(logger *zap.Logger) *ErrorAnalyzer {
	return &ErrorAnalyzer{
		logger: logger.Named("error-analyzer"),
	}
}

// Classify wraps err as a network error when the node could not be reached and
// as a provider error when the node answered with a failure.
func (ea *ErrorAnalyzer) Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return types.NetworkError(op, err)
	}

	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		ea.logDetails(rpcErr)
		return types.ProviderError(op, errors.New(rpcErr.Message))
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return types.NetworkError(op, err)
	}
	return types.ProviderError(op, err)
}

// logDetails logs the simulation logs that come with a preflight failure.
func (ea *ErrorAnalyzer) logDetails(rpcErr *jsonrpc.RPCError) {
	fields := []zap.Field{
		zap.Int("code", rpcErr.Code),
		zap.String("message", rpcErr.Message),
	}
	if strings.Contains(rpcErr.Message, "Transaction simulation failed") {
		if data, ok := rpcErr.Data.(map[string]interface{}); ok {
			if logs, ok := data["logs"].([]interface{}); ok {
				fields = append(fields, zap.Strings("logs", stringsOf(logs)))
			}
			if instrErr, ok := data["err"]; ok && instrErr != nil {
				fields = append(fields, zap.String("instruction_error", fmt.Sprintf("%v", instrErr)))
			}
		}
	}
	ea.logger.Warn("RPC rejected transaction", fields...)
}

func stringsOf(values []interface{}) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
