// Package contextx 提供通过 context 在应用层与仓储层之间传递事务句柄的工具
package contextx

import "context"

type txKey struct{}

// WithTx 将事务句柄写入 context，仓储在同一事务中执行时从 context 取出
func WithTx(ctx context.Context, tx any) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// GetTx 取出 context 中的事务句柄，不存在时返回 nil
func GetTx(ctx context.Context) any {
	return ctx.Value(txKey{})
}
