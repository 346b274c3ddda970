package middleware

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/shrek82/jrepo/core"
	"github.com/shrek82/jrepo/model"
	"github.com/shrek82/jrepo/query"
)

// tableOf extracts the table name a resource targets, used to scope
// cache entries and invalidation.
func tableOf(resource any) string {
	switch v := resource.(type) {
	case *core.Changeset:
		if v.Model != nil {
			return v.Model.TableName
		}
	case *query.Query:
		if v.Model != nil {
			return v.Model.TableName
		}
	case *model.Model:
		return v.TableName
	default:
		if m, err := model.GetModel(resource); err == nil {
			return m.TableName
		}
	}
	return ""
}

// cacheKey builds a deterministic key for one read call. Pointer
// arguments are rendered by content, not address, and raising variants
// share their base operation's entries.
func cacheKey(table string, op core.Operation, args []any) string {
	parts := make([]any, len(args))
	for i, arg := range args {
		parts[i] = keyPart(arg)
	}
	sum := md5.Sum([]byte(fmt.Sprintf("%s:%v", op.Base(), parts)))
	return table + ":" + hex.EncodeToString(sum[:])
}

func keyPart(arg any) any {
	switch v := arg.(type) {
	case *query.Query:
		return fmt.Sprintf("conds=%v orders=%v limit=%v/%v offset=%v/%v",
			v.Conds, v.Orders, v.HasLimit, v.LimitN, v.HasOffset, v.OffsetN)
	case *model.Model:
		return v.TableName
	default:
		return arg
	}
}
