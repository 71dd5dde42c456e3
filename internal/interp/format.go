package interp

import (
	"fmt"
	"strings"

	"github.com/dop251/goja"
)

// formatValue formats a goja value for the REPL echo line.
func formatValue(val goja.Value) string {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return ""
	}

	exported := val.Export()

	switch v := exported.(type) {
	case string:
		if len(v) > 1000 {
			return fmt.Sprintf("%q... (truncated, total %d chars)", v[:1000], len(v))
		}
		return fmt.Sprintf("%q", v)
	case []any:
		if len(v) == 0 {
			return "[]"
		}
		if len(v) > 20 {
			items := make([]string, 21)
			for i := range 20 {
				items[i] = fmt.Sprintf("%v", v[i])
			}
			items[20] = fmt.Sprintf("... (%d more items)", len(v)-20)
			return "[" + strings.Join(items, ", ") + "]"
		}
		items := make([]string, len(v))
		for i, item := range v {
			items[i] = fmt.Sprintf("%v", item)
		}
		return "[" + strings.Join(items, ", ") + "]"
	case map[string]any:
		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
