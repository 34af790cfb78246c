package settings

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/yuin/gopher-lua/ast"
	"github.com/yuin/gopher-lua/parse"
)

// parseLua reads the assignment-and-table subset of Lua used by simulator
// config files:
//
//	options = { ["graphics"] = { ["vsync"] = false, fps = 60 } }
//	local diff = { ... } return diff
//
// The chunk is parsed, never run. Tables are flattened to dotted keys,
// positional fields to [n].
func parseLua(data []byte) (Values, error) {
	chunk, err := parse.Parse(bytes.NewReader(data), "settings")
	if err != nil {
		return nil, fmt.Errorf("parsing lua: %w", err)
	}

	w := &luaWalker{out: make(Values), locals: make(map[string]bool)}
	for _, stmt := range chunk {
		if err := w.stmt(stmt); err != nil {
			return nil, fmt.Errorf("parsing lua: line %d: %w", stmt.Line(), err)
		}
	}
	return w.out, nil
}

type luaWalker struct {
	out    Values
	locals map[string]bool
}

func (w *luaWalker) stmt(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.AssignStmt:
		for i, lhs := range s.Lhs {
			name, ok := luaName(lhs)
			if !ok {
				return fmt.Errorf("unsupported assignment target %T", lhs)
			}
			w.locals[name] = true
			if i < len(s.Rhs) {
				if err := w.value(name, s.Rhs[i]); err != nil {
					return err
				}
			}
		}
	case *ast.LocalAssignStmt:
		for i, name := range s.Names {
			w.locals[name] = true
			if i < len(s.Exprs) {
				if err := w.value(name, s.Exprs[i]); err != nil {
					return err
				}
			}
		}
	case *ast.ReturnStmt:
		for _, expr := range s.Exprs {
			if name, ok := luaName(expr); ok && w.locals[name] {
				continue
			}
			if err := w.value("return", expr); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unsupported statement %T", stmt)
	}
	return nil
}

// value stores one expression under key, flattening tables.
func (w *luaWalker) value(key string, expr ast.Expr) error {
	switch e := expr.(type) {
	case *ast.StringExpr:
		w.out[key] = e.Value
	case *ast.NumberExpr:
		w.out[key] = e.Value
	case *ast.TrueExpr:
		w.out[key] = "true"
	case *ast.FalseExpr:
		w.out[key] = "false"
	case *ast.NilExpr:
		w.out[key] = "nil"
	case *ast.UnaryMinusOpExpr:
		n, ok := e.Expr.(*ast.NumberExpr)
		if !ok {
			return fmt.Errorf("unsupported negation of %T", e.Expr)
		}
		w.out[key] = "-" + n.Value
	case *ast.IdentExpr, *ast.AttrGetExpr:
		name, ok := luaName(expr)
		if !ok {
			return fmt.Errorf("unsupported reference in %s", key)
		}
		w.out[key] = name
	case *ast.TableExpr:
		return w.table(key, e)
	default:
		return fmt.Errorf("unsupported value %T in %s", expr, key)
	}
	return nil
}

func (w *luaWalker) table(prefix string, t *ast.TableExpr) error {
	if len(t.Fields) == 0 {
		w.out[prefix] = "{}"
		return nil
	}
	index := 0
	for _, f := range t.Fields {
		var key string
		switch k := f.Key.(type) {
		case nil:
			index++
			key = "[" + strconv.Itoa(index) + "]"
		case *ast.StringExpr:
			key = k.Value
		case *ast.NumberExpr:
			key = "[" + k.Value + "]"
		default:
			return fmt.Errorf("unsupported table key %T in %s", f.Key, prefix)
		}
		if err := w.value(join(prefix, key), f.Value); err != nil {
			return err
		}
	}
	return nil
}

// luaName renders a name or a chain of field accesses such as a.b["c"] as
// a dotted key.
func luaName(expr ast.Expr) (string, bool) {
	switch e := expr.(type) {
	case *ast.IdentExpr:
		return e.Value, true
	case *ast.AttrGetExpr:
		obj, ok := luaName(e.Object)
		if !ok {
			return "", false
		}
		switch k := e.Key.(type) {
		case *ast.StringExpr:
			return join(obj, k.Value), true
		case *ast.NumberExpr:
			return join(obj, "["+k.Value+"]"), true
		}
	}
	return "", false
}
