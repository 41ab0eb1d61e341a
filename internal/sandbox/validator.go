package sandbox

import (
	"errors"
	"strings"

	"github.com/karthik2365/data-cleaning/internal/domain"

	"go.starlark.net/resolve"
	"go.starlark.net/syntax"
)

// Rejection reason tags. Reasons carrying an offending name append it after
// the colon; they never echo source text beyond that single identifier.
const (
	reasonSyntax  = "syntax-error"
	reasonImport  = "import-statement"
	reasonIdent   = "forbidden-identifier:"
	reasonAttr    = "forbidden-attribute:"
	reasonUnknown = "unknown-identifier:"
)

// deniedNames are rejected wherever they appear, as bare identifiers or as
// attribute accesses. Most of them name escape hatches that do not even
// exist in the sandbox dialect; rejection must not depend on that.
var deniedNames = map[string]struct{}{
	"os":         {},
	"sys":        {},
	"subprocess": {},
	"open":       {},
	"eval":       {},
	"exec":       {},
	"compile":    {},
	"__import__": {},
	"import":     {},
	"getattr":    {},
	"setattr":    {},
	"hasattr":    {},
	"globals":    {},
	"locals":     {},
	"vars":       {},
	"dir":        {},
	"type":       {},
	"input":      {},
	"exit":       {},
	"quit":       {},
	"socket":     {},
	"requests":   {},
	"urllib":     {},
	"shutil":     {},
	"pathlib":    {},
	"to_csv":     {},
	"to_file":    {},
	"read_csv":   {},
	"environ":    {},
}

// allowedNames is the full set of free identifiers candidate code may
// reference: the bound table, the math module, the literal constants, and
// the pure builtins. Names the code binds itself resolve locally and are
// not checked against this set.
var allowedNames = map[string]struct{}{
	"table": {},
	"math":  {},
	"sum":   {},
	"round": {},

	"None":  {},
	"True":  {},
	"False": {},

	"len":       {},
	"range":     {},
	"str":       {},
	"int":       {},
	"float":     {},
	"bool":      {},
	"list":      {},
	"dict":      {},
	"tuple":     {},
	"min":       {},
	"max":       {},
	"abs":       {},
	"sorted":    {},
	"reversed":  {},
	"enumerate": {},
	"zip":       {},
	"any":       {},
	"all":       {},
	"fail":      {},
}

// fileOptions is the sandbox dialect: no while loops, no recursion, no
// sets. Top-level control flow and repeated assignment to the same global
// are allowed so scripts can be written as a flat sequence of table
// rebinding steps.
func fileOptions() *syntax.FileOptions {
	return &syntax.FileOptions{
		TopLevelControl: true,
		GlobalReassign:  true,
	}
}

// Validate statically checks candidate source. It is fail-closed: source
// is accepted only when it parses under the sandbox dialect, contains no
// denied construct, and resolves entirely within the allowlisted surface.
// Column names are not checked here; a missing column is a runtime
// condition, not a validation one.
func (r *Runtime) Validate(source string) error {
	f, err := fileOptions().Parse(sourceFilename, source, 0)
	if err != nil {
		return domain.ErrForbidden(reasonSyntax)
	}
	if reason := scanForbidden(f); reason != "" {
		return domain.ErrForbidden(reason)
	}
	allowed := func(name string) bool {
		_, ok := allowedNames[name]
		return ok
	}
	if err := resolve.File(f, allowed, allowed); err != nil {
		return domain.ErrForbidden(resolveReason(err))
	}
	return nil
}

// scanForbidden walks the syntax tree for load statements and denied
// names. The walk is preorder, so a denied attribute is tagged before the
// identifier node it contains. The first hit wins.
func scanForbidden(f *syntax.File) string {
	reason := ""
	syntax.Walk(f, func(n syntax.Node) bool {
		if reason != "" {
			return false
		}
		switch n := n.(type) {
		case *syntax.LoadStmt:
			reason = reasonImport
			return false
		case *syntax.DotExpr:
			if _, bad := deniedNames[n.Name.Name]; bad {
				reason = reasonAttr + n.Name.Name
				return false
			}
		case *syntax.Ident:
			if _, bad := deniedNames[n.Name]; bad {
				reason = reasonIdent + n.Name
				return false
			}
		}
		return true
	})
	return reason
}

// resolveReason maps resolver errors onto reason tags. Undefined names get
// the unknown-identifier tag; anything else the resolver objects to is
// treated as a syntax problem.
func resolveReason(err error) string {
	var list resolve.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		msg := list[0].Msg
		if strings.HasPrefix(msg, "undefined: ") {
			return reasonUnknown + strings.TrimPrefix(msg, "undefined: ")
		}
	}
	return reasonSyntax
}
