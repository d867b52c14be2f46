// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package index

import (
	"go/ast"
	"go/parser"
	"go/token"
	"regexp"
	"strings"
	"unicode"
)

// Symbol is one declaration found in a source file.
type Symbol struct {
	Name       string
	Kind       Kind
	Line       int
	EndLine    int
	Signature  string
	Doc        string
	Parent     string // Receiver or enclosing class
	Visibility Visibility
}

// Parser extracts symbols from the source of one file.
type Parser interface {
	Parse(content string, filePath string) ([]Symbol, error)
}

// defaultParsers maps file extensions to parsers.
func defaultParsers() map[string]Parser {
	js := &JSParser{}
	return map[string]Parser{
		".go":  &GoParser{},
		".py":  &PythonParser{},
		".js":  js,
		".jsx": js,
		".ts":  js,
		".tsx": js,
	}
}

// detectLanguage detects the language from file extension
func detectLanguage(ext string) string {
	switch ext {
	case ".go":
		return "Go"
	case ".js", ".jsx":
		return "JavaScript"
	case ".ts", ".tsx":
		return "TypeScript"
	case ".py":
		return "Python"
	default:
		return "Unknown"
	}
}

// =============================================================================
// GO PARSER
// =============================================================================

// GoParser parses Go source files with go/parser.
type GoParser struct{}

// Parse implements Parser for Go files
func (p *GoParser) Parse(content string, filePath string) ([]Symbol, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filePath, content, parser.ParseComments)
	if err != nil {
		return nil, err
	}

	var symbols []Symbol
	if f.Name != nil {
		symbols = append(symbols, Symbol{
			Name:       f.Name.Name,
			Kind:       KindPackage,
			Line:       fset.Position(f.Name.Pos()).Line,
			Signature:  "package " + f.Name.Name,
			Visibility: VisibilityPublic,
		})
	}

	for _, decl := range f.Decls {
		switch node := decl.(type) {
		case *ast.FuncDecl:
			sym := Symbol{
				Name:       node.Name.Name,
				Kind:       KindFunction,
				Line:       fset.Position(node.Pos()).Line,
				EndLine:    fset.Position(node.End()).Line,
				Signature:  goFuncSignature(node),
				Doc:        goDoc(node.Doc),
				Visibility: goVisibility(node.Name.Name),
			}
			if node.Recv != nil && len(node.Recv.List) > 0 {
				sym.Kind = KindMethod
				sym.Parent = goTypeName(node.Recv.List[0].Type)
			}
			symbols = append(symbols, sym)

		case *ast.GenDecl:
			for _, spec := range node.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					sym := Symbol{
						Name:       s.Name.Name,
						Kind:       KindType,
						Line:       fset.Position(s.Pos()).Line,
						EndLine:    fset.Position(s.End()).Line,
						Signature:  "type " + s.Name.Name,
						Doc:        goDoc(node.Doc),
						Visibility: goVisibility(s.Name.Name),
					}
					switch s.Type.(type) {
					case *ast.StructType:
						sym.Kind = KindStruct
						sym.Signature += " struct"
					case *ast.InterfaceType:
						sym.Kind = KindInterface
						sym.Signature += " interface"
					}
					symbols = append(symbols, sym)

				case *ast.ValueSpec:
					kind := KindVariable
					if node.Tok == token.CONST {
						kind = KindConst
					}
					for _, name := range s.Names {
						if name.Name == "_" {
							continue
						}
						symbols = append(symbols, Symbol{
							Name:       name.Name,
							Kind:       kind,
							Line:       fset.Position(name.Pos()).Line,
							Signature:  strings.ToLower(string(kind)) + " " + name.Name,
							Doc:        goDoc(node.Doc),
							Visibility: goVisibility(name.Name),
						})
					}
				}
			}
		}
	}
	return symbols, nil
}

func goFuncSignature(node *ast.FuncDecl) string {
	var sb strings.Builder
	sb.WriteString("func ")
	if node.Recv != nil && len(node.Recv.List) > 0 {
		recv := node.Recv.List[0]
		sb.WriteString("(")
		if len(recv.Names) > 0 {
			sb.WriteString(recv.Names[0].Name)
			sb.WriteString(" ")
		}
		sb.WriteString(goTypeName(recv.Type))
		sb.WriteString(") ")
	}
	sb.WriteString(node.Name.Name)
	sb.WriteString("(...)")

	if res := node.Type.Results; res != nil && len(res.List) > 0 {
		sb.WriteString(" ")
		if len(res.List) == 1 && len(res.List[0].Names) == 0 {
			sb.WriteString(goTypeName(res.List[0].Type))
		} else {
			sb.WriteString("(...)")
		}
	}
	return sb.String()
}

func goTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return "*" + goTypeName(t.X)
	case *ast.SelectorExpr:
		return goTypeName(t.X) + "." + t.Sel.Name
	case *ast.ArrayType:
		return "[]" + goTypeName(t.Elt)
	case *ast.MapType:
		return "map[" + goTypeName(t.Key) + "]" + goTypeName(t.Value)
	case *ast.IndexExpr:
		return goTypeName(t.X)
	case *ast.IndexListExpr:
		return goTypeName(t.X)
	default:
		return "?"
	}
}

func goDoc(cg *ast.CommentGroup) string {
	if cg == nil {
		return ""
	}
	return strings.TrimSpace(cg.Text())
}

func goVisibility(name string) Visibility {
	if name == "" {
		return VisibilityPrivate
	}
	if unicode.IsUpper([]rune(name)[0]) {
		return VisibilityExported
	}
	return VisibilityPrivate
}

// =============================================================================
// JAVASCRIPT/TYPESCRIPT PARSER
// =============================================================================

var (
	jsFuncPattern  = regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*(\w+)\s*\(`)
	jsClassPattern = regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+(\w+)`)
	jsArrowPattern = regexp.MustCompile(`^\s*(?:export\s+)?const\s+(\w+)\s*(?::[^=]+)?=\s*(?:async\s*)?(?:\([^)]*\)|\w+)\s*=>`)
	jsConstPattern = regexp.MustCompile(`^\s*(?:export\s+)?const\s+(\w+)\s*(?::[^=]+)?=`)
	tsTypePattern  = regexp.MustCompile(`^\s*(?:export\s+)?(interface|type)\s+(\w+)`)
)

// JSParser extracts top-level JavaScript and TypeScript declarations with
// regular expressions.
type JSParser struct{}

// Parse implements Parser for JS/TS files
func (p *JSParser) Parse(content string, filePath string) ([]Symbol, error) {
	var symbols []Symbol

	for i, line := range strings.Split(content, "\n") {
		lineNum := i + 1
		vis := VisibilityPrivate
		if strings.Contains(line, "export") {
			vis = VisibilityExported
		}

		switch {
		case jsFuncPattern.MatchString(line):
			name := jsFuncPattern.FindStringSubmatch(line)[1]
			symbols = append(symbols, Symbol{Name: name, Kind: KindFunction, Line: lineNum, Signature: "function " + name + "(...)", Visibility: vis})
		case jsClassPattern.MatchString(line):
			name := jsClassPattern.FindStringSubmatch(line)[1]
			symbols = append(symbols, Symbol{Name: name, Kind: KindClass, Line: lineNum, Signature: "class " + name, Visibility: vis})
		case tsTypePattern.MatchString(line):
			m := tsTypePattern.FindStringSubmatch(line)
			kind := KindType
			if m[1] == "interface" {
				kind = KindInterface
			}
			symbols = append(symbols, Symbol{Name: m[2], Kind: kind, Line: lineNum, Signature: m[1] + " " + m[2], Visibility: vis})
		case jsArrowPattern.MatchString(line):
			name := jsArrowPattern.FindStringSubmatch(line)[1]
			symbols = append(symbols, Symbol{Name: name, Kind: KindFunction, Line: lineNum, Signature: "const " + name + " = (...) =>", Visibility: vis})
		case jsConstPattern.MatchString(line):
			name := jsConstPattern.FindStringSubmatch(line)[1]
			symbols = append(symbols, Symbol{Name: name, Kind: KindConst, Line: lineNum, Signature: "const " + name, Visibility: vis})
		}
	}
	return symbols, nil
}

// =============================================================================
// PYTHON PARSER
// =============================================================================

var (
	pyFuncPattern  = regexp.MustCompile(`^(\s*)(?:async\s+)?def\s+(\w+)\s*\(`)
	pyClassPattern = regexp.MustCompile(`^(\s*)class\s+(\w+)`)
)

// PythonParser extracts Python classes, functions and methods with regular
// expressions. A def indented under a class is a method of that class.
type PythonParser struct{}

// Parse implements Parser for Python files
func (p *PythonParser) Parse(content string, filePath string) ([]Symbol, error) {
	var symbols []Symbol
	currentClass := ""
	classIndent := -1

	for i, line := range strings.Split(content, "\n") {
		lineNum := i + 1

		if m := pyClassPattern.FindStringSubmatch(line); m != nil {
			currentClass, classIndent = m[2], len(m[1])
			symbols = append(symbols, Symbol{
				Name:       m[2],
				Kind:       KindClass,
				Line:       lineNum,
				Signature:  "class " + m[2],
				Visibility: pyVisibility(m[2]),
			})
			continue
		}

		if m := pyFuncPattern.FindStringSubmatch(line); m != nil {
			indent := len(m[1])
			sym := Symbol{
				Name:       m[2],
				Kind:       KindFunction,
				Line:       lineNum,
				Signature:  "def " + m[2] + "(...)",
				Visibility: pyVisibility(m[2]),
			}
			if currentClass != "" && indent > classIndent {
				sym.Kind = KindMethod
				sym.Parent = currentClass
			} else {
				currentClass, classIndent = "", -1
			}
			symbols = append(symbols, sym)
		}
	}
	return symbols, nil
}

func pyVisibility(name string) Visibility {
	if strings.HasPrefix(name, "_") {
		return VisibilityPrivate
	}
	return VisibilityPublic
}
