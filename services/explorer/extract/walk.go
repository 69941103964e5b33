// Copyright (C) 2025 Wavecrest AI (dev@wavecrest.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package extract

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Tree-sitter node type names shared by the javascript and typescript
// grammars. The typescript grammar is a superset; everything listed
// here exists in both.
const (
	nodeImportStatement     = "import_statement"
	nodeString              = "string"
	nodeStringFragment      = "string_fragment"
	nodeFunctionDeclaration = "function_declaration"
	nodeGeneratorFunction   = "generator_function_declaration"
	nodeMethodDefinition    = "method_definition"
	nodeVariableDeclarator  = "variable_declarator"
	nodeArrowFunction       = "arrow_function"
	nodeFunctionExpression  = "function_expression"
	nodeFunctionLegacy      = "function" // older grammar name for function_expression
	nodeCallExpression      = "call_expression"
	nodeIdentifier          = "identifier"
	nodeMemberExpression    = "member_expression"
	nodeImportKeyword       = "import"

	fieldName      = "name"
	fieldValue     = "value"
	fieldFunction  = "function"
	fieldProperty  = "property"
	fieldArguments = "arguments"
)

// collectRecord walks a parsed tree and fills a SourceRecord. Both
// script extractors share this walk since the grammars agree on the
// node types involved.
func collectRecord(root *sitter.Node, content []byte, path, language string) *SourceRecord {
	rec := &SourceRecord{
		Path:      path,
		Language:  language,
		Functions: make([]FunctionDecl, 0),
		Imports:   make([]ImportRef, 0),
		Calls:     make([]CallSite, 0),
	}
	walkNode(root, content, rec)
	return rec
}

// walkNode dispatches on node type and recurses into children.
// Recursion continues into matched nodes too: a function body can
// declare nested functions, calls, and requires.
func walkNode(node *sitter.Node, content []byte, rec *SourceRecord) {
	if node == nil {
		return
	}

	switch node.Type() {
	case nodeImportStatement:
		collectImportStatement(node, content, rec)

	case nodeFunctionDeclaration, nodeGeneratorFunction:
		collectNamedFunction(node, content, rec, FunctionKindDeclaration)

	case nodeMethodDefinition:
		collectNamedFunction(node, content, rec, FunctionKindMethod)

	case nodeVariableDeclarator:
		collectBoundFunction(node, content, rec)

	case nodeCallExpression:
		collectCallExpression(node, content, rec)
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		walkNode(node.Child(i), content, rec)
	}
}

// collectImportStatement records a static `import ... from "x"`.
func collectImportStatement(node *sitter.Node, content []byte, rec *SourceRecord) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == nodeString {
			if spec := stringContent(child, content); spec != "" {
				rec.Imports = append(rec.Imports, ImportRef{
					Specifier: spec,
					Kind:      ImportKindStatic,
					Line:      line(node),
				})
			}
			return
		}
	}
}

// collectNamedFunction records a function or method declaration. A
// declaration without a recoverable name gets the anonymous
// placeholder so it still produces a node.
func collectNamedFunction(node *sitter.Node, content []byte, rec *SourceRecord, kind FunctionKind) {
	name := AnonymousFunctionName
	if n := node.ChildByFieldName(fieldName); n != nil {
		name = text(n, content)
	}
	rec.Functions = append(rec.Functions, FunctionDecl{
		Name: name,
		Line: line(node),
		Kind: kind,
	})
}

// collectBoundFunction records `const foo = () => {}` and
// `const foo = function () {}` declarators as arrow-kind functions.
func collectBoundFunction(node *sitter.Node, content []byte, rec *SourceRecord) {
	value := node.ChildByFieldName(fieldValue)
	if value == nil {
		return
	}
	switch value.Type() {
	case nodeArrowFunction, nodeFunctionExpression, nodeFunctionLegacy:
	default:
		return
	}
	name := node.ChildByFieldName(fieldName)
	if name == nil || name.Type() != nodeIdentifier {
		return
	}
	rec.Functions = append(rec.Functions, FunctionDecl{
		Name: text(name, content),
		Line: line(node),
		Kind: FunctionKindArrow,
	})
}

// collectCallExpression records one call site, or an import reference
// when the call is require(...) or a dynamic import(...).
func collectCallExpression(node *sitter.Node, content []byte, rec *SourceRecord) {
	callee := node.ChildByFieldName(fieldFunction)
	if callee == nil {
		return
	}

	switch callee.Type() {
	case nodeImportKeyword:
		if spec := firstStringArgument(node, content); spec != "" {
			rec.Imports = append(rec.Imports, ImportRef{
				Specifier: spec,
				Kind:      ImportKindDynamic,
				Line:      line(node),
			})
		}

	case nodeIdentifier:
		name := text(callee, content)
		if name == "require" {
			if spec := firstStringArgument(node, content); spec != "" {
				rec.Imports = append(rec.Imports, ImportRef{
					Specifier: spec,
					Kind:      ImportKindRequire,
					Line:      line(node),
				})
			}
			return
		}
		rec.Calls = append(rec.Calls, CallSite{Callee: name, Line: line(node)})

	case nodeMemberExpression:
		// obj.run() records the final property name. Heuristic on
		// purpose; the call resolver matches by bare name only.
		if prop := callee.ChildByFieldName(fieldProperty); prop != nil {
			rec.Calls = append(rec.Calls, CallSite{Callee: text(prop, content), Line: line(node)})
		}
	}
}

// firstStringArgument returns the unquoted first string literal inside
// the call's argument list, or "".
func firstStringArgument(call *sitter.Node, content []byte) string {
	args := call.ChildByFieldName(fieldArguments)
	if args == nil {
		return ""
	}
	for i := 0; i < int(args.ChildCount()); i++ {
		child := args.Child(i)
		if child.Type() == nodeString {
			return stringContent(child, content)
		}
	}
	return ""
}

// stringContent returns the literal's text without quotes.
func stringContent(node *sitter.Node, content []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == nodeStringFragment {
			return text(child, content)
		}
	}
	raw := text(node, content)
	if len(raw) >= 2 {
		return raw[1 : len(raw)-1]
	}
	return raw
}

// text returns the source bytes a node spans.
func text(node *sitter.Node, content []byte) string {
	return string(content[node.StartByte():node.EndByte()])
}

// line returns the 1-indexed start line of a node.
func line(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}
