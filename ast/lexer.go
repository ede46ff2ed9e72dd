package ast

import "github.com/alecthomas/participle/v2/lexer"

// Lexer defines the token rules for where clauses. The boolean keywords are
// case-insensitive: the rule corpus mixes AND/and and OR/or freely, so mixed
// case normalizes to the same token instead of failing the parse.
var Lexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "Comment", Pattern: `#[^\n]*`, Action: nil},
		{Name: "Whitespace", Pattern: `\s+`, Action: nil},
		{Name: "And", Pattern: `(?i)\band\b`, Action: nil},
		{Name: "Or", Pattern: `(?i)\bor\b`, Action: nil},
		{Name: "Not", Pattern: `(?i)\bnot\b`, Action: nil},
		{Name: "Over", Pattern: `(?i)\bover\b`, Action: nil},
		{Name: "True", Pattern: `(?i)\btrue\b`, Action: nil},
		{Name: "False", Pattern: `(?i)\bfalse\b`, Action: nil},
		{Name: "Inf", Pattern: `(?i)[-+]?\.?\binf\b`, Action: nil},
		{Name: "Float", Pattern: `[-+]?\d+\.\d+(?:[eE][-+]?\d+)?|[-+]?\d+[eE][-+]?\d+`, Action: nil},
		{Name: "Int", Pattern: `[-+]?\d+`, Action: nil},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"|'(?:\\.|[^'])*'`, Action: nil},
		{Name: "Operator", Pattern: `==|!=|<=|>=|=|<|>`, Action: nil},
		{Name: "AttrPath", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*(?:\.[a-zA-Z_][a-zA-Z0-9_]*)+`, Action: nil},
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`, Action: nil},
		{Name: "Punct", Pattern: `[(),]`, Action: nil},
	},
})
