package jinjago

import "testing"

func tokenTypes(toks []*Token) []TokenType {
	out := make([]TokenType, len(toks))
	for i, t := range toks {
		out[i] = t.Typ
	}
	return out
}

func TestLexBasicTags(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []TokenType
	}{
		{
			name:   "plain text",
			source: "hello world",
			want:   []TokenType{TokenText, TokenEOF},
		},
		{
			name:   "expression tag",
			source: "{{ name }}",
			want:   []TokenType{TokenOpenExpression, TokenIdentifier, TokenCloseExpression, TokenEOF},
		},
		{
			name:   "statement tag",
			source: "{% if x %}{% endif %}",
			want: []TokenType{
				TokenOpenStatement, TokenKeyword, TokenIdentifier, TokenCloseStatement,
				TokenOpenStatement, TokenKeyword, TokenCloseStatement, TokenEOF,
			},
		},
		{
			name:   "comment produces no token",
			source: "a{# a comment #}b",
			want:   []TokenType{TokenText, TokenText, TokenEOF},
		},
		{
			name:   "string and number literals",
			source: `{{ "abc" 1 1.5 }}`,
			want:   []TokenType{TokenOpenExpression, TokenString, TokenInteger, TokenFloat, TokenCloseExpression, TokenEOF},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			toks, err := lex("<test>", tc.source, Options{})
			if err != nil {
				t.Fatalf("lex() error = %v", err)
			}
			got := tokenTypes(toks)
			if len(got) != len(tc.want) {
				t.Fatalf("lex(%q) produced %v, want %v", tc.source, got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("lex(%q)[%d] = %s, want %s", tc.source, i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestLexWhitespaceControl(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "trim both sides of expression",
			source: "a {{- \"b\" -}} c",
			want:   "abc",
		},
		{
			name:   "no trim without markers",
			source: "a {{ \"b\" }} c",
			want:   "a b c",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tpl, err := FromString(tc.source)
			if err != nil {
				t.Fatalf("FromString() error = %v", err)
			}
			out, err := tpl.Execute(NewValueMap())
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if out != tc.want {
				t.Errorf("Execute() = %q, want %q", out, tc.want)
			}
		})
	}
}

func TestLexTrimBlocksAndLstripBlocks(t *testing.T) {
	source := "  {% if true %}\nyes\n  {% endif %}\n"
	tpl, err := FromStringOpts(source, Options{TrimBlocks: true, LstripBlocks: true})
	if err != nil {
		t.Fatalf("FromStringOpts() error = %v", err)
	}
	out, err := tpl.Execute(NewValueMap())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	want := "yes\n"
	if out != want {
		t.Errorf("Execute() = %q, want %q", out, want)
	}
}

func TestLexUnclosedTagIsError(t *testing.T) {
	_, err := lex("<test>", "{{ name ", Options{})
	if err == nil {
		t.Fatal("lex() with unclosed tag: want error, got nil")
	}
}

func TestLexUnclosedStringIsError(t *testing.T) {
	_, err := lex("<test>", `{{ "abc }}`, Options{})
	if err == nil {
		t.Fatal("lex() with unclosed string: want error, got nil")
	}
}

func TestLexSymbolsLongestMatchFirst(t *testing.T) {
	toks, err := lex("<test>", "{{ a ** b // c == d != e }}", Options{})
	if err != nil {
		t.Fatalf("lex() error = %v", err)
	}
	var symbols []string
	for _, tok := range toks {
		if tok.Typ == TokenSymbol {
			symbols = append(symbols, tok.Val)
		}
	}
	want := []string{"**", "//", "==", "!="}
	if len(symbols) != len(want) {
		t.Fatalf("symbols = %v, want %v", symbols, want)
	}
	for i := range want {
		if symbols[i] != want[i] {
			t.Errorf("symbols[%d] = %q, want %q", i, symbols[i], want[i])
		}
	}
}

func TestLexStringEscapes(t *testing.T) {
	toks, err := lex("<test>", `{{ "a\nb\tc" }}`, Options{})
	if err != nil {
		t.Fatalf("lex() error = %v", err)
	}
	var got string
	for _, tok := range toks {
		if tok.Typ == TokenString {
			got = tok.Val
		}
	}
	want := "a\nb\tc"
	if got != want {
		t.Errorf("string literal = %q, want %q", got, want)
	}
}
