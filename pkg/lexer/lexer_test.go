package lexer

import "testing"

func TestNextToken_BasicTokens(t *testing.T) {
	input := `(){},.-+;/*!=<>`

	tests := []struct {
		expectedType   TokenType
		expectedLexeme string
	}{
		{TokenLeftParen, "("},
		{TokenRightParen, ")"},
		{TokenLeftBrace, "{"},
		{TokenRightBrace, "}"},
		{TokenComma, ","},
		{TokenDot, "."},
		{TokenMinus, "-"},
		{TokenPlus, "+"},
		{TokenSemicolon, ";"},
		{TokenSlash, "/"},
		{TokenStar, "*"},
		{TokenBangEqual, "!="},
		{TokenLess, "<"},
		{TokenGreater, ">"},
		{TokenEOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%s, got=%s", i, tt.expectedType, tok.Type)
		}
		if tok.Lexeme != tt.expectedLexeme {
			t.Fatalf("tests[%d] - lexeme wrong. expected=%q, got=%q", i, tt.expectedLexeme, tok.Lexeme)
		}
	}
}

func TestNextToken_TwoCharOperators(t *testing.T) {
	input := `== != <= >=`
	want := []TokenType{TokenEqualEqual, TokenBangEqual, TokenLessEqual, TokenGreaterEqual, TokenEOF}

	l := New(input)
	for i, wantType := range want {
		tok := l.NextToken()
		if tok.Type != wantType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%s, got=%s", i, wantType, tok.Type)
		}
	}
}

func TestNextToken_KeywordsAndIdentifiers(t *testing.T) {
	input := `var x = fun class this super nil true false and or if else for while return print notAKeyword`

	tests := []struct {
		expectedType   TokenType
		expectedLexeme string
	}{
		{TokenVar, "var"},
		{TokenIdentifier, "x"},
		{TokenEqual, "="},
		{TokenFun, "fun"},
		{TokenClass, "class"},
		{TokenThis, "this"},
		{TokenSuper, "super"},
		{TokenNil, "nil"},
		{TokenTrue, "true"},
		{TokenFalse, "false"},
		{TokenAnd, "and"},
		{TokenOr, "or"},
		{TokenIf, "if"},
		{TokenElse, "else"},
		{TokenFor, "for"},
		{TokenWhile, "while"},
		{TokenReturn, "return"},
		{TokenPrint, "print"},
		{TokenIdentifier, "notAKeyword"},
		{TokenEOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong for %q. expected=%s, got=%s", i, tt.expectedLexeme, tt.expectedType, tok.Type)
		}
		if tok.Lexeme != tt.expectedLexeme {
			t.Fatalf("tests[%d] - lexeme wrong. expected=%q, got=%q", i, tt.expectedLexeme, tok.Lexeme)
		}
	}
}

func TestNextToken_NumbersAndStrings(t *testing.T) {
	input := `123 45.67 "hello world"`

	l := New(input)

	tok := l.NextToken()
	if tok.Type != TokenNumber || tok.Lexeme != "123" {
		t.Fatalf("expected NUMBER 123, got %s %q", tok.Type, tok.Lexeme)
	}

	tok = l.NextToken()
	if tok.Type != TokenNumber || tok.Lexeme != "45.67" {
		t.Fatalf("expected NUMBER 45.67, got %s %q", tok.Type, tok.Lexeme)
	}

	tok = l.NextToken()
	if tok.Type != TokenString || tok.Lexeme != "hello world" {
		t.Fatalf("expected STRING hello world, got %s %q", tok.Type, tok.Lexeme)
	}
}

func TestNextToken_UnterminatedString(t *testing.T) {
	l := New(`"no closing quote`)
	tok := l.NextToken()
	if tok.Type != TokenError {
		t.Fatalf("expected ERROR token, got %s", tok.Type)
	}
}

func TestNextToken_LineCounting(t *testing.T) {
	input := "var a = 1;\nvar b = 2;\nprint b;"
	l := New(input)

	var lastLine int
	for {
		tok := l.NextToken()
		if tok.Type == TokenEOF {
			break
		}
		lastLine = tok.Line
	}
	if lastLine != 3 {
		t.Fatalf("expected last token on line 3, got line %d", lastLine)
	}
}

func TestNextToken_EOFIsIdempotent(t *testing.T) {
	l := New("")
	first := l.NextToken()
	second := l.NextToken()
	if first.Type != TokenEOF || second.Type != TokenEOF {
		t.Fatalf("expected EOF to repeat, got %s then %s", first.Type, second.Type)
	}
}

func TestNextToken_CommentsSkipped(t *testing.T) {
	input := "// this is a comment\nvar x = 1; // trailing"
	l := New(input)

	tok := l.NextToken()
	if tok.Type != TokenVar {
		t.Fatalf("expected comment to be skipped, got %s", tok.Type)
	}
}
