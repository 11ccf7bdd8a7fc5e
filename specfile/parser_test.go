package specfile

import (
	"fmt"
	"testing"
)

func noFiles(path string) ([]byte, error) {
	return nil, nil
}

func TestParseBasicGrammar(t *testing.T) {
	src := []byte(`
%name calc;
%target Expr;
%attr Value;

%token num (\d+);
%token add "+";
%token l_paren "(";
%token r_paren ")";
%skip ws;
%token ws ([ \t\n]+);

%left add;

expr
    : expr add expr !{ $$ = $1 + $3 !}
    | l_paren expr r_paren
    | num
    ;
`)

	g, err := Parse(src, ".", noFiles)
	if err != nil {
		t.Fatal(err)
	}
	if g.Name != "calc" {
		t.Fatalf("unexpected name: %v", g.Name)
	}
	if g.TargetType != "Expr" {
		t.Fatalf("unexpected target type: %v", g.TargetType)
	}
	if g.AttrType != "Value" {
		t.Fatalf("unexpected attr type: %v", g.AttrType)
	}
	if len(g.Productions) != 3 {
		t.Fatalf("expected 3 productions, got %v", len(g.Productions))
	}
	if g.Productions[0].Action == "" {
		t.Fatal("expected first alternative to carry its action body")
	}
}

func TestParsePredicate(t *testing.T) {
	src := []byte(`
%target stmt;
%token id (\w+);
%token semi ";";

stmt
    : id semi ?( $1 != "reserved" ?)
    | id #recover
    ;
`)
	g, err := Parse(src, ".", noFiles)
	if err != nil {
		t.Fatal(err)
	}
	if g.Productions[0].Predicate == "" {
		t.Fatal("expected the first alternative to carry its predicate body")
	}
	if !g.Productions[1].Recover {
		t.Fatal("expected the second alternative to be marked as a recovery point")
	}
}

func TestParseInjectCycle(t *testing.T) {
	files := map[string][]byte{
		"a.spec": []byte(`%inject "b.spec";`),
		"b.spec": []byte(`%inject "a.spec";`),
	}
	read := func(path string) ([]byte, error) {
		if data, ok := files[path]; ok {
			return data, nil
		}
		return nil, errNotFound
	}

	_, err := ParseFile(files["a.spec"], "a.spec", read)
	if err == nil {
		t.Fatal("expected a cycle-detection error")
	}
}

func TestParseInjectEmptyFile(t *testing.T) {
	files := map[string][]byte{
		"main.spec":  []byte(`%inject "empty.spec";`),
		"empty.spec": []byte("   \n\t\n"),
	}
	read := func(path string) ([]byte, error) {
		if data, ok := files[path]; ok {
			return data, nil
		}
		return nil, errNotFound
	}

	_, err := ParseFile(files["main.spec"], "main.spec", read)
	if err == nil {
		t.Fatal("expected an empty-injected-file error")
	}
}

var errNotFound = fmt.Errorf("file not found")
